package core

// Logger is any service that can report application events.
// expected args: error | map[string]interface{} (extra fields) | Requester
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Requester is the authenticated caller an event is reported for.
type Requester struct {
	ID   string
	Role string
}
