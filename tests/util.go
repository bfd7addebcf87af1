package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/trezcool/maendeleo/core"
	"github.com/trezcool/maendeleo/core/progress"
	inmemdb "github.com/trezcool/maendeleo/storage/database/inmem"
)

const TestSecretKey = "test-secret-key"

// NewConfig returns the config used by tests: in-memory source, no request logs, no Rollbar.
func NewConfig() *core.Config {
	conf := core.NewConfig()
	conf.Debug = false
	conf.TestMode = true
	conf.SecretKey = TestSecretKey
	conf.RollbarToken = ""
	conf.Server.DisableReqLogs = true
	conf.Progress.Source = core.SourceMemory
	conf.Progress.SeedFile = ""
	return conf
}

// SeedDB returns an in-memory DB holding this roster:
//
//	s1 Ann  5/A  Math 80%, Math 90%, Science 70%   -> 80.0
//	s2 Ben  5/A  Math 60%, English 90% (undated)    -> 75.0
//	s3 Cid  5/B  Science 95%                        -> 95.0
//	s4 Dee  5/B  no marks
//	s5 Eve  LKG/A Math 50%                          -> 50.0
func SeedDB(t *testing.T) *inmemdb.DB {
	t.Helper()

	db := inmemdb.Open()
	db.AddStudents(
		progress.Student{ID: "s1", Name: "Ann", Class: "5", Section: "A"},
		progress.Student{ID: "s2", Name: "Ben", Class: "5", Section: "A"},
		progress.Student{ID: "s3", Name: "Cid", Class: "5", Section: "B"},
		progress.Student{ID: "s4", Name: "Dee", Class: "5", Section: "B"},
		progress.Student{ID: "s5", Name: "Eve", Class: "LKG", Section: "A"},
	)
	db.AddMarks(
		progress.NewMark("s1", "Math", "Midterm", "2024-03-01", 40, 50),
		progress.NewMark("s1", "Math", "Final", "2024-06-01", 90, 100),
		progress.NewMark("s1", "Science", "Midterm", "2024-03-01", 70, 100),
		progress.NewMark("s2", "Math", "Midterm", "2024-03-01", 60, 100),
		progress.NewMark("s2", "English", "Final", "", 45, 50),
		progress.NewMark("s3", "Science", "Midterm", "2024-03-01", 95, 100),
		progress.NewMark("s5", "Math", "Midterm", "2024-03-02", 50, 100),
	)
	return db
}

// LogEntry is one call recorded by a Logger.
type LogEntry struct {
	Level string
	Msg   string
	Args  []interface{}
}

// Logger records log calls; safe for concurrent use.
type Logger struct {
	mu      sync.Mutex
	Entries []LogEntry
}

var _ core.Logger = (*Logger)(nil)

func (l *Logger) log(level, msg string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Entries = append(l.Entries, LogEntry{Level: level, Msg: msg, Args: args})
}

// Count returns the number of entries logged at level.
func (l *Logger) Count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	var n int
	for _, e := range l.Entries {
		if e.Level == level {
			n++
		}
	}
	return n
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.log("DEBUG", msg, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.log("INFO", msg, args) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.log("WARN", msg, args) }
func (l *Logger) Error(msg string, args ...interface{}) { l.log("ERROR", msg, args) }
func (l *Logger) Fatal(msg string, args ...interface{}) { l.log("FATAL", msg, args) }

// FlakySource wraps a source, failing StudentMarks for the listed students and optionally slowing it down.
type FlakySource struct {
	progress.Source
	Fail  map[string]bool
	Delay time.Duration
}

func (s *FlakySource) StudentMarks(ctx context.Context, studentID string) ([]progress.Mark, error) {
	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.Fail[studentID] {
		return nil, fmt.Errorf("marks of %s unavailable", studentID)
	}
	return s.Source.StudentMarks(ctx, studentID)
}
