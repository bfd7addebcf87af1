package tests

import (
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/maendeleo/apps/api/echo"
)

var (
	adminToken   string
	teacherToken string
	annToken     string // student s1
	benToken     string // student s2, roster id carried in student_id
	noRoleToken  string
)

func TestMain(m *testing.M) {
	adminToken = newToken("admin-1", RoleAdmin)
	teacherToken = newToken("teacher-1", RoleTeacher)
	annToken = newToken("s1", RoleStudent)
	noRoleToken = newToken("guest-1")

	ben := NewClaims("user-42", time.Hour, RoleStudent)
	ben.StudentID = "s2"
	benToken = getToken(ben)

	os.Exit(m.Run())
}

func TestServer_home(t *testing.T) {
	app := setup(t)

	req, rec := newRequest(http.MethodGet, "/")
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Maendeleo API!", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestServer_requestID(t *testing.T) {
	app := setup(t)

	req, rec := newRequest(http.MethodGet, "/")
	req.Header.Set(echo.HeaderXRequestID, "req-42")
	app.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get(echo.HeaderXRequestID))
}

func TestServer_auth(t *testing.T) {
	app := setup(t)
	expired := getToken(NewClaims("admin-1", -time.Minute, RoleAdmin))

	runHTTPTests(t, app, []httpTest{
		{
			name:     "missing token",
			method:   http.MethodGet,
			path:     "/v1/progress/classes",
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "malformed token",
			method:   http.MethodGet,
			path:     "/v1/progress/classes",
			token:    "lol",
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errInvalidToken),
		},
		{
			name:     "expired token",
			method:   http.MethodGet,
			path:     "/v1/progress/classes",
			token:    expired,
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errInvalidToken),
		},
		{
			name:     "student on staff route",
			method:   http.MethodGet,
			path:     "/v1/progress/classes",
			token:    annToken,
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errForbidden),
		},
		{
			name:     "token without role",
			method:   http.MethodGet,
			path:     "/v1/progress/students/guest-1",
			token:    noRoleToken,
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errForbidden),
		},
		{
			name:     "admin",
			method:   http.MethodGet,
			path:     "/v1/progress/classes",
			token:    adminToken,
			wantCode: http.StatusOK,
			wantData: []byte(`[{"class": "LKG", "sections": ["A"]}, {"class": "5", "sections": ["A", "B"]}]`),
		},
	})
}
