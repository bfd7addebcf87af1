package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/maendeleo/core"
)

const (
	contextTokenKey = "userToken"
	audience        = "Academia"

	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// newJWTConfig verifies tokens issued by the auth service. This API never issues tokens itself.
func newJWTConfig(secretKey string) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(secretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	}
}

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Username  string   `json:"username,omitempty"`
	StudentID string   `json:"student_id,omitempty"` // roster id; defaults to Subject
	IsStudent bool     `json:"is_student,omitempty"` // -> STUDENT PORTAL
	IsTeacher bool     `json:"is_teacher,omitempty"` // -> TEACHER PORTAL
	IsAdmin   bool     `json:"is_admin,omitempty"`   // -> ADMIN PORTAL
	Roles     []string `json:"roles,omitempty"`
}

// NewClaims builds claims the way the auth service issues them; used by tests and tooling.
func NewClaims(subject string, ttl time.Duration, roles ...string) *Claims {
	now := time.Now()
	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Subject:   subject,
			Audience:  audience,
			ExpiresAt: now.Add(ttl).Unix(),
			IssuedAt:  now.Unix(),
		},
		Roles: roles,
	}
	for _, role := range roles {
		switch role {
		case RoleAdmin:
			claims.IsAdmin = true
		case RoleTeacher:
			claims.IsTeacher = true
		case RoleStudent:
			claims.IsStudent = true
		}
	}
	return claims
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(claims *Claims, secretKey string) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)
	ss, err := token.SignedString([]byte(secretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// IsStaff reports whether the claims may read cohort-wide data.
func (c Claims) IsStaff() bool {
	return c.IsAdmin || c.IsTeacher
}

// OwnStudentID is the roster id a student token may read.
func (c Claims) OwnStudentID() string {
	if c.StudentID != "" {
		return c.StudentID
	}
	return c.Subject
}

func (c Claims) Requester() core.Requester {
	role := RoleStudent
	switch {
	case c.IsAdmin:
		role = RoleAdmin
	case c.IsTeacher:
		role = RoleTeacher
	}
	return core.Requester{ID: c.Subject, Role: role}
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}
