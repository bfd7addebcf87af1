package echoapi

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/maendeleo/core"
)

// staffMiddleware lets admins and teachers through.
func staffMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsStaff() {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// selfOrStaffMiddleware lets staff through, and students when every student id in the request is their own.
// ids extracts those ids from the request.
func selfOrStaffMiddleware(ids func(ctx echo.Context) []string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsStaff() {
				return next(ctx)
			}
			own := claims.OwnStudentID()
			if !claims.IsStudent || own == "" {
				return errHttpForbidden
			}
			for _, id := range ids(ctx) {
				if id != "" && core.CleanString(id) != own {
					return errHttpForbidden
				}
			}
			return next(ctx)
		}
	}
}

// requestIDMiddleware reuses the caller's X-Request-ID or makes one, echoes it back
// and stores it in the request context for downstream feed calls.
func requestIDMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			req := ctx.Request()
			id := req.Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = uuid.New().String()
			}
			ctx.Response().Header().Set(echo.HeaderXRequestID, id)
			ctx.SetRequest(req.WithContext(core.ContextWithRequestID(req.Context(), id)))
			return next(ctx)
		}
	}
}
