package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/lusambya/kazi/core/staff"
)

// capabilityMiddleware rejects requests whose token role lacks the capability.
func capabilityMiddleware(c staff.Capability) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.Role.Can(c) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}
