package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/cmabris/erasmus25/core/user"
)

// permissionMiddleware resolves the request Actor and requires the
// "resource.action" capability. Instance-level guards stay in the services.
func permissionMiddleware(svc *user.Service, action, resource string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			actor, err := getContextActor(ctx, svc)
			if err != nil {
				return errors.Wrap(err, "getting context actor")
			}
			if !actor.Can(action, resource) {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}
