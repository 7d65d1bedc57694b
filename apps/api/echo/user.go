package echoapi

import (
	"net/http"
	"sort"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/cmabris/erasmus25/core"
	"github.com/cmabris/erasmus25/core/user"
)

type userApi struct {
	svc *user.Service
}

func registerUserAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *user.Service) {
	api := userApi{svc: svc}

	ug := g.Group("/users")

	// un-authed endpoints
	ug.POST("/login", api.login)

	// authed endpoints
	ag := ug.Group("", jwt)
	ag.POST("/token-refresh", api.refreshToken)
	ag.POST("", api.create, permissionMiddleware(svc, user.ActionCreate, user.ResUser))
	ag.GET("", api.query, permissionMiddleware(svc, user.ActionViewAny, user.ResUser))
	ag.DELETE("", api.destroyMultiple, permissionMiddleware(svc, user.ActionDelete, user.ResUser))
	ag.GET("/:id", api.retrieve, permissionMiddleware(svc, user.ActionView, user.ResUser))
	ag.PUT("/:id", api.update, permissionMiddleware(svc, user.ActionUpdate, user.ResUser))
	ag.DELETE("/:id", api.destroy, permissionMiddleware(svc, user.ActionDelete, user.ResUser))

	// roles
	rg := g.Group("/roles", jwt)
	rg.GET("", api.queryRoles, permissionMiddleware(svc, user.ActionViewAny, user.ResRole))
	rg.GET("/:name", api.retrieveRole, permissionMiddleware(svc, user.ActionView, user.ResRole))
	rg.PUT("/:name", api.saveRole, permissionMiddleware(svc, user.ActionUpdate, user.ResRole))
	rg.DELETE("/:name", api.destroyRole, permissionMiddleware(svc, user.ActionDelete, user.ResRole))
}

// Handlers

func (api *userApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := authenticate(ctx, data.Email, data.Password, api.svc)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	token, err := GenerateToken(claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *userApi) refreshToken(ctx echo.Context) error {
	token, err := refreshToken(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *userApi) create(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(api.svc); err != nil {
		return err
	}

	// the actor cannot grant roles they have no right to assign
	actor, err := getContextActor(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	if len(data.Roles) > 0 && !actor.Can(user.ActionAssignRoles, user.ResUser) {
		return core.NewValidationError(nil, core.FieldError{Field: "roles", Error: "not enough rights to set these roles"})
	}

	usr, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *userApi) query(ctx echo.Context) error {
	filter := new(user.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []user.User{})
	}

	users, err := api.svc.Filter(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *userApi) retrieve(ctx echo.Context) error {
	usr, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding user by ID")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) update(ctx echo.Context) error {
	origUsr, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding user by ID")
	}

	var data user.UpdateUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}
	if err := data.Validate(origUsr, api.svc); err != nil {
		return err
	}

	actor, err := getContextActor(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	usr, err := api.svc.Update(ctx.Request().Context(), actor, origUsr.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) destroy(ctx echo.Context) error {
	actor, err := getContextActor(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	if err := api.svc.Delete(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *userApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	sort.Strings(query.IDs)

	actor, err := getContextActor(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	if err := api.svc.Delete(ctx.Request().Context(), actor, query.IDs...); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Role handlers

func (api *userApi) queryRoles(ctx echo.Context) error {
	roles, err := api.svc.QueryRoles(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying roles")
	}
	if roles == nil {
		roles = []user.Role{}
	}
	return ctx.JSON(http.StatusOK, roles)
}

func (api *userApi) retrieveRole(ctx echo.Context) error {
	role, err := api.svc.GetRole(ctx.Request().Context(), ctx.Param("name"))
	if err != nil {
		return errors.Wrap(err, "finding role")
	}
	return ctx.JSON(http.StatusOK, role)
}

func (api *userApi) saveRole(ctx echo.Context) error {
	var data SaveRoleRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveRoleRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	role, err := api.svc.SaveRole(ctx.Request().Context(), user.Role{
		Name:        ctx.Param("name"),
		Permissions: data.Permissions,
	})
	if err != nil {
		return errors.Wrap(err, "saving role")
	}
	return ctx.JSON(http.StatusOK, role)
}

func (api *userApi) destroyRole(ctx echo.Context) error {
	actor, err := getContextActor(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	if err := api.svc.DeleteRole(ctx.Request().Context(), actor, ctx.Param("name")); err != nil {
		return errors.Wrap(err, "deleting role")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}

	DestroyMultipleRequest struct {
		IDs []string `query:"id"`
	}

	SaveRoleRequest struct {
		Permissions []string `json:"permissions" validate:"required,min=1"`
	}
)

func (lr *LoginRequest) Validate() error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return core.Validate.Struct(lr)
}

func (sr *SaveRoleRequest) Validate() error {
	return core.Validate.Struct(sr)
}
