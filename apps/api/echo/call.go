package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/cmabris/erasmus25/core/call"
	"github.com/cmabris/erasmus25/core/user"
)

type callApi struct {
	svc     *call.Service
	userSvc *user.Service
}

func registerCallAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *call.Service, userSvc *user.Service) {
	api := callApi{svc: svc, userSvc: userSvc}

	cg := g.Group("/calls")

	// public: published calls, their timelines and resolutions
	cg.GET("", api.query)
	cg.GET("/:id", api.retrieve)
	cg.GET("/:id/phases", api.queryPhases)
	cg.GET("/:id/resolutions", api.queryResolutions)

	// authed management endpoints
	cg.POST("", api.create, jwt, permissionMiddleware(userSvc, user.ActionCreate, user.ResCall))
	cg.PUT("/:id", api.update, jwt, permissionMiddleware(userSvc, user.ActionUpdate, user.ResCall))
	cg.DELETE("/:id", api.destroy, jwt, permissionMiddleware(userSvc, user.ActionDelete, user.ResCall))
	cg.POST("/:id/publish", api.publish, jwt, permissionMiddleware(userSvc, user.ActionPublish, user.ResCall))
	cg.POST("/:id/close", api.close, jwt, permissionMiddleware(userSvc, user.ActionClose, user.ResCall))
	cg.POST("/:id/phases/refresh", api.refreshPhases, jwt, permissionMiddleware(userSvc, user.ActionUpdate, user.ResCallPhase))
}

// Handlers

func (api *callApi) create(ctx echo.Context) error {
	var data call.NewCall
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCall")
	}
	if err := data.Validate(api.svc); err != nil {
		return err
	}

	actor, err := getContextActor(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	c, err := api.svc.Create(ctx.Request().Context(), actor.User, data)
	if err != nil {
		return errors.Wrap(err, "creating call")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *callApi) query(ctx echo.Context) error {
	filter := new(call.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []call.Call{})
	}

	calls, err := api.svc.Filter(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying calls")
	}
	if calls == nil {
		calls = []call.Call{}
	}
	return ctx.JSON(http.StatusOK, calls)
}

func (api *callApi) retrieve(ctx echo.Context) error {
	c, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding call")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *callApi) update(ctx echo.Context) error {
	var data call.UpdateCall
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCall")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	actor, err := getContextActor(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	c, err := api.svc.Update(ctx.Request().Context(), actor.User, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating call")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *callApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting call")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *callApi) publish(ctx echo.Context) error {
	actor, err := getContextActor(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	c, err := api.svc.Publish(ctx.Request().Context(), actor.User, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "publishing call")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *callApi) close(ctx echo.Context) error {
	var data CloseCallRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CloseCallRequest")
	}

	actor, err := getContextActor(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	c, err := api.svc.Close(ctx.Request().Context(), actor.User, ctx.Param("id"), data.AppealsFiled)
	if err != nil {
		return errors.Wrap(err, "closing call")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *callApi) queryPhases(ctx echo.Context) error {
	phases, err := api.svc.QueryPhases(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying call phases")
	}
	if phases == nil {
		phases = []call.CallPhase{}
	}
	return ctx.JSON(http.StatusOK, phases)
}

func (api *callApi) refreshPhases(ctx echo.Context) error {
	if err := api.svc.RefreshCurrentPhase(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "refreshing current phase")
	}
	return api.queryPhases(ctx)
}

func (api *callApi) queryResolutions(ctx echo.Context) error {
	resolutions, err := api.svc.QueryResolutions(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying resolutions")
	}
	if resolutions == nil {
		resolutions = []call.Resolution{}
	}
	return ctx.JSON(http.StatusOK, resolutions)
}

type CloseCallRequest struct {
	AppealsFiled bool `json:"appeals_filed"`
}
