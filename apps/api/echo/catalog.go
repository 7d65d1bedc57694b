package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/cmabris/erasmus25/core/catalog"
	"github.com/cmabris/erasmus25/core/user"
)

type catalogApi struct {
	svc *catalog.Service
}

func registerCatalogAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *catalog.Service, userSvc *user.Service) {
	api := catalogApi{svc: svc}

	// programs are public to read, managed by authed staff
	pg := g.Group("/programs")
	pg.GET("", api.queryPrograms)
	pg.GET("/:id", api.retrieveProgram)
	pg.POST("", api.createProgram, jwt, permissionMiddleware(userSvc, user.ActionCreate, user.ResProgram))
	pg.PUT("/:id", api.updateProgram, jwt, permissionMiddleware(userSvc, user.ActionUpdate, user.ResProgram))
	pg.DELETE("/:id", api.destroyProgram, jwt, permissionMiddleware(userSvc, user.ActionDelete, user.ResProgram))

	yg := g.Group("/academic-years")
	yg.GET("", api.queryYears)
	yg.GET("/:id", api.retrieveYear)
	yg.POST("", api.createYear, jwt, permissionMiddleware(userSvc, user.ActionCreate, user.ResAcademicYear))
	yg.POST("/:id/current", api.setCurrentYear, jwt, permissionMiddleware(userSvc, user.ActionUpdate, user.ResAcademicYear))

	cg := g.Group("/document-categories")
	cg.GET("", api.queryCategories)
	cg.GET("/:id", api.retrieveCategory)
	cg.POST("", api.createCategory, jwt, permissionMiddleware(userSvc, user.ActionCreate, user.ResDocumentCategory))
	cg.DELETE("/:id", api.destroyCategory, jwt, permissionMiddleware(userSvc, user.ActionDelete, user.ResDocumentCategory))

	lg := g.Group("/languages")
	lg.GET("", api.queryLanguages)
	lg.POST("", api.createLanguage, jwt, permissionMiddleware(userSvc, user.ActionCreate, user.ResLanguage))
	lg.DELETE("/:id", api.destroyLanguage, jwt, permissionMiddleware(userSvc, user.ActionDelete, user.ResLanguage))

	sg := g.Group("/settings")
	sg.GET("", api.querySettings)
	sg.PUT("/:key", api.saveSetting, jwt, permissionMiddleware(userSvc, user.ActionUpdate, user.ResSetting))
}

// Program handlers

func (api *catalogApi) createProgram(ctx echo.Context) error {
	var data catalog.NewProgram
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewProgram")
	}
	if err := data.Validate(api.svc); err != nil {
		return err
	}

	prog, err := api.svc.CreateProgram(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating program")
	}
	return ctx.JSON(http.StatusCreated, prog)
}

func (api *catalogApi) queryPrograms(ctx echo.Context) error {
	progs, err := api.svc.QueryPrograms(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying programs")
	}
	if progs == nil {
		progs = []catalog.Program{}
	}
	return ctx.JSON(http.StatusOK, progs)
}

func (api *catalogApi) retrieveProgram(ctx echo.Context) error {
	prog, err := api.svc.GetProgram(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding program")
	}
	return ctx.JSON(http.StatusOK, prog)
}

func (api *catalogApi) updateProgram(ctx echo.Context) error {
	prog, err := api.svc.GetProgram(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding program")
	}

	var data UpdateProgramRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProgramRequest")
	}
	if data.Name != "" {
		prog.Name = data.Name
	}
	if data.Description != "" {
		prog.Description = data.Description
	}
	if data.Color != "" {
		prog.Color = data.Color
	}
	if data.IsActive != nil {
		prog.IsActive = *data.IsActive
	}

	prog, err = api.svc.UpdateProgram(ctx.Request().Context(), prog)
	if err != nil {
		return errors.Wrap(err, "updating program")
	}
	return ctx.JSON(http.StatusOK, prog)
}

func (api *catalogApi) destroyProgram(ctx echo.Context) error {
	if err := api.svc.DeleteProgram(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting program")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Academic year handlers

func (api *catalogApi) createYear(ctx echo.Context) error {
	var data catalog.NewAcademicYear
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAcademicYear")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	year, err := api.svc.CreateAcademicYear(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating academic year")
	}
	return ctx.JSON(http.StatusCreated, year)
}

func (api *catalogApi) queryYears(ctx echo.Context) error {
	years, err := api.svc.QueryAcademicYears(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying academic years")
	}
	if years == nil {
		years = []catalog.AcademicYear{}
	}
	return ctx.JSON(http.StatusOK, years)
}

func (api *catalogApi) retrieveYear(ctx echo.Context) error {
	year, err := api.svc.GetAcademicYear(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding academic year")
	}
	return ctx.JSON(http.StatusOK, year)
}

func (api *catalogApi) setCurrentYear(ctx echo.Context) error {
	year, err := api.svc.SetCurrentAcademicYear(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "setting current academic year")
	}
	return ctx.JSON(http.StatusOK, year)
}

// Document category handlers

func (api *catalogApi) createCategory(ctx echo.Context) error {
	var data catalog.NewDocumentCategory
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewDocumentCategory")
	}
	if err := data.Validate(api.svc); err != nil {
		return err
	}

	cat, err := api.svc.CreateCategory(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating document category")
	}
	return ctx.JSON(http.StatusCreated, cat)
}

func (api *catalogApi) queryCategories(ctx echo.Context) error {
	cats, err := api.svc.QueryCategories(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying document categories")
	}
	if cats == nil {
		cats = []catalog.DocumentCategory{}
	}
	return ctx.JSON(http.StatusOK, cats)
}

func (api *catalogApi) retrieveCategory(ctx echo.Context) error {
	cat, err := api.svc.GetCategory(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding document category")
	}
	return ctx.JSON(http.StatusOK, cat)
}

func (api *catalogApi) destroyCategory(ctx echo.Context) error {
	if err := api.svc.DeleteCategory(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting document category")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Language handlers

func (api *catalogApi) createLanguage(ctx echo.Context) error {
	var data catalog.NewLanguage
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLanguage")
	}
	if err := data.Validate(api.svc); err != nil {
		return err
	}

	lang, err := api.svc.CreateLanguage(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating language")
	}
	return ctx.JSON(http.StatusCreated, lang)
}

func (api *catalogApi) queryLanguages(ctx echo.Context) error {
	languages, err := api.svc.QueryLanguages(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying languages")
	}
	if languages == nil {
		languages = []catalog.Language{}
	}
	return ctx.JSON(http.StatusOK, languages)
}

func (api *catalogApi) destroyLanguage(ctx echo.Context) error {
	if err := api.svc.DeleteLanguage(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting language")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Site setting handlers

func (api *catalogApi) querySettings(ctx echo.Context) error {
	settings, err := api.svc.QuerySettings(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying site settings")
	}
	if settings == nil {
		settings = []catalog.SiteSetting{}
	}
	return ctx.JSON(http.StatusOK, settings)
}

func (api *catalogApi) saveSetting(ctx echo.Context) error {
	var data SaveSettingRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveSettingRequest")
	}

	setting, err := api.svc.SetSetting(ctx.Request().Context(), ctx.Param("key"), data.Value)
	if err != nil {
		return errors.Wrap(err, "saving site setting")
	}
	return ctx.JSON(http.StatusOK, setting)
}

type (
	UpdateProgramRequest struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Color       string `json:"color" validate:"omitempty,hexcolor"`
		IsActive    *bool  `json:"is_active"`
	}

	SaveSettingRequest struct {
		Value string `json:"value"`
	}
)
