package echoapi

import (
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/cmabris/erasmus25/core/content"
	"github.com/cmabris/erasmus25/core/user"
)

type contentApi struct {
	svc     *content.Service
	userSvc *user.Service
}

func registerContentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *content.Service, userSvc *user.Service) {
	api := contentApi{svc: svc, userSvc: userSvc}

	dg := g.Group("/documents")
	dg.GET("", api.queryDocuments)
	dg.GET("/:id", api.retrieveDocument)
	dg.POST("", api.createDocument, jwt, permissionMiddleware(userSvc, user.ActionCreate, user.ResDocument))
	dg.PUT("/:id", api.updateDocument, jwt, permissionMiddleware(userSvc, user.ActionUpdate, user.ResDocument))
	dg.DELETE("/:id", api.destroyDocument, jwt, permissionMiddleware(userSvc, user.ActionDelete, user.ResDocument))
	dg.POST("/:id/restore", api.restoreDocument, jwt, permissionMiddleware(userSvc, user.ActionRestore, user.ResDocument))
	dg.GET("/:id/consents", api.queryDocumentConsents, jwt, permissionMiddleware(userSvc, user.ActionViewAny, user.ResDocument))
	dg.POST("/:id/consents", api.addDocumentConsent, jwt, permissionMiddleware(userSvc, user.ActionUpdate, user.ResDocument))

	ng := g.Group("/news")
	ng.GET("", api.queryNews)
	ng.GET("/:id", api.retrieveNewsPost)
	ng.POST("", api.createNewsPost, jwt, permissionMiddleware(userSvc, user.ActionCreate, user.ResNews))
	ng.PUT("/:id", api.updateNewsPost, jwt, permissionMiddleware(userSvc, user.ActionUpdate, user.ResNews))
	ng.DELETE("/:id", api.destroyNewsPost, jwt, permissionMiddleware(userSvc, user.ActionDelete, user.ResNews))
	ng.POST("/:id/restore", api.restoreNewsPost, jwt, permissionMiddleware(userSvc, user.ActionRestore, user.ResNews))
	ng.GET("/:id/consents", api.queryNewsConsents, jwt, permissionMiddleware(userSvc, user.ActionViewAny, user.ResNews))
	ng.POST("/:id/consents", api.addNewsConsent, jwt, permissionMiddleware(userSvc, user.ActionUpdate, user.ResNews))

	eg := g.Group("/events")
	eg.GET("", api.queryEvents)
	eg.GET("/:id", api.retrieveEvent)
	eg.POST("", api.createEvent, jwt, permissionMiddleware(userSvc, user.ActionCreate, user.ResEvent))
	eg.DELETE("/:id", api.destroyEvent, jwt, permissionMiddleware(userSvc, user.ActionDelete, user.ResEvent))
	eg.POST("/:id/restore", api.restoreEvent, jwt, permissionMiddleware(userSvc, user.ActionRestore, user.ResEvent))

	sg := g.Group("/newsletter")
	sg.POST("/subscribe", api.subscribe)
	sg.POST("/confirm", api.confirmSubscription)
	sg.POST("/unsubscribe", api.unsubscribe)
	sg.GET("", api.querySubscriptions, jwt, permissionMiddleware(userSvc, user.ActionViewAny, user.ResNewsletter))
}

// bindUpload extracts the named multipart file, if the request carries one.
// The returned closer must be closed by the caller once the upload has been
// consumed.
func bindUpload(ctx echo.Context, field string) (*content.Upload, multipart.File, error) {
	if !strings.HasPrefix(ctx.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		return nil, nil, nil
	}
	hdr, err := ctx.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, nil, nil
		}
		return nil, nil, errors.Wrap(err, "reading multipart file")
	}
	src, err := hdr.Open()
	if err != nil {
		return nil, nil, errors.Wrap(err, "opening multipart file")
	}
	return &content.Upload{
		Name:        hdr.Filename,
		ContentType: hdr.Header.Get(echo.HeaderContentType),
		Size:        hdr.Size,
		Content:     src,
	}, src, nil
}

// Document handlers

func (api *contentApi) createDocument(ctx echo.Context) error {
	var data content.NewDocument
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewDocument")
	}
	if err := data.Validate(api.svc); err != nil {
		return err
	}

	file, src, err := bindUpload(ctx, "file")
	if err != nil {
		return err
	}
	if src != nil {
		defer func() { _ = src.Close() }()
	}

	actor, err := getContextActor(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	doc, err := api.svc.CreateDocument(ctx.Request().Context(), actor.User, data, file)
	if err != nil {
		return errors.Wrap(err, "creating document")
	}
	return ctx.JSON(http.StatusCreated, doc)
}

func (api *contentApi) queryDocuments(ctx echo.Context) error {
	filter := new(content.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []content.Document{})
	}

	docs, err := api.svc.FilterDocuments(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying documents")
	}
	if docs == nil {
		docs = []content.Document{}
	}
	return ctx.JSON(http.StatusOK, docs)
}

func (api *contentApi) retrieveDocument(ctx echo.Context) error {
	doc, err := api.svc.GetDocument(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding document")
	}
	return ctx.JSON(http.StatusOK, doc)
}

func (api *contentApi) updateDocument(ctx echo.Context) error {
	doc, err := api.svc.GetDocument(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding document")
	}

	var data UpdateDocumentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateDocumentRequest")
	}
	if data.Title != "" {
		doc.Title = data.Title
	}
	if data.Description != "" {
		doc.Description = data.Description
	}
	if data.CategoryID != "" {
		doc.CategoryID = data.CategoryID
	}

	actor, err := getContextActor(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	doc, err = api.svc.UpdateDocument(ctx.Request().Context(), actor.User, doc)
	if err != nil {
		return errors.Wrap(err, "updating document")
	}
	return ctx.JSON(http.StatusOK, doc)
}

// destroyDocument soft-deletes the document; `?force=true` purges a trashed
// one permanently.
func (api *contentApi) destroyDocument(ctx echo.Context) error {
	actor, err := getContextActor(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	if ctx.QueryParam("force") == "true" {
		if !actor.Can(user.ActionForceDelete, user.ResDocument) {
			return errHttpForbidden
		}
		if err := api.svc.PurgeDocument(ctx.Request().Context(), actor.User, ctx.Param("id")); err != nil {
			return errors.Wrap(err, "purging document")
		}
		return ctx.NoContent(http.StatusNoContent)
	}

	if _, err := api.svc.TrashDocument(ctx.Request().Context(), actor.User, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "trashing document")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *contentApi) restoreDocument(ctx echo.Context) error {
	actor, err := getContextActor(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	doc, err := api.svc.RestoreDocument(ctx.Request().Context(), actor.User, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "restoring document")
	}
	return ctx.JSON(http.StatusOK, doc)
}

func (api *contentApi) queryDocumentConsents(ctx echo.Context) error {
	consents, err := api.svc.QueryConsents(ctx.Request().Context(), ctx.Param("id"), "")
	if err != nil {
		return errors.Wrap(err, "querying consents")
	}
	if consents == nil {
		consents = []content.MediaConsent{}
	}
	return ctx.JSON(http.StatusOK, consents)
}

func (api *contentApi) addDocumentConsent(ctx echo.Context) error {
	var data ConsentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ConsentRequest")
	}

	nc := content.NewConsent{DocumentID: ctx.Param("id"), PersonName: data.PersonName}
	if err := nc.Validate(); err != nil {
		return err
	}

	consent, err := api.svc.AddConsent(ctx.Request().Context(), nc)
	if err != nil {
		return errors.Wrap(err, "adding consent")
	}
	return ctx.JSON(http.StatusCreated, consent)
}

// News handlers

func (api *contentApi) createNewsPost(ctx echo.Context) error {
	var data content.NewNewsPost
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewNewsPost")
	}
	if err := data.Validate(api.svc); err != nil {
		return err
	}

	cover, src, err := bindUpload(ctx, "cover")
	if err != nil {
		return err
	}
	if src != nil {
		defer func() { _ = src.Close() }()
	}

	actor, err := getContextActor(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	post, err := api.svc.CreateNewsPost(ctx.Request().Context(), actor.User, data, cover)
	if err != nil {
		return errors.Wrap(err, "creating news post")
	}
	return ctx.JSON(http.StatusCreated, post)
}

func (api *contentApi) queryNews(ctx echo.Context) error {
	filter := new(content.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []content.NewsPost{})
	}

	posts, err := api.svc.FilterNewsPosts(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying news posts")
	}
	if posts == nil {
		posts = []content.NewsPost{}
	}
	return ctx.JSON(http.StatusOK, posts)
}

func (api *contentApi) retrieveNewsPost(ctx echo.Context) error {
	post, err := api.svc.GetNewsPost(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding news post")
	}
	return ctx.JSON(http.StatusOK, post)
}

func (api *contentApi) updateNewsPost(ctx echo.Context) error {
	post, err := api.svc.GetNewsPost(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding news post")
	}

	var data UpdateNewsPostRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateNewsPostRequest")
	}
	if data.Title != "" {
		post.Title = data.Title
	}
	if data.Summary != "" {
		post.Summary = data.Summary
	}
	if data.Body != "" {
		post.Body = data.Body
	}
	if !data.PublishedAt.IsZero() {
		post.PublishedAt = null.TimeFrom(data.PublishedAt)
	}

	actor, err := getContextActor(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	post, err = api.svc.UpdateNewsPost(ctx.Request().Context(), actor.User, post)
	if err != nil {
		return errors.Wrap(err, "updating news post")
	}
	return ctx.JSON(http.StatusOK, post)
}

func (api *contentApi) destroyNewsPost(ctx echo.Context) error {
	actor, err := getContextActor(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	if ctx.QueryParam("force") == "true" {
		if !actor.Can(user.ActionForceDelete, user.ResNews) {
			return errHttpForbidden
		}
		if err := api.svc.PurgeNewsPost(ctx.Request().Context(), actor.User, ctx.Param("id")); err != nil {
			return errors.Wrap(err, "purging news post")
		}
		return ctx.NoContent(http.StatusNoContent)
	}

	if _, err := api.svc.TrashNewsPost(ctx.Request().Context(), actor.User, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "trashing news post")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *contentApi) restoreNewsPost(ctx echo.Context) error {
	actor, err := getContextActor(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	post, err := api.svc.RestoreNewsPost(ctx.Request().Context(), actor.User, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "restoring news post")
	}
	return ctx.JSON(http.StatusOK, post)
}

func (api *contentApi) queryNewsConsents(ctx echo.Context) error {
	consents, err := api.svc.QueryConsents(ctx.Request().Context(), "", ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying consents")
	}
	if consents == nil {
		consents = []content.MediaConsent{}
	}
	return ctx.JSON(http.StatusOK, consents)
}

func (api *contentApi) addNewsConsent(ctx echo.Context) error {
	var data ConsentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ConsentRequest")
	}

	nc := content.NewConsent{NewsPostID: ctx.Param("id"), PersonName: data.PersonName}
	if err := nc.Validate(); err != nil {
		return err
	}

	consent, err := api.svc.AddConsent(ctx.Request().Context(), nc)
	if err != nil {
		return errors.Wrap(err, "adding consent")
	}
	return ctx.JSON(http.StatusCreated, consent)
}

// Event handlers

func (api *contentApi) createEvent(ctx echo.Context) error {
	var data content.NewEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEvent")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	actor, err := getContextActor(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	event, err := api.svc.CreateEvent(ctx.Request().Context(), actor.User, data)
	if err != nil {
		return errors.Wrap(err, "creating event")
	}
	return ctx.JSON(http.StatusCreated, event)
}

func (api *contentApi) queryEvents(ctx echo.Context) error {
	filter := new(content.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []content.ErasmusEvent{})
	}

	events, err := api.svc.FilterEvents(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying events")
	}
	if events == nil {
		events = []content.ErasmusEvent{}
	}
	return ctx.JSON(http.StatusOK, events)
}

func (api *contentApi) retrieveEvent(ctx echo.Context) error {
	event, err := api.svc.GetEvent(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding event")
	}
	return ctx.JSON(http.StatusOK, event)
}

func (api *contentApi) destroyEvent(ctx echo.Context) error {
	actor, err := getContextActor(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	if ctx.QueryParam("force") == "true" {
		if !actor.Can(user.ActionForceDelete, user.ResEvent) {
			return errHttpForbidden
		}
		if err := api.svc.PurgeEvent(ctx.Request().Context(), actor.User, ctx.Param("id")); err != nil {
			return errors.Wrap(err, "purging event")
		}
		return ctx.NoContent(http.StatusNoContent)
	}

	if _, err := api.svc.TrashEvent(ctx.Request().Context(), actor.User, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "trashing event")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *contentApi) restoreEvent(ctx echo.Context) error {
	actor, err := getContextActor(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	event, err := api.svc.RestoreEvent(ctx.Request().Context(), actor.User, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "restoring event")
	}
	return ctx.JSON(http.StatusOK, event)
}

// Newsletter handlers

func (api *contentApi) subscribe(ctx echo.Context) error {
	var data SubscriptionRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SubscriptionRequest")
	}

	sub, err := api.svc.Subscribe(ctx.Request().Context(), data.Email)
	if err != nil {
		return errors.Wrap(err, "subscribing")
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *contentApi) confirmSubscription(ctx echo.Context) error {
	var data SubscriptionRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SubscriptionRequest")
	}

	sub, err := api.svc.ConfirmSubscription(ctx.Request().Context(), data.Email)
	if err != nil {
		return errors.Wrap(err, "confirming subscription")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *contentApi) unsubscribe(ctx echo.Context) error {
	var data SubscriptionRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SubscriptionRequest")
	}

	if _, err := api.svc.Unsubscribe(ctx.Request().Context(), data.Email); err != nil {
		return errors.Wrap(err, "unsubscribing")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "You have been unsubscribed from the newsletter."})
}

func (api *contentApi) querySubscriptions(ctx echo.Context) error {
	subs, err := api.svc.QuerySubscriptions(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying subscriptions")
	}
	if subs == nil {
		subs = []content.NewsletterSubscription{}
	}
	return ctx.JSON(http.StatusOK, subs)
}

type (
	UpdateDocumentRequest struct {
		CategoryID  string `json:"category_id" form:"category_id"`
		Title       string `json:"title" form:"title"`
		Description string `json:"description" form:"description"`
	}

	UpdateNewsPostRequest struct {
		Title       string    `json:"title" form:"title"`
		Summary     string    `json:"summary" form:"summary"`
		Body        string    `json:"body" form:"body"`
		PublishedAt time.Time `json:"published_at" form:"published_at"`
	}

	ConsentRequest struct {
		PersonName string `json:"person_name"`
	}

	SubscriptionRequest struct {
		Email string `json:"email"`
	}
)
