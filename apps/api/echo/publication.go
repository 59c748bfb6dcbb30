package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/vidwanic/backend/core/catalog"
	"github.com/vidwanic/backend/core/user"
)

type publicationApi struct {
	svc      *catalog.Service
	userSvc  *user.Service
	validate *validator.Validate
}

func registerPublicationAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *catalog.Service,
	userSvc *user.Service,
	validate *validator.Validate,
) {
	api := publicationApi{
		svc:      svc,
		userSvc:  userSvc,
		validate: validate,
	}

	pg := g.Group("/publications")

	// public endpoints
	pg.GET("", api.query)
	pg.GET("/:id", api.retrieve)
	pg.GET("/:id/comments", api.queryComments)

	// authed endpoints
	pg.POST("/:id/comments", api.createComment, jwt)
	pg.POST("", api.create, jwt, adminMiddleware())
	pg.PUT("/:id", api.update, jwt, adminMiddleware())
	pg.DELETE("/:id", api.destroy, jwt, adminMiddleware())
}

// Handlers

func (api *publicationApi) query(ctx echo.Context) error {
	filter := new(catalog.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []catalog.Magazine{})
	}

	mags, err := api.svc.Filter(*filter)
	if err != nil {
		return errors.Wrap(err, "querying publications")
	}
	if mags == nil {
		mags = []catalog.Magazine{}
	}
	return ctx.JSON(http.StatusOK, mags)
}

func (api *publicationApi) retrieve(ctx echo.Context) error {
	mag, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, mag)
}

func (api *publicationApi) create(ctx echo.Context) error {
	var data catalog.NewMagazine
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMagazine")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	mag, err := api.svc.Create(data)
	if err != nil {
		return errors.Wrap(err, "creating publication")
	}
	return ctx.JSON(http.StatusCreated, mag)
}

func (api *publicationApi) update(ctx echo.Context) error {
	mag, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		return err
	}

	var data catalog.UpdateMagazine
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateMagazine")
	}
	if err := data.Validate(mag, api.validate); err != nil {
		return err
	}

	mag, err = api.svc.Update(mag.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating publication")
	}
	return ctx.JSON(http.StatusOK, mag)
}

func (api *publicationApi) destroy(ctx echo.Context) error {
	if _, err := api.svc.GetByID(ctx.Param("id")); err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting publication")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *publicationApi) queryComments(ctx echo.Context) error {
	cmts, err := api.svc.Comments(ctx.Param("id"))
	if err != nil {
		return err
	}
	if cmts == nil {
		cmts = []catalog.Comment{}
	}
	return ctx.JSON(http.StatusOK, cmts)
}

func (api *publicationApi) createComment(ctx echo.Context) error {
	var data catalog.NewComment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewComment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	cmt, err := api.svc.AddComment(ctx.Param("id"), ctxUsr.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, cmt)
}
