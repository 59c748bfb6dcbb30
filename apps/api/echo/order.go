package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/vidwanic/backend/core/order"
	"github.com/vidwanic/backend/core/school"
)

type orderApi struct {
	svc       *order.Service
	schoolSvc *school.Service
	validate  *validator.Validate
}

func registerOrderAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *order.Service,
	schoolSvc *school.Service,
	validate *validator.Validate,
) {
	api := orderApi{svc: svc, schoolSvc: schoolSvc, validate: validate}

	og := g.Group("/schools/orders", jwt)
	og.POST("", api.create)
	og.GET("", api.query)
	og.GET("/:id", api.retrieve)
}

// Handlers

func (api *orderApi) create(ctx echo.Context) error {
	var data order.NewOrder
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewOrder")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	ord, err := api.svc.Create(claims.Subject, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, ord)
}

func (api *orderApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	sp, err := api.schoolSvc.GetByUser(claims.Subject)
	if err != nil {
		return err
	}

	orders, err := api.svc.QueryBySchool(sp.ID)
	if err != nil {
		return errors.Wrap(err, "querying school orders")
	}
	if orders == nil {
		orders = []order.Order{}
	}
	return ctx.JSON(http.StatusOK, orders)
}

func (api *orderApi) retrieve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	ord, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		return err
	}

	// only the owning school or an admin may see an order
	if !claims.IsAdmin {
		sp, err := api.schoolSvc.GetByUser(claims.Subject)
		if err != nil || sp.ID != ord.SchoolID {
			return errHttpNotFound
		}
	}
	return ctx.JSON(http.StatusOK, ord)
}
