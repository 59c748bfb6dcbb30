package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/vidwanic/backend/core/order"
	"github.com/vidwanic/backend/core/school"
	"github.com/vidwanic/backend/core/user"
)

type schoolApi struct {
	svc      *school.Service
	orderSvc *order.Service
	userSvc  *user.Service
	validate *validator.Validate
}

func registerSchoolAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *school.Service,
	orderSvc *order.Service,
	userSvc *user.Service,
	validate *validator.Validate,
) {
	api := schoolApi{
		svc:      svc,
		orderSvc: orderSvc,
		userSvc:  userSvc,
		validate: validate,
	}

	sg := g.Group("/schools", jwt)
	sg.POST("/onboard", api.onboard)
	sg.GET("/me", api.dashboard)

	// admin endpoints
	sg.GET("", api.query, adminMiddleware())
	sg.POST("/verify", api.verify, adminMiddleware())
}

// Handlers

func (api *schoolApi) onboard(ctx echo.Context) error {
	var data school.NewSchoolProfile
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSchoolProfile")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	sp, err := api.svc.Onboard(ctxUsr.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sp)
}

// dashboard returns the caller's school view with its order history attached.
func (api *schoolApi) dashboard(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	dash, err := api.svc.Dashboard(claims.Subject)
	if err != nil {
		return err
	}

	orders, err := api.orderSvc.QueryBySchool(dash.Profile.ID)
	if err != nil {
		return errors.Wrap(err, "querying school orders")
	}

	res := DashboardResponse{Dashboard: dash, OrdersCount: len(orders)}
	for _, ord := range orders {
		for _, item := range ord.Items {
			res.TotalMagazinesOrdered += item.Quantity
		}
	}
	if len(orders) > 5 {
		orders = orders[:5]
	}
	if orders == nil {
		orders = []order.Order{}
	}
	res.RecentOrders = orders
	return ctx.JSON(http.StatusOK, res)
}

func (api *schoolApi) query(ctx echo.Context) error {
	filter := new(school.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []school.SchoolProfile{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	profiles, err := api.svc.Filter(*filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying school profiles")
	}
	if profiles == nil {
		profiles = []school.SchoolProfile{}
	}
	return ctx.JSON(http.StatusOK, profiles)
}

func (api *schoolApi) verify(ctx echo.Context) error {
	var data school.VerifySchool
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to VerifySchool")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	actor := ctxUsr.Name
	if actor == "" {
		actor = ctxUsr.Email
	}

	sp, err := api.svc.Verify(data, actor)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sp)
}

type DashboardResponse struct {
	school.Dashboard
	RecentOrders          []order.Order `json:"recent_orders"`
	OrdersCount           int           `json:"orders_count"`
	TotalMagazinesOrdered int           `json:"total_magazines_ordered"`
}
