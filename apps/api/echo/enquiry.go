package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/vidwanic/backend/core/enquiry"
	"github.com/vidwanic/backend/core/user"
)

type enquiryApi struct {
	svc      *enquiry.Service
	userSvc  *user.Service
	validate *validator.Validate
}

func registerEnquiryAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *enquiry.Service,
	userSvc *user.Service,
	validate *validator.Validate,
) {
	api := enquiryApi{svc: svc, userSvc: userSvc, validate: validate}

	eg := g.Group("/enquiries", jwt)
	eg.POST("", api.create)

	// admin endpoints
	eg.GET("", api.query, adminMiddleware())
	eg.PUT("/:id/status", api.updateStatus, adminMiddleware())
}

// Handlers

func (api *enquiryApi) create(ctx echo.Context) error {
	var data enquiry.NewEnquiry
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEnquiry")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	enq, err := api.svc.Create(ctxUsr, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, enq)
}

func (api *enquiryApi) query(ctx echo.Context) error {
	filter := new(enquiry.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	filter.Clean()

	enqs, total, err := api.svc.Filter(*filter)
	if err != nil {
		return errors.Wrap(err, "querying enquiries")
	}
	if enqs == nil {
		enqs = []enquiry.Enquiry{}
	}

	res := EnquiryListResponse{Enquiries: enqs}
	res.Pagination.Total = total
	res.Pagination.Limit = filter.Limit
	res.Pagination.Offset = filter.Offset
	res.Pagination.HasMore = filter.Offset+len(enqs) < total
	return ctx.JSON(http.StatusOK, res)
}

func (api *enquiryApi) updateStatus(ctx echo.Context) error {
	var data enquiry.UpdateEnquiryStatus
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateEnquiryStatus")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	enq, err := api.svc.UpdateStatus(ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, enq)
}

type EnquiryListResponse struct {
	Enquiries  []enquiry.Enquiry `json:"enquiries"`
	Pagination struct {
		Total   int  `json:"total"`
		Limit   int  `json:"limit"`
		Offset  int  `json:"offset"`
		HasMore bool `json:"has_more"`
	} `json:"pagination"`
}
