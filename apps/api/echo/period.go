package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/lusambya/kazi/core/period"
	"github.com/lusambya/kazi/core/staff"
)

type periodApi struct {
	svc period.Service
}

func registerPeriodAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc period.Service) {
	api := periodApi{svc: svc}

	pg := g.Group("/periods", jwt)
	pg.GET("", api.query)
	pg.GET("/active", api.retrieveActive)
	pg.GET("/:id", api.retrieve)

	mg := pg.Group("", capabilityMiddleware(staff.CapManagePeriods))
	mg.POST("", api.create)
	mg.POST("/:id/activate", api.activate)
	mg.POST("/:id/deactivate", api.deactivate)
}

func (api *periodApi) query(ctx echo.Context) error {
	periods, err := api.svc.QueryAll()
	if err != nil {
		return errors.Wrap(err, "querying periods")
	}
	if periods == nil {
		periods = []period.AcademicPeriod{}
	}
	return ctx.JSON(http.StatusOK, periods)
}

func (api *periodApi) retrieveActive(ctx echo.Context) error {
	p, err := api.svc.GetActivePeriod()
	if err != nil {
		return errors.Wrap(err, "getting active period")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *periodApi) retrieve(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}
	p, err := api.svc.GetByID(id)
	if err != nil {
		return errors.Wrap(err, "getting period")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *periodApi) create(ctx echo.Context) error {
	var data period.NewPeriod
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPeriod")
	}
	if err := data.Validate(api.svc); err != nil {
		return err
	}

	p, err := api.svc.Create(data)
	if err != nil {
		return errors.Wrap(err, "creating period")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *periodApi) activate(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}
	p, err := api.svc.Activate(id)
	if err != nil {
		return errors.Wrap(err, "activating period")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *periodApi) deactivate(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}
	p, err := api.svc.Deactivate(id)
	if err != nil {
		return errors.Wrap(err, "deactivating period")
	}
	return ctx.JSON(http.StatusOK, p)
}
