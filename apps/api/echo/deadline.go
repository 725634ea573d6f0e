package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/lusambya/kazi/core"
	"github.com/lusambya/kazi/core/deadline"
)

type deadlineApi struct {
	svc deadline.Service
}

func registerDeadlineAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc deadline.Service) {
	api := deadlineApi{svc: svc}

	dg := g.Group("/deadlines", jwt)
	dg.GET("", api.query)
	dg.GET("/upcoming", api.queryUpcoming)
	dg.GET("/:id", api.retrieve)

	// writes are capability-gated in the service
	dg.POST("", api.create)
	dg.PUT("/:id", api.update)
	dg.DELETE("/:id", api.destroy)
	dg.POST("/:id/toggle-active", api.toggleActive)
}

func (api *deadlineApi) query(ctx echo.Context) error {
	periodID, err := strconv.Atoi(ctx.QueryParam("period"))
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "period", Error: "a period id is required"})
	}
	deadlines, err := api.svc.QueryByPeriod(periodID)
	if err != nil {
		return errors.Wrap(err, "querying deadlines")
	}
	if deadlines == nil {
		deadlines = []deadline.Deadline{}
	}
	return ctx.JSON(http.StatusOK, deadlines)
}

func (api *deadlineApi) queryUpcoming(ctx echo.Context) error {
	periodID, err := strconv.Atoi(ctx.QueryParam("period"))
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "period", Error: "a period id is required"})
	}
	withinDays := core.Conf.DeadlineReminderDays
	if days, err := strconv.Atoi(ctx.QueryParam("within_days")); err == nil && days > 0 {
		withinDays = days
	}

	deadlines, err := api.svc.Upcoming(periodID, withinDays)
	if err != nil {
		return errors.Wrap(err, "querying upcoming deadlines")
	}
	return ctx.JSON(http.StatusOK, deadlines)
}

func (api *deadlineApi) retrieve(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}
	d, err := api.svc.GetByID(id)
	if err != nil {
		return errors.Wrap(err, "getting deadline")
	}
	return ctx.JSON(http.StatusOK, d)
}

func (api *deadlineApi) create(ctx echo.Context) error {
	var data deadline.NewDeadline
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewDeadline")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	_, role, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	d, err := api.svc.Create(data, role)
	if err != nil {
		return errors.Wrap(err, "creating deadline")
	}
	return ctx.JSON(http.StatusCreated, d)
}

func (api *deadlineApi) update(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}

	var data deadline.UpdateDeadline
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateDeadline")
	}
	if err = data.Validate(); err != nil {
		return err
	}

	_, role, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	d, err := api.svc.Update(id, data, role)
	if err != nil {
		return errors.Wrap(err, "updating deadline")
	}
	return ctx.JSON(http.StatusOK, d)
}

func (api *deadlineApi) destroy(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}
	_, role, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(id, role); err != nil {
		return errors.Wrap(err, "deleting deadline")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *deadlineApi) toggleActive(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}
	_, role, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	d, err := api.svc.ToggleActive(id, role)
	if err != nil {
		return errors.Wrap(err, "toggling deadline")
	}
	return ctx.JSON(http.StatusOK, d)
}
