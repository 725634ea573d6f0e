package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/lusambya/kazi/core/activity"
)

type activityApi struct {
	svc activity.Service
}

func registerActivityAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc activity.Service) {
	api := activityApi{svc: svc}

	ag := g.Group("/activities", jwt)
	ag.GET("", api.query)
	ag.POST("", api.create)
	ag.GET("/:id", api.retrieve)
	ag.PUT("/:id", api.update)
	ag.DELETE("/:id", api.destroy)
	ag.POST("/:id/realization", api.setRealization)
	ag.POST("/:id/reject", api.rejectPlan)
}

func (api *activityApi) query(ctx echo.Context) error {
	actorID, _, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	periodID, _ := strconv.Atoi(ctx.QueryParam("period"))

	activities, err := api.svc.QueryByOwner(actorID, periodID)
	if err != nil {
		return errors.Wrap(err, "querying activities")
	}
	if activities == nil {
		activities = []activity.Activity{}
	}
	return ctx.JSON(http.StatusOK, activities)
}

func (api *activityApi) create(ctx echo.Context) error {
	var data activity.NewActivity
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewActivity")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	actorID, _, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	a, err := api.svc.Create(data, actorID)
	if err != nil {
		return errors.Wrap(err, "creating activity")
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *activityApi) retrieve(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}
	a, err := api.svc.GetByID(id)
	if err != nil {
		return errors.Wrap(err, "getting activity")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *activityApi) update(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}

	var data activity.UpdateActivity
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateActivity")
	}
	if err = data.Validate(); err != nil {
		return err
	}

	actorID, _, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	a, err := api.svc.Update(id, data, actorID)
	if err != nil {
		return errors.Wrap(err, "updating activity")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *activityApi) destroy(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}
	actorID, role, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(id, actorID, role); err != nil {
		return errors.Wrap(err, "deleting activity")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *activityApi) setRealization(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}

	var data RealizationRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RealizationRequest")
	}

	actorID, _, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	a, err := api.svc.SetRealization(id, data.State, actorID)
	if err != nil {
		return errors.Wrap(err, "setting realization state")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *activityApi) rejectPlan(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}
	_, role, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	a, err := api.svc.RejectPlan(id, role)
	if err != nil {
		return errors.Wrap(err, "rejecting activity plan")
	}
	return ctx.JSON(http.StatusOK, a)
}

type RealizationRequest struct {
	State activity.RealizationState `json:"state" validate:"required"`
}
