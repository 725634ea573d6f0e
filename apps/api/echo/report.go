package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/lusambya/kazi/core/report"
	"github.com/lusambya/kazi/core/staff"
)

type reportApi struct {
	svc report.Service
}

func registerReportAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc report.Service) {
	api := reportApi{svc: svc}

	rg := g.Group("/reports", jwt)
	rg.GET("", api.query)
	rg.POST("", api.create)
	rg.GET("/:id", api.retrieve)
	rg.PUT("/:id", api.update)
	rg.DELETE("/:id", api.destroy)
	rg.POST("/:id/transition", api.transition)
	rg.GET("/:id/audit", api.auditTrail)
	rg.POST("/:id/attachments", api.addAttachment)
	rg.DELETE("/:id/attachments/:ref", api.removeAttachment)

	// reviewer listing across a period
	rg.GET("/period/:periodID", api.queryByPeriod, capabilityMiddleware(staff.CapReviewReports))
}

func (api *reportApi) query(ctx echo.Context) error {
	actorID, _, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	reports, err := api.svc.QueryByOwner(actorID)
	if err != nil {
		return errors.Wrap(err, "querying reports")
	}
	if reports == nil {
		reports = []report.Report{}
	}
	return ctx.JSON(http.StatusOK, reports)
}

func (api *reportApi) queryByPeriod(ctx echo.Context) error {
	periodID, err := strconv.Atoi(ctx.Param("periodID"))
	if err != nil {
		return errHttpNotFound
	}
	reports, err := api.svc.QueryByPeriod(periodID)
	if err != nil {
		return errors.Wrap(err, "querying reports by period")
	}
	if reports == nil {
		reports = []report.Report{}
	}
	return ctx.JSON(http.StatusOK, reports)
}

func (api *reportApi) create(ctx echo.Context) error {
	var data report.NewReport
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewReport")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	actorID, _, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	r, err := api.svc.Create(data, actorID)
	if err != nil {
		return errors.Wrap(err, "creating report")
	}
	return ctx.JSON(http.StatusCreated, r)
}

func (api *reportApi) retrieve(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}
	r, err := api.svc.GetByID(id)
	if err != nil {
		return errors.Wrap(err, "getting report")
	}

	// owners see their own reports; anyone else needs the review capability
	actorID, role, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	if r.OwnerID != actorID && !role.Can(staff.CapReviewReports) {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, r)
}

func (api *reportApi) update(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}

	var data report.UpdateReport
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateReport")
	}
	if err = data.Validate(); err != nil {
		return err
	}

	actorID, _, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	r, err := api.svc.Update(id, data, actorID)
	if err != nil {
		return errors.Wrap(err, "updating report")
	}
	return ctx.JSON(http.StatusOK, r)
}

func (api *reportApi) transition(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}

	var data report.TransitionRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TransitionRequest")
	}
	if err = data.Validate(); err != nil {
		return err
	}

	actorID, role, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	res, err := api.svc.ApplyTransition(id, data, actorID, role)
	if err != nil {
		return errors.Wrap(err, "applying transition")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *reportApi) auditTrail(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}

	r, err := api.svc.GetByID(id)
	if err != nil {
		return errors.Wrap(err, "getting report")
	}
	actorID, role, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	if r.OwnerID != actorID && !role.Can(staff.CapReviewReports) {
		return errHttpNotFound
	}

	trail, err := api.svc.AuditTrail(id)
	if err != nil {
		return errors.Wrap(err, "querying audit trail")
	}
	if trail == nil {
		trail = []report.AuditEntry{}
	}
	return ctx.JSON(http.StatusOK, trail)
}

func (api *reportApi) addAttachment(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}

	var data report.AttachmentRef
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AttachmentRef")
	}

	actorID, _, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	r, err := api.svc.AddAttachment(id, data, actorID)
	if err != nil {
		return errors.Wrap(err, "adding attachment")
	}
	return ctx.JSON(http.StatusOK, r)
}

func (api *reportApi) removeAttachment(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}

	actorID, _, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	r, err := api.svc.RemoveAttachment(id, ctx.Param("ref"), actorID)
	if err != nil {
		return errors.Wrap(err, "removing attachment")
	}
	return ctx.JSON(http.StatusOK, r)
}

func (api *reportApi) destroy(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}
	actorID, role, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(id, actorID, role); err != nil {
		return errors.Wrap(err, "deleting report")
	}
	return ctx.NoContent(http.StatusNoContent)
}
