package merge

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/merging"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
	"github.com/Ramsey-B/fern/pkg/utils"
)

// Register registers merge routes
func Register(g *echo.Group) {
	g.POST("/plan", PlanMerge)
	g.POST("", ExecuteMerge)
}

// PlanMerge builds a merge proposal for an explicit set of contacts
func PlanMerge(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "merge.PlanMerge")
	defer span.End()

	tenantID := context.GetTenantID(ctx)

	req, err := utils.BindRequest[models.PlanMergeRequest](c)
	if err != nil {
		return err
	}

	ctx, svc, err := ectoinject.GetContext[*merging.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	plan, err := svc.Plan(ctx, tenantID, req.ContactIDs)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, plan)
}

// ExecuteMerge merges the configured source contacts into the primary
func ExecuteMerge(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "merge.ExecuteMerge")
	defer span.End()

	tenantID := context.GetTenantID(ctx)

	req, err := utils.BindRequest[models.ExecuteMergeRequest](c)
	if err != nil {
		return err
	}

	ctx, svc, err := ectoinject.GetContext[*merging.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	result, err := svc.Execute(ctx, tenantID, req.Configuration)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}
