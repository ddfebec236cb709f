package duplicate

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/detection"
	"github.com/Ramsey-B/fern/pkg/graph"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Register registers duplicate detection routes
func Register(g *echo.Group) {
	g.POST("/scan", RequestScan)
	g.GET("", GetLatestScan)
	g.GET("/stats", GetStats)
	g.GET("/graph/:id", GetNeighborhood)
}

// RequestScan queues a full duplicate scan for the tenant
func RequestScan(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "duplicate.RequestScan")
	defer span.End()

	tenantID := context.GetTenantID(ctx)

	ctx, svc, err := ectoinject.GetContext[*detection.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	run, err := svc.EnqueueScan(ctx, tenantID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusAccepted, models.ScanAcceptedResponse{
		RunID:  run.ID,
		Status: run.Status,
	})
}

// GetLatestScan returns the most recent completed scan result
func GetLatestScan(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := context.GetTenantID(ctx)

	ctx, svc, err := ectoinject.GetContext[*detection.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	result, err := svc.LatestResult(ctx, tenantID)
	if err != nil {
		return err
	}
	if result == nil {
		return httperror.NewHTTPError(http.StatusNotFound, "no completed scan for tenant")
	}

	return c.JSON(http.StatusOK, result)
}

// GetStats returns quality statistics from the most recent completed scan
func GetStats(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := context.GetTenantID(ctx)

	ctx, svc, err := ectoinject.GetContext[*detection.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	result, err := svc.LatestResult(ctx, tenantID)
	if err != nil {
		return err
	}
	if result == nil {
		return httperror.NewHTTPError(http.StatusNotFound, "no completed scan for tenant")
	}

	return c.JSON(http.StatusOK, result.Stats)
}

// GetNeighborhood returns a contact's duplicate neighborhood from the graph
// projection. 503 when the graph database is disabled.
func GetNeighborhood(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "duplicate.GetNeighborhood")
	defer span.End()

	tenantID := context.GetTenantID(ctx)
	id := c.Param("id")

	ctx, svc, err := ectoinject.GetContext[*graph.ContactService](ctx)
	if err != nil || svc == nil {
		return httperror.NewHTTPError(http.StatusServiceUnavailable, "graph service unavailable")
	}

	neighbors, err := svc.GetDuplicateNeighborhood(ctx, tenantID, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, neighbors)
}
