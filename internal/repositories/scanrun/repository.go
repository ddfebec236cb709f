package scanrun

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

var columns = []string{
	"id", "tenant_id", "status", "contact_count", "group_count",
	"groups", "stats", "started_at", "completed_at", "created_at",
}

type runRow struct {
	ID           string          `db:"id"`
	TenantID     string          `db:"tenant_id"`
	Status       string          `db:"status"`
	ContactCount int             `db:"contact_count"`
	GroupCount   int             `db:"group_count"`
	Groups       json.RawMessage `db:"groups"`
	Stats        json.RawMessage `db:"stats"`
	StartedAt    time.Time       `db:"started_at"`
	CompletedAt  *time.Time      `db:"completed_at"`
	CreatedAt    time.Time       `db:"created_at"`
}

// Repository persists detection runs and their results
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new scan run repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create records the start of a detection run
func (r *Repository) Create(ctx context.Context, run *models.DetectionRun) error {
	ctx, span := tracing.StartSpan(ctx, "scanrun.Repository.Create")
	defer span.End()

	now := time.Now().UTC()
	run.CreatedAt = now
	if run.StartedAt.IsZero() {
		run.StartedAt = now
	}
	run.Status = models.RunStatusRunning

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("detection_runs")
	sb.Cols("id", "tenant_id", "status", "contact_count", "group_count", "groups", "stats", "started_at", "created_at")
	sb.Values(run.ID, run.TenantID, run.Status, 0, 0, json.RawMessage("[]"), json.RawMessage("{}"), run.StartedAt, run.CreatedAt)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"tenant_id": run.TenantID, "run_id": run.ID}).Error("Failed to create detection run")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create detection run")
	}
	return nil
}

// Complete stores a finished run's groups and stats
func (r *Repository) Complete(ctx context.Context, result *models.DuplicateScanResult) error {
	ctx, span := tracing.StartSpan(ctx, "scanrun.Repository.Complete")
	defer span.End()

	groups, err := json.Marshal(result.Groups)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to encode scan groups")
	}
	statsData, err := json.Marshal(result.Stats)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to encode scan stats")
	}

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("detection_runs")
	sb.Set(
		sb.Assign("status", models.RunStatusCompleted),
		sb.Assign("contact_count", result.ContactCount),
		sb.Assign("group_count", len(result.Groups)),
		sb.Assign("groups", groups),
		sb.Assign("stats", statsData),
		sb.Assign("completed_at", result.CompletedAt),
	)
	sb.Where(sb.Equal("id", result.RunID), sb.Equal("tenant_id", result.TenantID))

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"tenant_id": result.TenantID, "run_id": result.RunID}).Error("Failed to complete detection run")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to complete detection run")
	}
	return nil
}

// Fail marks a run as failed
func (r *Repository) Fail(ctx context.Context, tenantID, runID string) error {
	ctx, span := tracing.StartSpan(ctx, "scanrun.Repository.Fail")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("detection_runs")
	sb.Set(
		sb.Assign("status", models.RunStatusFailed),
		sb.Assign("completed_at", time.Now().UTC()),
	)
	sb.Where(sb.Equal("id", runID), sb.Equal("tenant_id", tenantID))

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"tenant_id": tenantID, "run_id": runID}).Error("Failed to mark detection run failed")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update detection run")
	}
	return nil
}

// GetLatestResult returns the most recent completed run's full result, or
// (nil, nil) when the tenant has never completed a scan.
func (r *Repository) GetLatestResult(ctx context.Context, tenantID string) (*models.DuplicateScanResult, error) {
	ctx, span := tracing.StartSpan(ctx, "scanrun.Repository.GetLatestResult")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("detection_runs")
	sb.Where(sb.Equal("tenant_id", tenantID), sb.Equal("status", models.RunStatusCompleted))
	sb.OrderBy("completed_at DESC")
	sb.Limit(1)

	query, args := sb.Build()
	var row runRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"tenant_id": tenantID}).Error("Failed to get latest detection run")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get latest detection run")
	}

	return rowToResult(&row)
}

// GetRun returns run metadata by ID
func (r *Repository) GetRun(ctx context.Context, tenantID, runID string) (*models.DetectionRun, error) {
	ctx, span := tracing.StartSpan(ctx, "scanrun.Repository.GetRun")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "tenant_id", "status", "contact_count", "group_count", "started_at", "completed_at", "created_at")
	sb.From("detection_runs")
	sb.Where(sb.Equal("id", runID), sb.Equal("tenant_id", tenantID))

	query, args := sb.Build()
	var run models.DetectionRun
	if err := r.db.GetContext(ctx, &run, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "detection run %s not found", runID)
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"tenant_id": tenantID, "run_id": runID}).Error("Failed to get detection run")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get detection run")
	}
	return &run, nil
}

func rowToResult(row *runRow) (*models.DuplicateScanResult, error) {
	result := &models.DuplicateScanResult{
		RunID:        row.ID,
		TenantID:     row.TenantID,
		ContactCount: row.ContactCount,
		StartedAt:    row.StartedAt,
	}
	if row.CompletedAt != nil {
		result.CompletedAt = *row.CompletedAt
	}
	if len(row.Groups) > 0 {
		if err := json.Unmarshal(row.Groups, &result.Groups); err != nil {
			return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to decode scan groups")
		}
	}
	if len(row.Stats) > 0 {
		if err := json.Unmarshal(row.Stats, &result.Stats); err != nil {
			return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to decode scan stats")
		}
	}
	return result, nil
}
