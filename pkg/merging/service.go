package merging

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/internal/repositories/contact"
	"github.com/Ramsey-B/fern/pkg/detection"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Service coordinates merge planning and execution against the contact
// snapshot store.
type Service struct {
	logger      ectologger.Logger
	contactRepo *contact.Repository
	emitter     *events.Emitter
	detection   *detection.Service
}

// NewService creates a new merge service. detection may be nil in tests;
// when set, every executed merge queues a rescan so the duplicate view
// catches up with the consolidation.
func NewService(
	logger ectologger.Logger,
	contactRepo *contact.Repository,
	emitter *events.Emitter,
	detectionService *detection.Service,
) *Service {
	return &Service{
		logger:      logger,
		contactRepo: contactRepo,
		emitter:     emitter,
		detection:   detectionService,
	}
}

// Plan builds the default merge plan for an explicit set of contacts.
func (s *Service) Plan(ctx context.Context, tenantID string, contactIDs []string) (*models.MergePlan, error) {
	ctx, span := tracing.StartSpan(ctx, "merging.Service.Plan")
	defer span.End()

	contacts, err := s.contactRepo.GetByIDs(ctx, tenantID, contactIDs)
	if err != nil {
		return nil, err
	}
	if len(contacts) < 2 {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "merge plan requires at least two existing contacts")
	}

	group := &models.DuplicateGroup{Members: contacts}
	plan := NewPlan(group)
	return &plan, nil
}

// Execute consolidates contacts under the given configuration: it builds
// the merged record, atomically replaces the destination and soft-deletes
// the sources, emits a contact.merged event, and queues a rescan.
func (s *Service) Execute(ctx context.Context, tenantID string, cfg models.MergeConfiguration) (*models.MergeResult, error) {
	ctx, span := tracing.StartSpan(ctx, "merging.Service.Execute")
	defer span.End()

	log := s.logger.WithContext(ctx).WithFields(map[string]any{
		"tenant_id":  tenantID,
		"primary_id": cfg.PrimaryContactID,
	})

	destination, err := s.contactRepo.Get(ctx, tenantID, cfg.PrimaryContactID)
	if err != nil {
		return nil, err
	}

	sources, err := s.contactRepo.GetByIDs(ctx, tenantID, cfg.SourceContactIDs)
	if err != nil {
		return nil, err
	}
	if len(sources) != len(cfg.SourceContactIDs) {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "one or more source contacts do not exist")
	}
	for _, src := range sources {
		if src.ID == destination.ID {
			return nil, httperror.NewHTTPError(http.StatusBadRequest, "primary contact cannot be one of its own sources")
		}
	}

	merged := MergedContact(cfg, *destination, sources)

	applied, err := s.contactRepo.ApplyMerge(ctx, tenantID, &merged, cfg.SourceContactIDs)
	if err != nil {
		metrics.MergesTotal.WithLabelValues(tenantID, "failed").Inc()
		return nil, err
	}

	if s.emitter != nil {
		if err := s.emitter.EmitContactsMerged(ctx, applied, cfg.SourceContactIDs); err != nil {
			log.WithError(err).Warn("Failed to emit contact merged event")
		}
	}

	metrics.MergesTotal.WithLabelValues(tenantID, "success").Inc()
	metrics.ContactsMerged.WithLabelValues(tenantID).Add(float64(len(cfg.SourceContactIDs)))

	if s.detection != nil {
		if _, err := s.detection.EnqueueScan(ctx, tenantID); err != nil {
			log.WithError(err).Warn("Failed to queue rescan after merge")
		}
	}

	log.WithFields(map[string]any{"source_count": len(cfg.SourceContactIDs)}).Info("Merged contacts")

	return &models.MergeResult{
		Merged:            *applied,
		RemovedContactIDs: cfg.SourceContactIDs,
	}, nil
}
