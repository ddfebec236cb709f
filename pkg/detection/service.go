package detection

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/fern/internal/repositories/contact"
	"github.com/Ramsey-B/fern/internal/repositories/scanrun"
	"github.com/Ramsey-B/fern/pkg/cache"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/graph"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/stats"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

type scanJob struct {
	tenantID string
	runID    string
}

// Service runs duplicate scans in the background. Scans are queued and
// processed by a single worker so one tenant's scan never interleaves
// with another write to the same run.
type Service struct {
	logger      ectologger.Logger
	detector    *Detector
	contactRepo *contact.Repository
	runRepo     *scanrun.Repository
	cache       *cache.Client
	graph       *graph.ContactService
	emitter     *events.Emitter

	queue  chan scanJob
	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewService creates a new detection service. graph may be nil when the
// graph projection is disabled.
func NewService(
	logger ectologger.Logger,
	detector *Detector,
	contactRepo *contact.Repository,
	runRepo *scanrun.Repository,
	scanCache *cache.Client,
	graphService *graph.ContactService,
	emitter *events.Emitter,
	queueSize int,
) *Service {
	if queueSize < 1 {
		queueSize = 64
	}
	return &Service{
		logger:      logger,
		detector:    detector,
		contactRepo: contactRepo,
		runRepo:     runRepo,
		cache:       scanCache,
		graph:       graphService,
		emitter:     emitter,
		queue:       make(chan scanJob, queueSize),
	}
}

// Start launches the scan worker
func (s *Service) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.worker(ctx)

	s.logger.WithContext(ctx).Info("Detection worker started")
}

// Stop drains the worker
func (s *Service) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Service) worker(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			s.logger.WithContext(ctx).Info("Detection worker stopping")
			return
		case job := <-s.queue:
			s.runScan(ctx, job)
		}
	}
}

// EnqueueScan records a new detection run and queues it for the worker.
// Returns the accepted run so callers can poll its status.
func (s *Service) EnqueueScan(ctx context.Context, tenantID string) (*models.DetectionRun, error) {
	ctx, span := tracing.StartSpan(ctx, "detection.Service.EnqueueScan")
	defer span.End()

	run := &models.DetectionRun{
		ID:       uuid.New().String(),
		TenantID: tenantID,
	}
	if err := s.runRepo.Create(ctx, run); err != nil {
		return nil, err
	}

	select {
	case s.queue <- scanJob{tenantID: tenantID, runID: run.ID}:
	default:
		// Queue is full; fail the run rather than block the API.
		_ = s.runRepo.Fail(ctx, tenantID, run.ID)
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "scan queue is full")
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"tenant_id": tenantID,
		"run_id":    run.ID,
	}).Info("Queued duplicate scan")

	return run, nil
}

func (s *Service) runScan(ctx context.Context, job scanJob) {
	ctx, span := tracing.StartSpan(ctx, "detection.Service.runScan")
	defer span.End()

	log := s.logger.WithContext(ctx).WithFields(map[string]any{
		"tenant_id": job.tenantID,
		"run_id":    job.runID,
	})

	metrics.ScansInFlight.Inc()
	defer metrics.ScansInFlight.Dec()

	started := time.Now().UTC()

	contacts, err := s.contactRepo.ListAll(ctx, job.tenantID)
	if err != nil {
		log.WithError(err).Error("Scan failed to load contacts")
		s.failScan(ctx, job)
		return
	}

	groups := s.detector.FindDuplicates(contacts)

	result := &models.DuplicateScanResult{
		RunID:        job.runID,
		TenantID:     job.tenantID,
		ContactCount: len(contacts),
		Groups:       groups,
		Stats:        stats.Recompute(len(contacts), groups),
		StartedAt:    started,
		CompletedAt:  time.Now().UTC(),
	}

	if err := s.runRepo.Complete(ctx, result); err != nil {
		log.WithError(err).Error("Scan failed to persist result")
		s.failScan(ctx, job)
		return
	}

	// Cache and graph are best-effort; the persisted run is the source of
	// truth and serves reads on a miss.
	if s.cache != nil {
		if err := s.cache.SetLatestScan(ctx, result); err != nil {
			log.WithError(err).Warn("Failed to cache scan result")
		}
	}
	if s.graph != nil {
		if err := s.graph.ProjectScan(ctx, result); err != nil {
			log.WithError(err).Warn("Failed to project scan into graph")
		}
	}
	if s.emitter != nil {
		if err := s.emitter.EmitScanCompleted(ctx, result); err != nil {
			log.WithError(err).Warn("Failed to emit scan completed event")
		}
	}

	metrics.ScansTotal.WithLabelValues(job.tenantID, models.RunStatusCompleted).Inc()
	metrics.ScanDuration.WithLabelValues(job.tenantID).Observe(time.Since(started).Seconds())
	for _, g := range groups {
		metrics.GroupsFound.WithLabelValues(job.tenantID, string(g.MatchType)).Inc()
	}

	log.WithFields(map[string]any{
		"contact_count": len(contacts),
		"group_count":   len(groups),
		"duration":      time.Since(started),
	}).Info("Duplicate scan completed")
}

func (s *Service) failScan(ctx context.Context, job scanJob) {
	if err := s.runRepo.Fail(ctx, job.tenantID, job.runID); err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to mark scan failed")
	}
	if s.emitter != nil {
		if err := s.emitter.EmitScanFailed(ctx, job.tenantID, job.runID); err != nil {
			s.logger.WithContext(ctx).WithError(err).Warn("Failed to emit scan failed event")
		}
	}
	metrics.ScansTotal.WithLabelValues(job.tenantID, models.RunStatusFailed).Inc()
}

// LatestResult serves a tenant's most recent completed scan, preferring
// the cache and falling back to the persisted run (which also backfills
// the cache). Returns (nil, nil) when no scan has completed yet.
func (s *Service) LatestResult(ctx context.Context, tenantID string) (*models.DuplicateScanResult, error) {
	ctx, span := tracing.StartSpan(ctx, "detection.Service.LatestResult")
	defer span.End()

	if s.cache != nil {
		result, err := s.cache.GetLatestScan(ctx, tenantID)
		if err != nil {
			s.logger.WithContext(ctx).WithError(err).Warn("Scan cache read failed")
		} else if result != nil {
			return result, nil
		}
	}

	result, err := s.runRepo.GetLatestResult(ctx, tenantID)
	if err != nil || result == nil {
		return result, err
	}

	if s.cache != nil {
		if err := s.cache.SetLatestScan(ctx, result); err != nil {
			s.logger.WithContext(ctx).WithError(err).Warn("Failed to backfill scan cache")
		}
	}
	return result, nil
}
