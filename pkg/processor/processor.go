// Package processor handles incoming contact change-feed messages. It keeps
// the contact snapshot store in sync with the address book and queues a
// duplicate rescan after each applied change.
package processor

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/detection"
	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// ContactStore is the subset of the contact repository the processor
// writes through.
type ContactStore interface {
	UpsertSnapshot(ctx context.Context, tenantID string, contact *models.Contact) (*models.Contact, error)
	SoftDelete(ctx context.Context, tenantID, id string) error
}

// Processor applies change-feed messages to the snapshot store
type Processor struct {
	logger      ectologger.Logger
	contactRepo ContactStore
	detection   *detection.Service
}

// NewProcessor creates a new change-feed processor
func NewProcessor(logger ectologger.Logger, contactRepo ContactStore, detectionService *detection.Service) *Processor {
	return &Processor{
		logger:      logger,
		contactRepo: contactRepo,
		detection:   detectionService,
	}
}

// ProcessMessage handles one change-feed message
func (p *Processor) ProcessMessage(ctx context.Context, msg *kafka.IncomingMessage) error {
	ctx, span := tracing.StartSpan(ctx, "processor.Processor.ProcessMessage")
	defer span.End()

	change := msg.Change
	if change == nil {
		metrics.ChangeFeedMessages.WithLabelValues("unparsed").Inc()
		p.logger.WithContext(ctx).Warn("Skipping change-feed message with no parsed change")
		return nil
	}

	tenantID := msg.GetTenantID()
	if tenantID == "" {
		metrics.ChangeFeedMessages.WithLabelValues("missing_tenant").Inc()
		p.logger.WithContext(ctx).WithFields(map[string]any{
			"change_type": change.ChangeType,
			"contact_id":  change.ContactID,
		}).Warn("Skipping change-feed message with no tenant")
		return nil
	}

	log := p.logger.WithContext(ctx).WithFields(map[string]any{
		"tenant_id":   tenantID,
		"change_type": change.ChangeType,
		"contact_id":  change.ContactID,
	})

	switch change.ChangeType {
	case kafka.ChangeTypeUpserted:
		if change.Contact == nil {
			metrics.ChangeFeedMessages.WithLabelValues("invalid").Inc()
			log.Warn("Upsert change carries no contact snapshot")
			return nil
		}
		// The envelope's contact_id is authoritative when the embedded
		// snapshot omits its own ID.
		if change.Contact.ID == "" {
			change.Contact.ID = change.ContactID
		}
		if _, err := p.contactRepo.UpsertSnapshot(ctx, tenantID, change.Contact); err != nil {
			metrics.ChangeFeedMessages.WithLabelValues("error").Inc()
			log.WithError(err).Error("Failed to upsert contact from change feed")
			return fmt.Errorf("upsert contact %s: %w", change.ContactID, err)
		}
	case kafka.ChangeTypeDeleted:
		if err := p.contactRepo.SoftDelete(ctx, tenantID, change.ContactID); err != nil {
			metrics.ChangeFeedMessages.WithLabelValues("error").Inc()
			log.WithError(err).Error("Failed to delete contact from change feed")
			return fmt.Errorf("delete contact %s: %w", change.ContactID, err)
		}
	default:
		metrics.ChangeFeedMessages.WithLabelValues("unknown_type").Inc()
		log.Warn("Unknown change type")
		return nil
	}

	metrics.ChangeFeedMessages.WithLabelValues("applied").Inc()

	// Keep detection results current. A full queue is fine here; the
	// pending scan will pick up this change anyway.
	if p.detection != nil {
		if _, err := p.detection.EnqueueScan(ctx, tenantID); err != nil {
			log.WithError(err).Warn("Could not queue rescan after change")
		}
	}

	return nil
}
