// Package events handles event emission for scan and merge lifecycle changes
package events

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Emitter publishes scan and merge lifecycle events
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitScanCompleted emits a scan.completed event
func (e *Emitter) EmitScanCompleted(ctx context.Context, result *models.DuplicateScanResult) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitScanCompleted")
	defer span.End()

	event := &kafka.ScanEvent{
		EventType:    "scan.completed",
		TenantID:     result.TenantID,
		RunID:        result.RunID,
		ContactCount: result.ContactCount,
		GroupCount:   len(result.Groups),
	}

	if err := e.producer.PublishScanEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit scan.completed event")
		return err
	}

	return nil
}

// EmitScanFailed emits a scan.failed event
func (e *Emitter) EmitScanFailed(ctx context.Context, tenantID, runID string) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitScanFailed")
	defer span.End()

	event := &kafka.ScanEvent{
		EventType: "scan.failed",
		TenantID:  tenantID,
		RunID:     runID,
	}

	if err := e.producer.PublishScanEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit scan.failed event")
		return err
	}

	return nil
}

// EmitContactsMerged emits a contact.merged event with the consolidated
// record and the source contacts it absorbed.
func (e *Emitter) EmitContactsMerged(ctx context.Context, merged *models.Contact, sourceIDs []string) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitContactsMerged")
	defer span.End()

	event := &kafka.ContactEvent{
		EventType:      "contact.merged",
		TenantID:       merged.TenantID,
		ContactID:      merged.ID,
		Contact:        merged,
		SourceContacts: sourceIDs,
	}

	if err := e.producer.PublishContactEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit contact.merged event")
		return err
	}

	return nil
}
