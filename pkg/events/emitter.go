// Package events handles event emission for leveling state changes
package events

import (
	"context"
	"encoding/json"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/laurel/pkg/kafka"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/tracing"
)

// Emitter publishes leveling lifecycle events. Emission is best-effort:
// callers log failures and move on, a missed event never fails a write.
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

// EmitBidUpdated emits a leveling.bid.updated event carrying the leveled bid
func (e *Emitter) EmitBidUpdated(ctx context.Context, tenantID, projectID uuid.UUID, bid models.LeveledBid) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitBidUpdated")
	defer span.End()

	data, _ := json.Marshal(bid)

	event := &kafka.LevelingEvent{
		EventType:    "leveling.bid.updated",
		TenantID:     tenantID.String(),
		ProjectID:    projectID.String(),
		TradeID:      bid.TradeID.String(),
		ProjectSubID: bid.ProjectSubID.String(),
		Data:         data,
	}

	if err := e.producer.PublishLevelingEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit leveling.bid.updated event")
		return err
	}

	return nil
}

// EmitBidRemoved emits a leveling.bid.removed event
func (e *Emitter) EmitBidRemoved(ctx context.Context, tenantID, projectID, tradeID, projectSubID uuid.UUID) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitBidRemoved")
	defer span.End()

	event := &kafka.LevelingEvent{
		EventType:    "leveling.bid.removed",
		TenantID:     tenantID.String(),
		ProjectID:    projectID.String(),
		TradeID:      tradeID.String(),
		ProjectSubID: projectSubID.String(),
	}

	if err := e.producer.PublishLevelingEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit leveling.bid.removed event")
		return err
	}

	return nil
}

// EmitSnapshotCreated emits a leveling.snapshot.created event
func (e *Emitter) EmitSnapshotCreated(ctx context.Context, snapshot *models.BidSnapshot, itemCount int) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitSnapshotCreated")
	defer span.End()

	data, _ := json.Marshal(map[string]any{
		"title":      snapshot.Title,
		"item_count": itemCount,
	})

	event := &kafka.LevelingEvent{
		EventType:  "leveling.snapshot.created",
		TenantID:   snapshot.TenantID.String(),
		ProjectID:  snapshot.ProjectID.String(),
		SnapshotID: snapshot.ID.String(),
		Data:       data,
	}

	if err := e.producer.PublishLevelingEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit leveling.snapshot.created event")
		return err
	}

	return nil
}
