package models

import (
	"time"

	"github.com/google/uuid"
)

// BidSnapshot is a locked leveling round header. Snapshots are append-only
// audit artifacts: once created they are never updated or deleted.
type BidSnapshot struct {
	ID        uuid.UUID `json:"id" db:"id"`
	TenantID  uuid.UUID `json:"tenant_id" db:"tenant_id"`
	ProjectID uuid.UUID `json:"project_id" db:"project_id"`
	CreatedBy uuid.UUID `json:"created_by" db:"created_by"`
	Title     string    `json:"title" db:"title"`
	Locked    bool      `json:"locked" db:"locked"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// BidSnapshotItem is the frozen state of one (trade, sub link) cell at
// snapshot time. Included flags and the line-items payload are denormalized
// copies taken at creation and never re-derived from live rows. They are
// stored as jsonb columns; the snapshot repository owns that mapping.
type BidSnapshotItem struct {
	ID           uuid.UUID       `json:"id"`
	TenantID     uuid.UUID       `json:"tenant_id"`
	SnapshotID   uuid.UUID       `json:"snapshot_id"`
	TradeID      uuid.UUID       `json:"trade_id"`
	ProjectSubID uuid.UUID       `json:"project_sub_id"`
	BaseAmount   *float64        `json:"base_amount,omitempty"`
	Notes        *string         `json:"notes,omitempty"`
	Included     map[string]bool `json:"included,omitempty"`
	Items        *Breakdown      `json:"items,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// SnapshotItemInput is one per-(trade, sub link) entry to freeze, typically
// produced by denormalizing the current workspace view. Included maps
// alternate ids to their inclusion flag at freeze time.
type SnapshotItemInput struct {
	TradeID      uuid.UUID       `json:"trade_id" validate:"required"`
	ProjectSubID uuid.UUID       `json:"project_sub_id" validate:"required"`
	BaseAmount   *float64        `json:"base_amount,omitempty"`
	Notes        *string         `json:"notes,omitempty"`
	Included     map[string]bool `json:"included,omitempty"`
	Items        *Breakdown      `json:"items,omitempty"`
}

// CreateSnapshotRequest freezes the current leveling state for a project.
type CreateSnapshotRequest struct {
	ProjectID uuid.UUID           `json:"project_id" validate:"required"`
	Title     string              `json:"title" validate:"required"`
	Items     []SnapshotItemInput `json:"items"`
}
