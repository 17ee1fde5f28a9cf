package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Ramsey-B/laurel/pkg/bidstatus"
)

// LegacyBid is the original bid record in project_bids. It stays writable for
// the whole migration window; every enhanced write mirrors into it.
type LegacyBid struct {
	ID           uuid.UUID              `json:"id" db:"id"`
	TenantID     uuid.UUID              `json:"tenant_id" db:"tenant_id"`
	ProjectID    uuid.UUID              `json:"project_id" db:"project_id"`
	TradeID      uuid.UUID              `json:"trade_id" db:"trade_id"`
	ProjectSubID uuid.UUID              `json:"project_sub_id" db:"project_sub_id"`
	Status       bidstatus.LegacyStatus `json:"status" db:"status"`
	Amount       *float64               `json:"amount,omitempty" db:"amount"`
	ContactName  *string                `json:"contact_name,omitempty" db:"contact_name"`
	Notes        *string                `json:"notes,omitempty" db:"notes"`
	CreatedAt    time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at" db:"updated_at"`
}

// TradeBid is the enhanced bid record in trade_bids. Unique per
// (tenant, project, trade, project sub). legacy_bid_id back-references the
// mirrored project_bids row when one exists.
type TradeBid struct {
	ID           uuid.UUID        `json:"id" db:"id"`
	TenantID     uuid.UUID        `json:"tenant_id" db:"tenant_id"`
	ProjectID    uuid.UUID        `json:"project_id" db:"project_id"`
	TradeID      uuid.UUID        `json:"trade_id" db:"trade_id"`
	ProjectSubID uuid.UUID        `json:"project_sub_id" db:"project_sub_id"`
	Status       bidstatus.Status `json:"status" db:"status"`
	BaseAmount   *float64         `json:"base_amount,omitempty" db:"base_amount"`
	ReceivedAt   *time.Time       `json:"received_at,omitempty" db:"received_at"`
	IsLow        bool             `json:"is_low" db:"is_low"`
	Notes        *string          `json:"notes,omitempty" db:"notes"`
	LegacyBidID  *uuid.UUID       `json:"legacy_bid_id,omitempty" db:"legacy_bid_id"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at" db:"updated_at"`
}

// BidKey identifies one bid slot in the leveling grid.
type BidKey struct {
	TradeID      uuid.UUID
	ProjectSubID uuid.UUID
}

// LeveledBid is the view-only merge of the two bid representations for one
// (trade, sub link). Status is always in the enhanced vocabulary. When an
// enhanced record exists its fields win; the legacy id is kept as a
// back-reference for compatibility writes either way.
type LeveledBid struct {
	TradeID      uuid.UUID        `json:"trade_id"`
	ProjectSubID uuid.UUID        `json:"project_sub_id"`
	Status       bidstatus.Status `json:"status"`
	Amount       *float64         `json:"amount,omitempty"`
	Notes        *string          `json:"notes,omitempty"`
	ContactName  *string          `json:"contact_name,omitempty"`
	ReceivedAt   *time.Time       `json:"received_at,omitempty"`
	IsLow        bool             `json:"is_low"`
	TradeBidID   *uuid.UUID       `json:"trade_bid_id,omitempty"`
	LegacyBidID  *uuid.UUID       `json:"legacy_bid_id,omitempty"`
}

// Key returns the grid key for this bid.
func (b LeveledBid) Key() BidKey {
	return BidKey{TradeID: b.TradeID, ProjectSubID: b.ProjectSubID}
}

// UpsertBidRequest is the request for writing a bid's status/amount/notes.
type UpsertBidRequest struct {
	ProjectID    uuid.UUID        `json:"project_id" validate:"required"`
	TradeID      uuid.UUID        `json:"trade_id" validate:"required"`
	ProjectSubID uuid.UUID        `json:"project_sub_id" validate:"required"`
	LegacyBidID  *uuid.UUID       `json:"legacy_bid_id,omitempty"`
	Status       bidstatus.Status `json:"status" validate:"required"`
	Amount       *float64         `json:"amount,omitempty"`
	Notes        *string          `json:"notes,omitempty"`
	ContactName  *string          `json:"contact_name,omitempty"`
	ReceivedAt   *time.Time       `json:"received_at,omitempty"`
}

// RemoveBidRequest is the request for a cascading bid delete. AliasSubIDs
// lists other project_sub rows belonging to the same subcontractor; when it is
// empty and SubcontractorID is set, aliases are resolved by lookup.
type RemoveBidRequest struct {
	ProjectID       uuid.UUID   `json:"project_id" validate:"required"`
	TradeID         uuid.UUID   `json:"trade_id" validate:"required"`
	ProjectSubID    uuid.UUID   `json:"project_sub_id" validate:"required"`
	TradeBidID      *uuid.UUID  `json:"trade_bid_id,omitempty"`
	LegacyBidID     *uuid.UUID  `json:"legacy_bid_id,omitempty"`
	AliasSubIDs     []uuid.UUID `json:"alias_sub_ids,omitempty"`
	SubcontractorID *uuid.UUID  `json:"subcontractor_id,omitempty"`
}
