package models

import (
	"github.com/google/uuid"
)

// LineItemKindBase is the only line item kind currently written; alternates
// live in their own table.
const LineItemKindBase = "base"

// BidLineItem is one base-scope line of a trade bid's breakdown.
// AmountOverride carries lump-sum style pricing where quantity × unit price
// does not apply.
type BidLineItem struct {
	ID             uuid.UUID `json:"id" db:"id"`
	TenantID       uuid.UUID `json:"tenant_id" db:"tenant_id"`
	TradeBidID     uuid.UUID `json:"trade_bid_id" db:"trade_bid_id"`
	Kind           string    `json:"kind" db:"kind"`
	Description    string    `json:"description" db:"description"`
	Quantity       *float64  `json:"quantity,omitempty" db:"quantity"`
	Unit           *string   `json:"unit,omitempty" db:"unit"`
	UnitPrice      *float64  `json:"unit_price,omitempty" db:"unit_price"`
	AmountOverride *float64  `json:"amount_override,omitempty" db:"amount_override"`
	Notes          *string   `json:"notes,omitempty" db:"notes"`
	SortOrder      int       `json:"sort_order" db:"sort_order"`
}

// BidAlternate is an optional priced scope addition/deduction offered
// alongside the base bid.
type BidAlternate struct {
	ID         uuid.UUID `json:"id" db:"id"`
	TenantID   uuid.UUID `json:"tenant_id" db:"tenant_id"`
	TradeBidID uuid.UUID `json:"trade_bid_id" db:"trade_bid_id"`
	Title      string    `json:"title" db:"title"`
	Accepted   bool      `json:"accepted" db:"accepted"`
	Amount     *float64  `json:"amount,omitempty" db:"amount"`
	Notes      *string   `json:"notes,omitempty" db:"notes"`
	SortOrder  int       `json:"sort_order" db:"sort_order"`
}

// LineItemInput is one desired base line item in a breakdown save. IDs are
// caller-supplied: pre-existing ids retain their row, fresh ids create one.
type LineItemInput struct {
	ID             uuid.UUID `json:"id" validate:"required"`
	Description    string    `json:"description"`
	Quantity       *float64  `json:"quantity,omitempty"`
	Unit           *string   `json:"unit,omitempty"`
	UnitPrice      *float64  `json:"unit_price,omitempty"`
	AmountOverride *float64  `json:"amount_override,omitempty"`
	Notes          *string   `json:"notes,omitempty"`
	SortOrder      *int      `json:"sort_order,omitempty"`
}

// AlternateInput is one desired alternate in a breakdown save.
type AlternateInput struct {
	ID        uuid.UUID `json:"id" validate:"required"`
	Title     string    `json:"title"`
	Accepted  bool      `json:"accepted"`
	Amount    *float64  `json:"amount,omitempty"`
	Notes     *string   `json:"notes,omitempty"`
	SortOrder *int      `json:"sort_order,omitempty"`
}

// SaveBreakdownRequest is the desired final item/alternate state for the bid
// at (project, trade, sub link). Rows absent from the lists are deleted; the
// rest are upserted in place, preserving ids.
type SaveBreakdownRequest struct {
	ProjectID    uuid.UUID        `json:"project_id" validate:"required"`
	TradeID      uuid.UUID        `json:"trade_id" validate:"required"`
	ProjectSubID uuid.UUID        `json:"project_sub_id" validate:"required"`
	BaseItems    []LineItemInput  `json:"base_items"`
	Alternates   []AlternateInput `json:"alternates"`
}

// Breakdown is the persisted item/alternate state for one bid.
type Breakdown struct {
	BaseItems  []BidLineItem  `json:"base_items"`
	Alternates []BidAlternate `json:"alternates"`
}
