package models

import (
	"time"

	"github.com/google/uuid"
)

// TradeBudget is the per-trade budget figure, unique on (project, trade).
type TradeBudget struct {
	ID        uuid.UUID `json:"id" db:"id"`
	TenantID  uuid.UUID `json:"tenant_id" db:"tenant_id"`
	ProjectID uuid.UUID `json:"project_id" db:"project_id"`
	TradeID   uuid.UUID `json:"trade_id" db:"trade_id"`
	Amount    *float64  `json:"amount,omitempty" db:"amount"`
	Notes     *string   `json:"notes,omitempty" db:"notes"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// UpsertBudgetRequest is the keyed budget upsert request.
type UpsertBudgetRequest struct {
	ProjectID uuid.UUID `json:"project_id" validate:"required"`
	TradeID   uuid.UUID `json:"trade_id" validate:"required"`
	Amount    *float64  `json:"amount,omitempty"`
	Notes     *string   `json:"notes,omitempty"`
}
