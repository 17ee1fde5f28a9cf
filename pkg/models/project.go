package models

import (
	"time"

	"github.com/google/uuid"
)

// Project is the project header. Projects are owned by the project CRUD
// service; this engine only reads them.
type Project struct {
	ID        uuid.UUID `json:"id" db:"id"`
	TenantID  uuid.UUID `json:"tenant_id" db:"tenant_id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Workspace is the merged leveling view for one project: every trade, every
// invited sub, and one leveled bid per (trade, sub link), plus budgets and
// snapshot headers (newest first).
type Workspace struct {
	Project   Project       `json:"project"`
	Trades    []Trade       `json:"trades"`
	Subs      []ProjectSub  `json:"subs"`
	Bids      []LeveledBid  `json:"bids"`
	Budgets   []TradeBudget `json:"budgets"`
	Snapshots []BidSnapshot `json:"snapshots"`
}
