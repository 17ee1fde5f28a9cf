package models

import (
	"time"

	"github.com/google/uuid"
)

// Trade is a scope of work category being bid within a project (e.g.
// electrical). Owned by project setup; read-only to this engine.
type Trade struct {
	ID        uuid.UUID `json:"id" db:"id"`
	TenantID  uuid.UUID `json:"tenant_id" db:"tenant_id"`
	ProjectID uuid.UUID `json:"project_id" db:"project_id"`
	Name      string    `json:"name" db:"name"`
	SortOrder int       `json:"sort_order" db:"sort_order"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ProjectSub is one invitation of a subcontractor to a project. A
// subcontractor re-invited to the same project holds multiple ProjectSub rows;
// all rows sharing a subcontractor_id are aliases of one bidding identity.
type ProjectSub struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	TenantID        uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	ProjectID       uuid.UUID  `json:"project_id" db:"project_id"`
	SubcontractorID uuid.UUID  `json:"subcontractor_id" db:"subcontractor_id"`
	InvitedAt       *time.Time `json:"invited_at,omitempty" db:"invited_at"`
	SortOrder       int        `json:"sort_order" db:"sort_order"`
}
