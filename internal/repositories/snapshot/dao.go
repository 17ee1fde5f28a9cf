package snapshot

import (
	"time"

	"github.com/google/uuid"

	"github.com/Ramsey-B/laurel/pkg/database"
	"github.com/Ramsey-B/laurel/pkg/models"
)

// snapshotItemRow is the database row for a frozen snapshot cell. The
// included flags and line-items payload persist as jsonb columns.
type snapshotItemRow struct {
	ID           uuid.UUID                         `db:"id"`
	TenantID     uuid.UUID                         `db:"tenant_id"`
	SnapshotID   uuid.UUID                         `db:"snapshot_id"`
	TradeID      uuid.UUID                         `db:"trade_id"`
	ProjectSubID uuid.UUID                         `db:"project_sub_id"`
	BaseAmount   *float64                          `db:"base_amount"`
	Notes        *string                           `db:"notes"`
	Included     database.JSONB[map[string]bool]   `db:"included"`
	Items        database.JSONB[*models.Breakdown] `db:"items"`
	CreatedAt    time.Time                         `db:"created_at"`
}

var snapshotItemStruct = database.NewStruct(new(snapshotItemRow))

func fromSnapshotItem(item models.BidSnapshotItem) snapshotItemRow {
	return snapshotItemRow{
		ID:           item.ID,
		TenantID:     item.TenantID,
		SnapshotID:   item.SnapshotID,
		TradeID:      item.TradeID,
		ProjectSubID: item.ProjectSubID,
		BaseAmount:   item.BaseAmount,
		Notes:        item.Notes,
		Included:     database.JSONB[map[string]bool]{Data: item.Included},
		Items:        database.JSONB[*models.Breakdown]{Data: item.Items},
		CreatedAt:    item.CreatedAt,
	}
}

func toSnapshotItem(row snapshotItemRow) models.BidSnapshotItem {
	return models.BidSnapshotItem{
		ID:           row.ID,
		TenantID:     row.TenantID,
		SnapshotID:   row.SnapshotID,
		TradeID:      row.TradeID,
		ProjectSubID: row.ProjectSubID,
		BaseAmount:   row.BaseAmount,
		Notes:        row.Notes,
		Included:     row.Included.Data,
		Items:        row.Items.Data,
		CreatedAt:    row.CreatedAt,
	}
}

func toSnapshotItems(rows []snapshotItemRow) []models.BidSnapshotItem {
	items := make([]models.BidSnapshotItem, len(rows))
	for i, row := range rows {
		items[i] = toSnapshotItem(row)
	}
	return items
}
