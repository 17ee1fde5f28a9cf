package snapshot

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/laurel/pkg/database"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/tracing"
)

const (
	snapshotTable     = "bid_snapshots"
	snapshotItemTable = "bid_snapshot_items"
)

var snapshotStruct = database.NewStruct(new(models.BidSnapshot))

// Repository handles snapshot persistence. Snapshots are append-only: this
// repository exposes inserts and reads, never an update or delete.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new snapshot repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// DB returns the underlying database connection for transactions
func (r *Repository) DB() database.DB {
	return r.db
}

// InsertHeader creates a snapshot header row
func (r *Repository) InsertHeader(ctx context.Context, snapshot *models.BidSnapshot) (*models.BidSnapshot, error) {
	ctx, span := tracing.StartSpan(ctx, "snapshot.Repository.InsertHeader")
	defer span.End()

	if snapshot.ID == uuid.Nil {
		snapshot.ID = uuid.New()
	}
	snapshot.Locked = true
	snapshot.CreatedAt = time.Now().UTC()

	ib := snapshotStruct.InsertInto(snapshotTable, *snapshot)
	query, args := ib.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if database.IsSchemaMissing(err) {
			return nil, err
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": snapshot.ID, "tenant_id": snapshot.TenantID, "project_id": snapshot.ProjectID}).Error("Failed to insert snapshot header")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to insert snapshot header")
	}

	return snapshot, nil
}

// InsertItems creates the snapshot's frozen per-cell rows
func (r *Repository) InsertItems(ctx context.Context, items []models.BidSnapshotItem) error {
	ctx, span := tracing.StartSpan(ctx, "snapshot.Repository.InsertItems")
	defer span.End()

	if len(items) == 0 {
		return nil
	}

	now := time.Now().UTC()
	values := make([]any, 0, len(items))
	for i := range items {
		if items[i].ID == uuid.Nil {
			items[i].ID = uuid.New()
		}
		items[i].CreatedAt = now
		values = append(values, fromSnapshotItem(items[i]))
	}

	ib := snapshotItemStruct.InsertInto(snapshotItemTable, values...)
	query, args := ib.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if database.IsSchemaMissing(err) {
			return err
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"tenant_id": items[0].TenantID, "snapshot_id": items[0].SnapshotID, "count": len(items)}).Error("Failed to insert snapshot items")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to insert snapshot items")
	}
	return nil
}

// Get retrieves a snapshot header by ID
func (r *Repository) Get(ctx context.Context, tenantID, id uuid.UUID) (*models.BidSnapshot, error) {
	ctx, span := tracing.StartSpan(ctx, "snapshot.Repository.Get")
	defer span.End()

	sb := snapshotStruct.SelectFrom(snapshotTable)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
	)

	query, args := sb.Build()
	var snapshot models.BidSnapshot
	if err := r.db.GetContext(ctx, &snapshot, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "snapshot %s not found", id)
		}
		if database.IsSchemaMissing(err) {
			return nil, err
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id, "tenant_id": tenantID}).Error("Failed to get snapshot")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get snapshot")
	}

	return &snapshot, nil
}

// ListByProject returns the project's snapshot headers, newest first
func (r *Repository) ListByProject(ctx context.Context, tenantID, projectID uuid.UUID) ([]models.BidSnapshot, error) {
	ctx, span := tracing.StartSpan(ctx, "snapshot.Repository.ListByProject")
	defer span.End()

	sb := snapshotStruct.SelectFrom(snapshotTable)
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("project_id", projectID),
	)
	sb.OrderBy("created_at DESC")

	query, args := sb.Build()
	var snapshots []models.BidSnapshot
	if err := r.db.SelectContext(ctx, &snapshots, query, args...); err != nil {
		if database.IsSchemaMissing(err) {
			return nil, err
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"tenant_id": tenantID, "project_id": projectID}).Error("Failed to list snapshots")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list snapshots")
	}
	return snapshots, nil
}

// ListItems returns the snapshot's frozen rows in grid order
func (r *Repository) ListItems(ctx context.Context, tenantID, snapshotID uuid.UUID) ([]models.BidSnapshotItem, error) {
	ctx, span := tracing.StartSpan(ctx, "snapshot.Repository.ListItems")
	defer span.End()

	sb := snapshotItemStruct.SelectFrom(snapshotItemTable)
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("snapshot_id", snapshotID),
	)
	sb.OrderBy("trade_id", "project_sub_id")

	query, args := sb.Build()
	var rows []snapshotItemRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		if database.IsSchemaMissing(err) {
			return nil, err
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"tenant_id": tenantID, "snapshot_id": snapshotID}).Error("Failed to list snapshot items")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list snapshot items")
	}
	return toSnapshotItems(rows), nil
}
