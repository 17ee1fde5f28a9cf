package legacybid

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/laurel/pkg/bidstatus"
	"github.com/Ramsey-B/laurel/pkg/database"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/tracing"
)

// Repository handles legacy bid persistence against project_bids. The legacy
// schema always exists; failures here are hard failures, never absorbed.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new legacy bid repository
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

// ListByProject returns every legacy bid on the project
func (r *Repository) ListByProject(ctx context.Context, tenantID, projectID uuid.UUID) ([]models.LegacyBid, error) {
	ctx, span := tracing.StartSpan(ctx, "legacybid.Repository.ListByProject")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "tenant_id", "project_id", "trade_id", "project_sub_id", "status", "amount", "contact_name", "notes", "created_at", "updated_at")
	sb.From("project_bids")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("project_id", projectID),
	)
	sb.OrderBy("created_at")

	query, args := sb.Build()
	var bids []models.LegacyBid
	if err := r.db.SelectContext(ctx, &bids, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"tenant_id": tenantID, "project_id": projectID}).Error("Failed to list legacy bids")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list legacy bids")
	}
	return bids, nil
}

// FindByKey returns the legacy bid at (project, trade, sub link), or nil when
// the slot has never been bid. Key lookup backs mirror writes that arrive
// without a legacy bid id.
func (r *Repository) FindByKey(ctx context.Context, tenantID, projectID, tradeID, projectSubID uuid.UUID) (*models.LegacyBid, error) {
	ctx, span := tracing.StartSpan(ctx, "legacybid.Repository.FindByKey")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "tenant_id", "project_id", "trade_id", "project_sub_id", "status", "amount", "contact_name", "notes", "created_at", "updated_at")
	sb.From("project_bids")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("project_id", projectID),
		sb.Equal("trade_id", tradeID),
		sb.Equal("project_sub_id", projectSubID),
	)
	sb.OrderBy("updated_at DESC")
	sb.Limit(1)

	query, args := sb.Build()
	var bid models.LegacyBid
	if err := r.db.GetContext(ctx, &bid, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"tenant_id": tenantID, "project_id": projectID, "trade_id": tradeID, "project_sub_id": projectSubID}).Error("Failed to find legacy bid by key")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to find legacy bid")
	}
	return &bid, nil
}

// Insert creates a legacy bid row and returns it
func (r *Repository) Insert(ctx context.Context, bid *models.LegacyBid) (*models.LegacyBid, error) {
	ctx, span := tracing.StartSpan(ctx, "legacybid.Repository.Insert")
	defer span.End()

	now := time.Now().UTC()
	if bid.ID == uuid.Nil {
		bid.ID = uuid.New()
	}
	bid.CreatedAt = now
	bid.UpdatedAt = now

	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertInto("project_bids")
	ib.Cols("id", "tenant_id", "project_id", "trade_id", "project_sub_id", "status", "amount", "contact_name", "notes", "created_at", "updated_at")
	ib.Values(bid.ID, bid.TenantID, bid.ProjectID, bid.TradeID, bid.ProjectSubID, bid.Status, bid.Amount, bid.ContactName, bid.Notes, bid.CreatedAt, bid.UpdatedAt)

	query, args := ib.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": bid.ID, "tenant_id": bid.TenantID, "project_id": bid.ProjectID}).Error("Failed to insert legacy bid")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to insert legacy bid")
	}

	return bid, nil
}

// UpdateByID updates the writable fields of a legacy bid. Missing rows are a
// 404: a stale back-reference must surface, not silently insert.
func (r *Repository) UpdateByID(ctx context.Context, tenantID, id uuid.UUID, status bidstatus.LegacyStatus, amount *float64, contactName, notes *string) error {
	ctx, span := tracing.StartSpan(ctx, "legacybid.Repository.UpdateByID")
	defer span.End()

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update("project_bids")
	ub.Set(
		ub.Assign("status", status),
		ub.Assign("amount", amount),
		ub.Assign("contact_name", contactName),
		ub.Assign("notes", notes),
		ub.Assign("updated_at", time.Now().UTC()),
	)
	ub.Where(
		ub.Equal("id", id),
		ub.Equal("tenant_id", tenantID),
	)

	query, args := ub.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id, "tenant_id": tenantID}).Error("Failed to update legacy bid")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update legacy bid")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "legacy bid %s not found", id)
	}

	return nil
}

// DeleteByID deletes a legacy bid by ID. Deleting an already-deleted row is
// not an error; removal must be idempotent.
func (r *Repository) DeleteByID(ctx context.Context, tenantID, id uuid.UUID) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "legacybid.Repository.DeleteByID")
	defer span.End()

	db := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	db.DeleteFrom("project_bids")
	db.Where(
		db.Equal("id", id),
		db.Equal("tenant_id", tenantID),
	)

	query, args := db.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id, "tenant_id": tenantID}).Error("Failed to delete legacy bid")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete legacy bid")
	}

	rows, _ := result.RowsAffected()
	return rows, nil
}

// DeleteByKeys deletes every legacy bid at (trade, sub link) for the given
// sub links. Covers alias rows left behind by re-invitations.
func (r *Repository) DeleteByKeys(ctx context.Context, tenantID, projectID, tradeID uuid.UUID, projectSubIDs []uuid.UUID) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "legacybid.Repository.DeleteByKeys")
	defer span.End()

	if len(projectSubIDs) == 0 {
		return 0, nil
	}

	db := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	db.DeleteFrom("project_bids")
	db.Where(
		db.Equal("tenant_id", tenantID),
		db.Equal("project_id", projectID),
		db.Equal("trade_id", tradeID),
		db.In("project_sub_id", sqlbuilder.Flatten(projectSubIDs)...),
	)

	query, args := db.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"tenant_id": tenantID, "project_id": projectID, "trade_id": tradeID, "project_sub_ids": projectSubIDs}).Error("Failed to delete legacy bids by key")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete legacy bids")
	}

	rows, _ := result.RowsAffected()
	return rows, nil
}
