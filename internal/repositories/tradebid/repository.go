package tradebid

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/laurel/pkg/database"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/tracing"
)

const tradeBidTable = "trade_bids"

var tradeBidStruct = database.NewStruct(new(models.TradeBid))

// Repository handles enhanced bid persistence against trade_bids. The
// leveling schema is optional during rollout: schema-missing errors are
// returned unwrapped so callers can absorb them with database.IsSchemaMissing.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new trade bid repository
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

// ListByProject returns every enhanced bid on the project
func (r *Repository) ListByProject(ctx context.Context, tenantID, projectID uuid.UUID) ([]models.TradeBid, error) {
	ctx, span := tracing.StartSpan(ctx, "tradebid.Repository.ListByProject")
	defer span.End()

	sb := tradeBidStruct.SelectFrom(tradeBidTable)
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("project_id", projectID),
	)
	sb.OrderBy("created_at")

	query, args := sb.Build()
	var bids []models.TradeBid
	if err := r.db.SelectContext(ctx, &bids, query, args...); err != nil {
		if database.IsSchemaMissing(err) {
			return nil, err
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"tenant_id": tenantID, "project_id": projectID}).Error("Failed to list trade bids")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list trade bids")
	}
	return bids, nil
}

// ListByTrade returns every enhanced bid on one trade of the project
func (r *Repository) ListByTrade(ctx context.Context, tenantID, projectID, tradeID uuid.UUID) ([]models.TradeBid, error) {
	ctx, span := tracing.StartSpan(ctx, "tradebid.Repository.ListByTrade")
	defer span.End()

	sb := tradeBidStruct.SelectFrom(tradeBidTable)
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("project_id", projectID),
		sb.Equal("trade_id", tradeID),
	)
	sb.OrderBy("created_at")

	query, args := sb.Build()
	var bids []models.TradeBid
	if err := r.db.SelectContext(ctx, &bids, query, args...); err != nil {
		if database.IsSchemaMissing(err) {
			return nil, err
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"tenant_id": tenantID, "project_id": projectID, "trade_id": tradeID}).Error("Failed to list trade bids by trade")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list trade bids")
	}
	return bids, nil
}

// ListByTradeAndSubs returns the enhanced bids at (trade, sub link) for the
// given sub links. Used by cascading removal to find alias rows.
func (r *Repository) ListByTradeAndSubs(ctx context.Context, tenantID, projectID, tradeID uuid.UUID, projectSubIDs []uuid.UUID) ([]models.TradeBid, error) {
	ctx, span := tracing.StartSpan(ctx, "tradebid.Repository.ListByTradeAndSubs")
	defer span.End()

	if len(projectSubIDs) == 0 {
		return nil, nil
	}

	sb := tradeBidStruct.SelectFrom(tradeBidTable)
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("project_id", projectID),
		sb.Equal("trade_id", tradeID),
		sb.In("project_sub_id", sqlbuilder.Flatten(projectSubIDs)...),
	)

	query, args := sb.Build()
	var bids []models.TradeBid
	if err := r.db.SelectContext(ctx, &bids, query, args...); err != nil {
		if database.IsSchemaMissing(err) {
			return nil, err
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"tenant_id": tenantID, "project_id": projectID, "trade_id": tradeID, "project_sub_ids": projectSubIDs}).Error("Failed to list trade bids by key")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list trade bids")
	}
	return bids, nil
}

// FindByKey returns the enhanced bid at (project, trade, sub link), or nil
// when the slot has never been bid
func (r *Repository) FindByKey(ctx context.Context, tenantID, projectID, tradeID, projectSubID uuid.UUID) (*models.TradeBid, error) {
	ctx, span := tracing.StartSpan(ctx, "tradebid.Repository.FindByKey")
	defer span.End()

	sb := tradeBidStruct.SelectFrom(tradeBidTable)
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("project_id", projectID),
		sb.Equal("trade_id", tradeID),
		sb.Equal("project_sub_id", projectSubID),
	)
	sb.Limit(1)

	query, args := sb.Build()
	var bid models.TradeBid
	if err := r.db.GetContext(ctx, &bid, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		if database.IsSchemaMissing(err) {
			return nil, err
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"tenant_id": tenantID, "project_id": projectID, "trade_id": tradeID, "project_sub_id": projectSubID}).Error("Failed to find trade bid by key")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to find trade bid")
	}
	return &bid, nil
}

// Upsert creates or updates the enhanced bid at its (tenant, project, trade,
// sub link) key. The conflict update keeps the existing row id and is_low
// flag; both are read back into the returned bid.
func (r *Repository) Upsert(ctx context.Context, bid *models.TradeBid) (*models.TradeBid, error) {
	ctx, span := tracing.StartSpan(ctx, "tradebid.Repository.Upsert")
	defer span.End()

	now := time.Now().UTC()
	if bid.ID == uuid.Nil {
		bid.ID = uuid.New()
	}
	bid.CreatedAt = now
	bid.UpdatedAt = now

	ib := tradeBidStruct.InsertInto(tradeBidTable, *bid)
	ub := ib.OnConflict("tenant_id", "project_id", "trade_id", "project_sub_id")
	ub.Set(
		ub.Assign("status", database.Excluded("status")),
		ub.Assign("base_amount", database.Excluded("base_amount")),
		ub.Assign("received_at", database.Excluded("received_at")),
		ub.Assign("notes", database.Excluded("notes")),
		ub.Assign("legacy_bid_id", database.Excluded("legacy_bid_id")),
		ub.Assign("updated_at", now),
	)
	ib = ib.Returning("id", "is_low", "created_at")

	query, args := ib.Build()
	var row struct {
		ID        uuid.UUID `db:"id"`
		IsLow     bool      `db:"is_low"`
		CreatedAt time.Time `db:"created_at"`
	}
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if database.IsSchemaMissing(err) {
			return nil, err
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"tenant_id": bid.TenantID, "project_id": bid.ProjectID, "trade_id": bid.TradeID, "project_sub_id": bid.ProjectSubID}).Error("Failed to upsert trade bid")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert trade bid")
	}

	bid.ID = row.ID
	bid.IsLow = row.IsLow
	bid.CreatedAt = row.CreatedAt

	return bid, nil
}

// ApplyLowFlags sets is_low for the given bids. Callers pass only rows whose
// flag actually changed; untouched rows keep their updated_at.
func (r *Repository) ApplyLowFlags(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID, isLow bool) error {
	ctx, span := tracing.StartSpan(ctx, "tradebid.Repository.ApplyLowFlags")
	defer span.End()

	if len(ids) == 0 {
		return nil
	}

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update(tradeBidTable)
	ub.Set(
		ub.Assign("is_low", isLow),
		ub.Assign("updated_at", time.Now().UTC()),
	)
	ub.Where(
		ub.Equal("tenant_id", tenantID),
		ub.In("id", sqlbuilder.Flatten(ids)...),
	)

	query, args := ub.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if database.IsSchemaMissing(err) {
			return err
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"tenant_id": tenantID, "ids": ids, "is_low": isLow}).Error("Failed to apply low bid flags")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to apply low bid flags")
	}
	return nil
}

// DeleteByIDs deletes enhanced bids by ID
func (r *Repository) DeleteByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "tradebid.Repository.DeleteByIDs")
	defer span.End()

	if len(ids) == 0 {
		return 0, nil
	}

	db := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	db.DeleteFrom(tradeBidTable)
	db.Where(
		db.Equal("tenant_id", tenantID),
		db.In("id", sqlbuilder.Flatten(ids)...),
	)

	query, args := db.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if database.IsSchemaMissing(err) {
			return 0, err
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"tenant_id": tenantID, "ids": ids}).Error("Failed to delete trade bids")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete trade bids")
	}

	rows, _ := result.RowsAffected()
	return rows, nil
}
