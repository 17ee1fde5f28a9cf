package breakdown

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/laurel/pkg/database"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/tracing"
)

const (
	itemTable      = "trade_bid_items"
	alternateTable = "trade_bid_alternates"
)

var (
	itemStruct      = database.NewStruct(new(models.BidLineItem))
	alternateStruct = database.NewStruct(new(models.BidAlternate))
)

// Repository handles bid breakdown persistence: line items and alternates
// hanging off trade_bids rows. Lives in the optional leveling schema, so
// schema-missing errors pass through unwrapped.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new breakdown repository
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

// ListItemsByBid returns the bid's base line items in display order
func (r *Repository) ListItemsByBid(ctx context.Context, tenantID, tradeBidID uuid.UUID) ([]models.BidLineItem, error) {
	ctx, span := tracing.StartSpan(ctx, "breakdown.Repository.ListItemsByBid")
	defer span.End()

	sb := itemStruct.SelectFrom(itemTable)
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("trade_bid_id", tradeBidID),
	)
	sb.OrderBy("sort_order")

	query, args := sb.Build()
	var items []models.BidLineItem
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		if database.IsSchemaMissing(err) {
			return nil, err
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"tenant_id": tenantID, "trade_bid_id": tradeBidID}).Error("Failed to list bid line items")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list bid line items")
	}
	return items, nil
}

// ListAlternatesByBid returns the bid's alternates in display order
func (r *Repository) ListAlternatesByBid(ctx context.Context, tenantID, tradeBidID uuid.UUID) ([]models.BidAlternate, error) {
	ctx, span := tracing.StartSpan(ctx, "breakdown.Repository.ListAlternatesByBid")
	defer span.End()

	sb := alternateStruct.SelectFrom(alternateTable)
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("trade_bid_id", tradeBidID),
	)
	sb.OrderBy("sort_order")

	query, args := sb.Build()
	var alternates []models.BidAlternate
	if err := r.db.SelectContext(ctx, &alternates, query, args...); err != nil {
		if database.IsSchemaMissing(err) {
			return nil, err
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"tenant_id": tenantID, "trade_bid_id": tradeBidID}).Error("Failed to list bid alternates")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list bid alternates")
	}
	return alternates, nil
}

// UpsertItems writes the given line items, keyed on their caller-supplied
// ids. Existing ids update in place, fresh ids insert.
func (r *Repository) UpsertItems(ctx context.Context, items []models.BidLineItem) error {
	ctx, span := tracing.StartSpan(ctx, "breakdown.Repository.UpsertItems")
	defer span.End()

	if len(items) == 0 {
		return nil
	}

	for _, item := range items {
		ib := itemStruct.InsertInto(itemTable, item)
		ub := ib.OnConflict("id")
		ub.Set(
			ub.Assign("description", database.Excluded("description")),
			ub.Assign("quantity", database.Excluded("quantity")),
			ub.Assign("unit", database.Excluded("unit")),
			ub.Assign("unit_price", database.Excluded("unit_price")),
			ub.Assign("amount_override", database.Excluded("amount_override")),
			ub.Assign("notes", database.Excluded("notes")),
			ub.Assign("sort_order", database.Excluded("sort_order")),
		)

		query, args := ib.Build()
		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			if database.IsSchemaMissing(err) {
				return err
			}
			r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": item.ID, "tenant_id": item.TenantID, "trade_bid_id": item.TradeBidID}).Error("Failed to upsert bid line item")
			return httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert bid line item")
		}
	}
	return nil
}

// UpsertAlternates writes the given alternates, keyed on their
// caller-supplied ids
func (r *Repository) UpsertAlternates(ctx context.Context, alternates []models.BidAlternate) error {
	ctx, span := tracing.StartSpan(ctx, "breakdown.Repository.UpsertAlternates")
	defer span.End()

	if len(alternates) == 0 {
		return nil
	}

	for _, alt := range alternates {
		ib := alternateStruct.InsertInto(alternateTable, alt)
		ub := ib.OnConflict("id")
		ub.Set(
			ub.Assign("title", database.Excluded("title")),
			ub.Assign("accepted", database.Excluded("accepted")),
			ub.Assign("amount", database.Excluded("amount")),
			ub.Assign("notes", database.Excluded("notes")),
			ub.Assign("sort_order", database.Excluded("sort_order")),
		)

		query, args := ib.Build()
		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			if database.IsSchemaMissing(err) {
				return err
			}
			r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": alt.ID, "tenant_id": alt.TenantID, "trade_bid_id": alt.TradeBidID}).Error("Failed to upsert bid alternate")
			return httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert bid alternate")
		}
	}
	return nil
}

// DeleteItemsByIDs deletes line items by ID
func (r *Repository) DeleteItemsByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) error {
	ctx, span := tracing.StartSpan(ctx, "breakdown.Repository.DeleteItemsByIDs")
	defer span.End()

	if len(ids) == 0 {
		return nil
	}

	db := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	db.DeleteFrom(itemTable)
	db.Where(
		db.Equal("tenant_id", tenantID),
		db.In("id", sqlbuilder.Flatten(ids)...),
	)

	query, args := db.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if database.IsSchemaMissing(err) {
			return err
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"tenant_id": tenantID, "ids": ids}).Error("Failed to delete bid line items")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete bid line items")
	}
	return nil
}

// DeleteAlternatesByIDs deletes alternates by ID
func (r *Repository) DeleteAlternatesByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) error {
	ctx, span := tracing.StartSpan(ctx, "breakdown.Repository.DeleteAlternatesByIDs")
	defer span.End()

	if len(ids) == 0 {
		return nil
	}

	db := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	db.DeleteFrom(alternateTable)
	db.Where(
		db.Equal("tenant_id", tenantID),
		db.In("id", sqlbuilder.Flatten(ids)...),
	)

	query, args := db.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if database.IsSchemaMissing(err) {
			return err
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"tenant_id": tenantID, "ids": ids}).Error("Failed to delete bid alternates")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete bid alternates")
	}
	return nil
}

// DeleteAllForBids removes every line item and alternate attached to the
// given bids. Runs ahead of the bid rows themselves during cascading removal.
func (r *Repository) DeleteAllForBids(ctx context.Context, tenantID uuid.UUID, tradeBidIDs []uuid.UUID) error {
	ctx, span := tracing.StartSpan(ctx, "breakdown.Repository.DeleteAllForBids")
	defer span.End()

	if len(tradeBidIDs) == 0 {
		return nil
	}

	for _, table := range []string{itemTable, alternateTable} {
		db := sqlbuilder.PostgreSQL.NewDeleteBuilder()
		db.DeleteFrom(table)
		db.Where(
			db.Equal("tenant_id", tenantID),
			db.In("trade_bid_id", sqlbuilder.Flatten(tradeBidIDs)...),
		)

		query, args := db.Build()
		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			if database.IsSchemaMissing(err) {
				return err
			}
			r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"tenant_id": tenantID, "trade_bid_ids": tradeBidIDs, "table": table}).Error("Failed to delete bid breakdown rows")
			return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete bid breakdown rows")
		}
	}
	return nil
}
