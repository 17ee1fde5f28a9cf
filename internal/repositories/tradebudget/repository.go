package tradebudget

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

const budgetTable = "project_trade_budgets"

var budgetStruct = database.NewStruct(new(models.TradeBudget))

// Repository handles per-trade budget persistence. Budgets live in the
// optional leveling schema.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new trade budget repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// ListByProject returns every trade budget on the project
func (r *Repository) ListByProject(ctx context.Context, tenantID, projectID uuid.UUID) ([]models.TradeBudget, error) {
	ctx, span := tracing.StartSpan(ctx, "tradebudget.Repository.ListByProject")
	defer span.End()

	sb := budgetStruct.SelectFrom(budgetTable)
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("project_id", projectID),
	)
	sb.OrderBy("created_at")

	query, args := sb.Build()
	var budgets []models.TradeBudget
	if err := r.db.SelectContext(ctx, &budgets, query, args...); err != nil {
		if database.IsSchemaMissing(err) {
			return nil, err
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"tenant_id": tenantID, "project_id": projectID}).Error("Failed to list trade budgets")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list trade budgets")
	}
	return budgets, nil
}

// Upsert creates or updates the budget at its (tenant, project, trade) key
func (r *Repository) Upsert(ctx context.Context, budget *models.TradeBudget) (*models.TradeBudget, error) {
	ctx, span := tracing.StartSpan(ctx, "tradebudget.Repository.Upsert")
	defer span.End()

	now := time.Now().UTC()
	if budget.ID == uuid.Nil {
		budget.ID = uuid.New()
	}
	budget.CreatedAt = now
	budget.UpdatedAt = now

	ib := budgetStruct.InsertInto(budgetTable, *budget)
	ub := ib.OnConflict("tenant_id", "project_id", "trade_id")
	ub.Set(
		ub.Assign("amount", database.Excluded("amount")),
		ub.Assign("notes", database.Excluded("notes")),
		ub.Assign("updated_at", now),
	)
	ib = ib.Returning("id", "created_at")

	query, args := ib.Build()
	var row struct {
		ID        uuid.UUID `db:"id"`
		CreatedAt time.Time `db:"created_at"`
	}
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if database.IsSchemaMissing(err) {
			return nil, err
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"tenant_id": budget.TenantID, "project_id": budget.ProjectID, "trade_id": budget.TradeID}).Error("Failed to upsert trade budget")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert trade budget")
	}

	budget.ID = row.ID
	budget.CreatedAt = row.CreatedAt

	return budget, nil
}
