package trade

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

// Repository reads project trades. Trades are owned by project setup and are
// read-only to the leveling engine.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new trade repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// ListByProject returns the project's trades in grid order
func (r *Repository) ListByProject(ctx context.Context, tenantID, projectID uuid.UUID) ([]models.Trade, error) {
	ctx, span := tracing.StartSpan(ctx, "trade.Repository.ListByProject")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "tenant_id", "project_id", "name", "sort_order", "created_at", "updated_at")
	sb.From("trades")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("project_id", projectID),
	)
	sb.OrderBy("sort_order", "name")

	query, args := sb.Build()
	var trades []models.Trade
	if err := r.db.SelectContext(ctx, &trades, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"tenant_id": tenantID, "project_id": projectID}).Error("Failed to list trades")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list trades")
	}
	return trades, nil
}

// Get retrieves a trade by ID
func (r *Repository) Get(ctx context.Context, tenantID, id uuid.UUID) (*models.Trade, error) {
	ctx, span := tracing.StartSpan(ctx, "trade.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "tenant_id", "project_id", "name", "sort_order", "created_at", "updated_at")
	sb.From("trades")
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
	)

	query, args := sb.Build()
	var t models.Trade
	if err := r.db.GetContext(ctx, &t, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "trade %s not found", id)
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id, "tenant_id": tenantID}).Error("Failed to get trade")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get trade")
	}

	return &t, nil
}
