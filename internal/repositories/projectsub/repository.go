package projectsub

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

// Repository reads project sub links. A subcontractor re-invited to the same
// project holds multiple rows; rows sharing a subcontractor_id are aliases of
// one bidding identity.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new project sub repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// ListByProject returns the project's sub links in grid order
func (r *Repository) ListByProject(ctx context.Context, tenantID, projectID uuid.UUID) ([]models.ProjectSub, error) {
	ctx, span := tracing.StartSpan(ctx, "projectsub.Repository.ListByProject")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "tenant_id", "project_id", "subcontractor_id", "invited_at", "sort_order")
	sb.From("project_subs")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("project_id", projectID),
	)
	sb.OrderBy("sort_order", "invited_at NULLS LAST")

	query, args := sb.Build()
	var subs []models.ProjectSub
	if err := r.db.SelectContext(ctx, &subs, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"tenant_id": tenantID, "project_id": projectID}).Error("Failed to list project subs")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list project subs")
	}
	return subs, nil
}

// Get retrieves a project sub link by ID
func (r *Repository) Get(ctx context.Context, tenantID, id uuid.UUID) (*models.ProjectSub, error) {
	ctx, span := tracing.StartSpan(ctx, "projectsub.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "tenant_id", "project_id", "subcontractor_id", "invited_at", "sort_order")
	sb.From("project_subs")
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
	)

	query, args := sb.Build()
	var sub models.ProjectSub
	if err := r.db.GetContext(ctx, &sub, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "project sub %s not found", id)
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id, "tenant_id": tenantID}).Error("Failed to get project sub")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get project sub")
	}

	return &sub, nil
}

// ListBySubcontractor returns every sub link the subcontractor holds on the
// project. Used to resolve alias links during cascading bid removal.
func (r *Repository) ListBySubcontractor(ctx context.Context, tenantID, projectID, subcontractorID uuid.UUID) ([]models.ProjectSub, error) {
	ctx, span := tracing.StartSpan(ctx, "projectsub.Repository.ListBySubcontractor")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "tenant_id", "project_id", "subcontractor_id", "invited_at", "sort_order")
	sb.From("project_subs")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("project_id", projectID),
		sb.Equal("subcontractor_id", subcontractorID),
	)
	sb.OrderBy("invited_at NULLS LAST")

	query, args := sb.Build()
	var subs []models.ProjectSub
	if err := r.db.SelectContext(ctx, &subs, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"tenant_id": tenantID, "project_id": projectID, "subcontractor_id": subcontractorID}).Error("Failed to list sub links by subcontractor")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list sub links")
	}
	return subs, nil
}
