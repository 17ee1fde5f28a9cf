package leveling

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	pkgcontext "github.com/Ramsey-B/laurel/pkg/context"
	"github.com/Ramsey-B/laurel/pkg/leveling"
	"github.com/Ramsey-B/laurel/pkg/models"
)

var validate = validator.New()

// Register registers bid leveling routes
func Register(g *echo.Group) {
	g.GET("/projects/:projectId/workspace", GetWorkspace)
	g.PUT("/bids", UpsertBid)
	g.DELETE("/bids", RemoveBid)
	g.GET("/bids/breakdown", GetBreakdown)
	g.PUT("/bids/breakdown", SaveBreakdown)
	g.PUT("/budgets", UpsertBudget)
	g.POST("/snapshots", CreateSnapshot)
	g.GET("/snapshots/:id", GetSnapshot)
	g.GET("/projects/:projectId/snapshots", ListSnapshots)
}

func tenantFromContext(c echo.Context) (uuid.UUID, error) {
	tenantID, err := uuid.Parse(pkgcontext.GetTenantID(c.Request().Context()))
	if err != nil {
		return uuid.Nil, httperror.NewHTTPError(http.StatusUnauthorized, "tenant id is required")
	}
	return tenantID, nil
}

// GetWorkspace returns the merged leveling view for a project
func GetWorkspace(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, err := tenantFromContext(c)
	if err != nil {
		return err
	}

	projectID, err := uuid.Parse(c.Param("projectId"))
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid project id")
	}

	ctx, svc, err := ectoinject.GetContext[*leveling.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	workspace, err := svc.BuildWorkspace(ctx, tenantID, projectID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, workspace)
}

// UpsertBid writes a bid's status, amount and notes to both representations
func UpsertBid(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, err := tenantFromContext(c)
	if err != nil {
		return err
	}

	var req models.UpsertBidRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid request: %v", err)
	}
	if !req.Status.IsValid() {
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid bid status %q", req.Status)
	}

	ctx, svc, err := ectoinject.GetContext[*leveling.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	bid, err := svc.UpsertBid(ctx, tenantID, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, bid)
}

// RemoveBid deletes a bid across every representation and alias sub link
func RemoveBid(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, err := tenantFromContext(c)
	if err != nil {
		return err
	}

	var req models.RemoveBidRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid request: %v", err)
	}

	ctx, svc, err := ectoinject.GetContext[*leveling.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	if err := svc.RemoveBid(ctx, tenantID, req); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// GetBreakdown returns the persisted breakdown for one bid cell
func GetBreakdown(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, err := tenantFromContext(c)
	if err != nil {
		return err
	}

	projectID, err := uuid.Parse(c.QueryParam("project_id"))
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid project_id")
	}
	tradeID, err := uuid.Parse(c.QueryParam("trade_id"))
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid trade_id")
	}
	projectSubID, err := uuid.Parse(c.QueryParam("project_sub_id"))
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid project_sub_id")
	}

	ctx, svc, err := ectoinject.GetContext[*leveling.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	bd, err := svc.GetBreakdown(ctx, tenantID, projectID, tradeID, projectSubID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, bd)
}

// SaveBreakdown reconciles a bid's line items and alternates to the desired state
func SaveBreakdown(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, err := tenantFromContext(c)
	if err != nil {
		return err
	}

	var req models.SaveBreakdownRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid request: %v", err)
	}

	ctx, svc, err := ectoinject.GetContext[*leveling.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	bd, err := svc.SaveBreakdown(ctx, tenantID, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, bd)
}

// UpsertBudget writes the per-trade budget figure
func UpsertBudget(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, err := tenantFromContext(c)
	if err != nil {
		return err
	}

	var req models.UpsertBudgetRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid request: %v", err)
	}

	ctx, svc, err := ectoinject.GetContext[*leveling.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	budget, err := svc.UpsertBudget(ctx, tenantID, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, budget)
}

// CreateSnapshot freezes the current leveling state under a new snapshot
func CreateSnapshot(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, err := tenantFromContext(c)
	if err != nil {
		return err
	}

	var req models.CreateSnapshotRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid request: %v", err)
	}

	// Best effort: an unauthenticated caller freezes with a nil author.
	createdBy, _ := uuid.Parse(pkgcontext.GetUserID(ctx))

	ctx, svc, err := ectoinject.GetContext[*leveling.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	snapshot, err := svc.CreateSnapshot(ctx, tenantID, createdBy, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, snapshot)
}

// SnapshotResponse is a snapshot header with its frozen rows
type SnapshotResponse struct {
	models.BidSnapshot
	Items []models.BidSnapshotItem `json:"items"`
}

// GetSnapshot returns a snapshot header with its frozen rows
func GetSnapshot(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, err := tenantFromContext(c)
	if err != nil {
		return err
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid snapshot id")
	}

	ctx, svc, err := ectoinject.GetContext[*leveling.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	header, items, err := svc.GetSnapshot(ctx, tenantID, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, SnapshotResponse{BidSnapshot: *header, Items: items})
}

// ListSnapshots returns a project's snapshot headers, newest first
func ListSnapshots(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, err := tenantFromContext(c)
	if err != nil {
		return err
	}

	projectID, err := uuid.Parse(c.Param("projectId"))
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid project id")
	}

	ctx, svc, err := ectoinject.GetContext[*leveling.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	snapshots, err := svc.ListSnapshots(ctx, tenantID, projectID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, snapshots)
}
