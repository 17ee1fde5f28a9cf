package integration

import (
	"context"
	"net/http"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/laurel/pkg/bidstatus"
	"github.com/Ramsey-B/laurel/pkg/models"
)

// These tests run against a schema that only carries the legacy tables, the
// state of a tenant whose leveling rollout has not happened yet. Writes and
// reads must degrade to legacy-only behavior instead of failing.

func TestUpsertBid_LegacyOnlySchemaWritesLegacyRow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getLegacyOnlyDB(t)
	svc := getTestService(db)
	f := seedProject(t, db, 1, nil)
	ctx := context.Background()

	bid, err := svc.UpsertBid(ctx, f.tenantID, models.UpsertBidRequest{
		ProjectID:    f.projectID,
		TradeID:      f.tradeID,
		ProjectSubID: f.subIDs[0],
		Status:       bidstatus.StatusSubmitted,
		Amount:       amountPtr(180000),
	})
	require.NoError(t, err)
	require.NotNil(t, bid.LegacyBidID)
	assert.Nil(t, bid.TradeBidID, "no enhanced row can exist without the leveling tables")

	count := countRows(t, db,
		`SELECT COUNT(*) FROM project_bids WHERE tenant_id = $1 AND project_id = $2`,
		f.tenantID, f.projectID)
	assert.Equal(t, 1, count)
}

func TestBuildWorkspace_LegacyOnlySchemaReturnsLegacyBids(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getLegacyOnlyDB(t)
	svc := getTestService(db)
	f := seedProject(t, db, 1, nil)
	ctx := context.Background()

	_, err := svc.UpsertBid(ctx, f.tenantID, models.UpsertBidRequest{
		ProjectID:    f.projectID,
		TradeID:      f.tradeID,
		ProjectSubID: f.subIDs[0],
		Status:       bidstatus.StatusBidding,
	})
	require.NoError(t, err)

	workspace, err := svc.BuildWorkspace(ctx, f.tenantID, f.projectID)
	require.NoError(t, err)
	require.Len(t, workspace.Bids, 1)
	assert.Equal(t, bidstatus.StatusBidding, workspace.Bids[0].Status)
	assert.Nil(t, workspace.Bids[0].TradeBidID)
	assert.NotNil(t, workspace.Bids[0].LegacyBidID)
	assert.Empty(t, workspace.Budgets)
	assert.Empty(t, workspace.Snapshots)
}

func TestUpsertBudget_LegacyOnlySchemaConflicts(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getLegacyOnlyDB(t)
	svc := getTestService(db)
	f := seedProject(t, db, 1, nil)

	_, err := svc.UpsertBudget(context.Background(), f.tenantID, models.UpsertBudgetRequest{
		ProjectID: f.projectID,
		TradeID:   f.tradeID,
		Amount:    amountPtr(400000),
	})
	require.Error(t, err)
	require.True(t, httperror.IsHTTPError(err))
	assert.Equal(t, http.StatusConflict, httperror.GetStatusCode(err))
}

func TestRemoveBid_LegacyOnlySchemaDeletesLegacyRows(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getLegacyOnlyDB(t)
	svc := getTestService(db)
	f := seedProject(t, db, 1, nil)
	ctx := context.Background()

	_, err := svc.UpsertBid(ctx, f.tenantID, models.UpsertBidRequest{
		ProjectID:    f.projectID,
		TradeID:      f.tradeID,
		ProjectSubID: f.subIDs[0],
		Status:       bidstatus.StatusSubmitted,
		Amount:       amountPtr(95000),
	})
	require.NoError(t, err)

	err = svc.RemoveBid(ctx, f.tenantID, models.RemoveBidRequest{
		ProjectID:    f.projectID,
		TradeID:      f.tradeID,
		ProjectSubID: f.subIDs[0],
	})
	require.NoError(t, err)

	count := countRows(t, db,
		`SELECT COUNT(*) FROM project_bids WHERE tenant_id = $1 AND project_id = $2`,
		f.tenantID, f.projectID)
	assert.Equal(t, 0, count)
}
