package integration

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/laurel/pkg/bidstatus"
	"github.com/Ramsey-B/laurel/pkg/models"
)

func TestUpsertBid_DualWrite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getTestDB(t)
	svc := getTestService(db)
	f := seedProject(t, db, 1, nil)
	ctx := context.Background()

	bid, err := svc.UpsertBid(ctx, f.tenantID, models.UpsertBidRequest{
		ProjectID:    f.projectID,
		TradeID:      f.tradeID,
		ProjectSubID: f.subIDs[0],
		Status:       bidstatus.StatusSubmitted,
		Amount:       amountPtr(125000),
		Notes:        strPtr("includes permit fees"),
	})
	require.NoError(t, err)
	require.NotNil(t, bid.TradeBidID)
	require.NotNil(t, bid.LegacyBidID)
	assert.Equal(t, bidstatus.StatusSubmitted, bid.Status)
	assert.True(t, bid.IsLow, "a lone submitted bid is the low bid")

	// Both representations hold the row, and the enhanced row carries the
	// legacy back-reference.
	assert.Equal(t, 1, countRows(t, db, `SELECT COUNT(*) FROM project_bids WHERE tenant_id = $1 AND project_id = $2`, f.tenantID, f.projectID))
	assert.Equal(t, 1, countRows(t, db, `SELECT COUNT(*) FROM trade_bids WHERE tenant_id = $1 AND project_id = $2 AND legacy_bid_id = $3`, f.tenantID, f.projectID, *bid.LegacyBidID))

	var legacyStatus string
	require.NoError(t, db.GetContext(ctx, &legacyStatus, `SELECT status FROM project_bids WHERE id = $1`, *bid.LegacyBidID))
	assert.Equal(t, "submitted", legacyStatus)

	// Second upsert at the same cell updates in place: still one row per
	// representation, same ids.
	updated, err := svc.UpsertBid(ctx, f.tenantID, models.UpsertBidRequest{
		ProjectID:    f.projectID,
		TradeID:      f.tradeID,
		ProjectSubID: f.subIDs[0],
		Status:       bidstatus.StatusDeclined,
		Amount:       nil,
	})
	require.NoError(t, err)
	assert.Equal(t, *bid.TradeBidID, *updated.TradeBidID)
	assert.Equal(t, *bid.LegacyBidID, *updated.LegacyBidID)
	assert.Equal(t, 1, countRows(t, db, `SELECT COUNT(*) FROM project_bids WHERE tenant_id = $1 AND project_id = $2`, f.tenantID, f.projectID))
	assert.Equal(t, 1, countRows(t, db, `SELECT COUNT(*) FROM trade_bids WHERE tenant_id = $1 AND project_id = $2`, f.tenantID, f.projectID))
}

func TestUpsertBid_NoResponseMirrorsAsGhosted(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getTestDB(t)
	svc := getTestService(db)
	f := seedProject(t, db, 1, nil)
	ctx := context.Background()

	bid, err := svc.UpsertBid(ctx, f.tenantID, models.UpsertBidRequest{
		ProjectID:    f.projectID,
		TradeID:      f.tradeID,
		ProjectSubID: f.subIDs[0],
		Status:       bidstatus.StatusNoResponse,
	})
	require.NoError(t, err)
	require.NotNil(t, bid.LegacyBidID)

	// The legacy vocabulary has no "no_response"; the mirror row is created
	// with the translated status.
	var legacyStatus string
	require.NoError(t, db.GetContext(ctx, &legacyStatus, `SELECT status FROM project_bids WHERE id = $1`, *bid.LegacyBidID))
	assert.Equal(t, "ghosted", legacyStatus)
}

func TestRemoveBid_CascadesAcrossAliasSubLinks(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getTestDB(t)
	svc := getTestService(db)

	// One subcontractor invited twice: two sub links, same subcontractor_id.
	subcontractorID := uuid.New()
	f := seedProject(t, db, 2, map[int]uuid.UUID{0: subcontractorID, 1: subcontractorID})
	ctx := context.Background()

	for _, subID := range f.subIDs {
		bid, err := svc.UpsertBid(ctx, f.tenantID, models.UpsertBidRequest{
			ProjectID:    f.projectID,
			TradeID:      f.tradeID,
			ProjectSubID: subID,
			Status:       bidstatus.StatusSubmitted,
			Amount:       amountPtr(99000),
		})
		require.NoError(t, err)

		_, err = svc.SaveBreakdown(ctx, f.tenantID, models.SaveBreakdownRequest{
			ProjectID:    f.projectID,
			TradeID:      f.tradeID,
			ProjectSubID: subID,
			BaseItems: []models.LineItemInput{
				{ID: uuid.New(), Description: "rough-in", AmountOverride: amountPtr(40000)},
			},
		})
		require.NoError(t, err)
		require.NotNil(t, bid.TradeBidID)
	}

	require.Equal(t, 2, countRows(t, db, `SELECT COUNT(*) FROM trade_bids WHERE tenant_id = $1 AND project_id = $2`, f.tenantID, f.projectID))
	require.Equal(t, 2, countRows(t, db, `SELECT COUNT(*) FROM trade_bid_items WHERE tenant_id = $1`, f.tenantID))

	// Remove names only one sub link and no alias list; the engine resolves
	// the re-invited alias by subcontractor lookup.
	err := svc.RemoveBid(ctx, f.tenantID, models.RemoveBidRequest{
		ProjectID:    f.projectID,
		TradeID:      f.tradeID,
		ProjectSubID: f.subIDs[0],
	})
	require.NoError(t, err)

	assert.Equal(t, 0, countRows(t, db, `SELECT COUNT(*) FROM trade_bids WHERE tenant_id = $1 AND project_id = $2`, f.tenantID, f.projectID))
	assert.Equal(t, 0, countRows(t, db, `SELECT COUNT(*) FROM trade_bid_items WHERE tenant_id = $1`, f.tenantID))
	assert.Equal(t, 0, countRows(t, db, `SELECT COUNT(*) FROM project_bids WHERE tenant_id = $1 AND project_id = $2`, f.tenantID, f.projectID))

	// Removal is idempotent.
	err = svc.RemoveBid(ctx, f.tenantID, models.RemoveBidRequest{
		ProjectID:    f.projectID,
		TradeID:      f.tradeID,
		ProjectSubID: f.subIDs[0],
	})
	require.NoError(t, err)
}

func TestSaveBreakdown_PreservesRowIdentity(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getTestDB(t)
	svc := getTestService(db)
	f := seedProject(t, db, 1, nil)
	ctx := context.Background()

	_, err := svc.UpsertBid(ctx, f.tenantID, models.UpsertBidRequest{
		ProjectID:    f.projectID,
		TradeID:      f.tradeID,
		ProjectSubID: f.subIDs[0],
		Status:       bidstatus.StatusSubmitted,
		Amount:       amountPtr(250000),
	})
	require.NoError(t, err)

	itemA := uuid.New()
	itemB := uuid.New()
	altA := uuid.New()

	save := func(items []models.LineItemInput, alternates []models.AlternateInput) *models.Breakdown {
		bd, err := svc.SaveBreakdown(ctx, f.tenantID, models.SaveBreakdownRequest{
			ProjectID:    f.projectID,
			TradeID:      f.tradeID,
			ProjectSubID: f.subIDs[0],
			BaseItems:    items,
			Alternates:   alternates,
		})
		require.NoError(t, err)
		return bd
	}

	save(
		[]models.LineItemInput{
			{ID: itemA, Description: "panels", Quantity: amountPtr(12), UnitPrice: amountPtr(1800)},
			{ID: itemB, Description: "wiring", AmountOverride: amountPtr(60000)},
		},
		[]models.AlternateInput{
			{ID: altA, Title: "copper upgrade", Amount: amountPtr(4500)},
		},
	)
	require.Equal(t, 2, countRows(t, db, `SELECT COUNT(*) FROM trade_bid_items WHERE tenant_id = $1`, f.tenantID))
	require.Equal(t, 1, countRows(t, db, `SELECT COUNT(*) FROM trade_bid_alternates WHERE tenant_id = $1`, f.tenantID))

	// Re-saving the same ids edits in place: no new rows, same identities.
	save(
		[]models.LineItemInput{
			{ID: itemA, Description: "panels (revised)", Quantity: amountPtr(14), UnitPrice: amountPtr(1750)},
			{ID: itemB, Description: "wiring", AmountOverride: amountPtr(58000)},
		},
		[]models.AlternateInput{
			{ID: altA, Title: "copper upgrade", Amount: amountPtr(4200)},
		},
	)
	assert.Equal(t, 2, countRows(t, db, `SELECT COUNT(*) FROM trade_bid_items WHERE tenant_id = $1`, f.tenantID))
	assert.Equal(t, 1, countRows(t, db, `SELECT COUNT(*) FROM trade_bid_items WHERE id = $1 AND description = $2`, itemA, "panels (revised)"))

	// Dropping an id deletes exactly that row; a fresh id creates one.
	itemC := uuid.New()
	save(
		[]models.LineItemInput{
			{ID: itemA, Description: "panels (revised)"},
			{ID: itemC, Description: "fixtures", AmountOverride: amountPtr(12000)},
		},
		nil,
	)
	assert.Equal(t, 2, countRows(t, db, `SELECT COUNT(*) FROM trade_bid_items WHERE tenant_id = $1`, f.tenantID))
	assert.Equal(t, 0, countRows(t, db, `SELECT COUNT(*) FROM trade_bid_items WHERE id = $1`, itemB))
	assert.Equal(t, 1, countRows(t, db, `SELECT COUNT(*) FROM trade_bid_items WHERE id = $1`, itemC))
	assert.Equal(t, 0, countRows(t, db, `SELECT COUNT(*) FROM trade_bid_alternates WHERE tenant_id = $1`, f.tenantID))
}

func TestSaveBreakdown_NoEnhancedBidIsNoOp(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getTestDB(t)
	svc := getTestService(db)
	f := seedProject(t, db, 1, nil)

	bd, err := svc.SaveBreakdown(context.Background(), f.tenantID, models.SaveBreakdownRequest{
		ProjectID:    f.projectID,
		TradeID:      f.tradeID,
		ProjectSubID: f.subIDs[0],
		BaseItems: []models.LineItemInput{
			{ID: uuid.New(), Description: "orphan"},
		},
	})
	require.NoError(t, err)
	assert.Empty(t, bd.BaseItems)
	assert.Equal(t, 0, countRows(t, db, `SELECT COUNT(*) FROM trade_bid_items WHERE tenant_id = $1`, f.tenantID))
}

func TestSnapshot_FreezesStateAgainstLaterWrites(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getTestDB(t)
	svc := getTestService(db)
	f := seedProject(t, db, 1, nil)
	ctx := context.Background()

	_, err := svc.UpsertBid(ctx, f.tenantID, models.UpsertBidRequest{
		ProjectID:    f.projectID,
		TradeID:      f.tradeID,
		ProjectSubID: f.subIDs[0],
		Status:       bidstatus.StatusSubmitted,
		Amount:       amountPtr(100000),
	})
	require.NoError(t, err)

	altID := uuid.New()
	_, err = svc.SaveBreakdown(ctx, f.tenantID, models.SaveBreakdownRequest{
		ProjectID:    f.projectID,
		TradeID:      f.tradeID,
		ProjectSubID: f.subIDs[0],
		BaseItems: []models.LineItemInput{
			{ID: uuid.New(), Description: "Panel upgrade", AmountOverride: amountPtr(100000)},
		},
		Alternates: []models.AlternateInput{
			{ID: altID, Title: "Generator tie-in", Accepted: true, Amount: amountPtr(12000)},
		},
	})
	require.NoError(t, err)

	header, err := svc.CreateSnapshot(ctx, f.tenantID, uuid.New(), models.CreateSnapshotRequest{
		ProjectID: f.projectID,
		Title:     "Round 1",
	})
	require.NoError(t, err)
	assert.True(t, header.Locked)

	// Later writes must not leak into the frozen rows.
	_, err = svc.UpsertBid(ctx, f.tenantID, models.UpsertBidRequest{
		ProjectID:    f.projectID,
		TradeID:      f.tradeID,
		ProjectSubID: f.subIDs[0],
		Status:       bidstatus.StatusSubmitted,
		Amount:       amountPtr(250000),
	})
	require.NoError(t, err)

	fetched, items, err := svc.GetSnapshot(ctx, f.tenantID, header.ID)
	require.NoError(t, err)
	assert.Equal(t, "Round 1", fetched.Title)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].BaseAmount)
	assert.Equal(t, float64(100000), *items[0].BaseAmount)
	require.NotNil(t, items[0].Items)
	require.Len(t, items[0].Items.BaseItems, 1)
	assert.Equal(t, "Panel upgrade", items[0].Items.BaseItems[0].Description)
	assert.True(t, items[0].Included[altID.String()])

	snapshots, err := svc.ListSnapshots(ctx, f.tenantID, f.projectID)
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, header.ID, snapshots[0].ID)
}

func TestBuildWorkspace_MergesBothRepresentations(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getTestDB(t)
	svc := getTestService(db)
	f := seedProject(t, db, 2, nil)
	ctx := context.Background()

	// A legacy-only row written before any migration, with the old status
	// vocabulary.
	legacyID := uuid.New()
	_, err := db.ExecContext(ctx,
		`INSERT INTO project_bids (id, tenant_id, project_id, trade_id, project_sub_id, status, amount, contact_name, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, 'ghosted', NULL, 'Pat', NOW(), NOW())`,
		legacyID, f.tenantID, f.projectID, f.tradeID, f.subIDs[0])
	require.NoError(t, err)

	// An enhanced bid on the second sub link.
	_, err = svc.UpsertBid(ctx, f.tenantID, models.UpsertBidRequest{
		ProjectID:    f.projectID,
		TradeID:      f.tradeID,
		ProjectSubID: f.subIDs[1],
		Status:       bidstatus.StatusSubmitted,
		Amount:       amountPtr(180000),
	})
	require.NoError(t, err)

	workspace, err := svc.BuildWorkspace(ctx, f.tenantID, f.projectID)
	require.NoError(t, err)
	require.Len(t, workspace.Bids, 2)

	byKey := map[models.BidKey]models.LeveledBid{}
	for _, bid := range workspace.Bids {
		byKey[bid.Key()] = bid
	}

	legacyOnly := byKey[models.BidKey{TradeID: f.tradeID, ProjectSubID: f.subIDs[0]}]
	assert.Equal(t, bidstatus.StatusNoResponse, legacyOnly.Status, "legacy ghosted is presented as no_response")
	require.NotNil(t, legacyOnly.LegacyBidID)
	assert.Equal(t, legacyID, *legacyOnly.LegacyBidID)
	require.NotNil(t, legacyOnly.ContactName)
	assert.Equal(t, "Pat", *legacyOnly.ContactName)
	assert.Nil(t, legacyOnly.TradeBidID)

	enhanced := byKey[models.BidKey{TradeID: f.tradeID, ProjectSubID: f.subIDs[1]}]
	assert.Equal(t, bidstatus.StatusSubmitted, enhanced.Status)
	require.NotNil(t, enhanced.Amount)
	assert.Equal(t, float64(180000), *enhanced.Amount)
	require.NotNil(t, enhanced.TradeBidID)
}

func TestLowBidFlags_TiesAndRecalculation(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getTestDB(t)
	svc := getTestService(db)
	f := seedProject(t, db, 3, nil)
	ctx := context.Background()

	amounts := []float64{100000, 90000, 90000}
	for i, subID := range f.subIDs {
		_, err := svc.UpsertBid(ctx, f.tenantID, models.UpsertBidRequest{
			ProjectID:    f.projectID,
			TradeID:      f.tradeID,
			ProjectSubID: subID,
			Status:       bidstatus.StatusSubmitted,
			Amount:       amountPtr(amounts[i]),
		})
		require.NoError(t, err)
	}

	// Exact tie: both 90000 bids carry the flag.
	assert.Equal(t, 2, countRows(t, db, `SELECT COUNT(*) FROM trade_bids WHERE tenant_id = $1 AND trade_id = $2 AND is_low`, f.tenantID, f.tradeID))

	// A new low bid steals the flag from both.
	result, err := svc.UpsertBid(ctx, f.tenantID, models.UpsertBidRequest{
		ProjectID:    f.projectID,
		TradeID:      f.tradeID,
		ProjectSubID: f.subIDs[0],
		Status:       bidstatus.StatusSubmitted,
		Amount:       amountPtr(80000),
	})
	require.NoError(t, err)
	assert.True(t, result.IsLow)
	assert.Equal(t, 1, countRows(t, db, `SELECT COUNT(*) FROM trade_bids WHERE tenant_id = $1 AND trade_id = $2 AND is_low`, f.tenantID, f.tradeID))
}

func TestUpsertBudget_KeyedUpsert(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getTestDB(t)
	svc := getTestService(db)
	f := seedProject(t, db, 1, nil)
	ctx := context.Background()

	first, err := svc.UpsertBudget(ctx, f.tenantID, models.UpsertBudgetRequest{
		ProjectID: f.projectID,
		TradeID:   f.tradeID,
		Amount:    amountPtr(500000),
	})
	require.NoError(t, err)

	second, err := svc.UpsertBudget(ctx, f.tenantID, models.UpsertBudgetRequest{
		ProjectID: f.projectID,
		TradeID:   f.tradeID,
		Amount:    amountPtr(525000),
		Notes:     strPtr("revised after VE"),
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, countRows(t, db, `SELECT COUNT(*) FROM project_trade_budgets WHERE tenant_id = $1`, f.tenantID))

	var amount float64
	require.NoError(t, db.GetContext(ctx, &amount, `SELECT amount FROM project_trade_budgets WHERE id = $1`, second.ID))
	assert.Equal(t, float64(525000), amount)
}
