package leveling

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/laurel/internal/repositories/breakdown"
	"github.com/Ramsey-B/laurel/internal/repositories/legacybid"
	"github.com/Ramsey-B/laurel/internal/repositories/project"
	"github.com/Ramsey-B/laurel/internal/repositories/projectsub"
	"github.com/Ramsey-B/laurel/internal/repositories/snapshot"
	"github.com/Ramsey-B/laurel/internal/repositories/trade"
	"github.com/Ramsey-B/laurel/internal/repositories/tradebid"
	"github.com/Ramsey-B/laurel/internal/repositories/tradebudget"
	"github.com/Ramsey-B/laurel/pkg/bidstatus"
	"github.com/Ramsey-B/laurel/pkg/database"
	"github.com/Ramsey-B/laurel/pkg/events"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/tracing"
)

// Service orchestrates bid leveling: the merged workspace view, dual-write
// bid upserts, cascading removal, breakdown reconciliation, budgets and
// snapshots. Writes against the legacy schema are mandatory; writes against
// the leveling schema are absorbed while a tenant's migration is pending.
type Service struct {
	logger        ectologger.Logger
	projectRepo   *project.Repository
	tradeRepo     *trade.Repository
	subRepo       *projectsub.Repository
	legacyRepo    *legacybid.Repository
	bidRepo       *tradebid.Repository
	breakdownRepo *breakdown.Repository
	budgetRepo    *tradebudget.Repository
	snapshotRepo  *snapshot.Repository
	emitter       *events.Emitter
}

// NewService creates a new leveling service. The emitter may be nil when no
// broker is configured; events are then skipped.
func NewService(
	logger ectologger.Logger,
	projectRepo *project.Repository,
	tradeRepo *trade.Repository,
	subRepo *projectsub.Repository,
	legacyRepo *legacybid.Repository,
	bidRepo *tradebid.Repository,
	breakdownRepo *breakdown.Repository,
	budgetRepo *tradebudget.Repository,
	snapshotRepo *snapshot.Repository,
	emitter *events.Emitter,
) *Service {
	return &Service{
		logger:        logger,
		projectRepo:   projectRepo,
		tradeRepo:     tradeRepo,
		subRepo:       subRepo,
		legacyRepo:    legacyRepo,
		bidRepo:       bidRepo,
		breakdownRepo: breakdownRepo,
		budgetRepo:    budgetRepo,
		snapshotRepo:  snapshotRepo,
		emitter:       emitter,
	}
}

// BuildWorkspace returns the merged leveling view for a project: trades and
// sub links in grid order plus one leveled bid per populated cell. Leveling
// schema reads degrade to legacy-only data when the tenant has not migrated.
func (s *Service) BuildWorkspace(ctx context.Context, tenantID, projectID uuid.UUID) (*models.Workspace, error) {
	ctx, span := tracing.StartSpan(ctx, "leveling.Service.BuildWorkspace")
	defer span.End()

	log := s.logger.WithContext(ctx).WithFields(map[string]any{"tenant_id": tenantID, "project_id": projectID})

	proj, err := s.projectRepo.Get(ctx, tenantID, projectID)
	if err != nil {
		return nil, err
	}

	trades, err := s.tradeRepo.ListByProject(ctx, tenantID, projectID)
	if err != nil {
		return nil, err
	}

	subs, err := s.subRepo.ListByProject(ctx, tenantID, projectID)
	if err != nil {
		return nil, err
	}

	legacy, err := s.legacyRepo.ListByProject(ctx, tenantID, projectID)
	if err != nil {
		return nil, err
	}

	enhanced, err := s.bidRepo.ListByProject(ctx, tenantID, projectID)
	if err != nil {
		if !database.IsSchemaMissing(err) {
			return nil, err
		}
		log.Warn("Leveling schema missing; building workspace from legacy bids only")
		enhanced = nil
	}

	merged, err := MergeBids(legacy, enhanced)
	if err != nil {
		log.WithError(err).Error("Failed to merge bid representations")
		return nil, httperror.NewHTTPErrorf(http.StatusInternalServerError, "failed to merge bids: %v", err)
	}

	// Grid order: trades outer, sub links inner. Cells with no bid are omitted.
	bids := make([]models.LeveledBid, 0, len(merged))
	for _, t := range trades {
		for _, sub := range subs {
			if bid, ok := merged[models.BidKey{TradeID: t.ID, ProjectSubID: sub.ID}]; ok {
				bids = append(bids, bid)
			}
		}
	}

	budgets, err := s.budgetRepo.ListByProject(ctx, tenantID, projectID)
	if err != nil {
		if !database.IsSchemaMissing(err) {
			return nil, err
		}
		budgets = nil
	}

	snapshots, err := s.snapshotRepo.ListByProject(ctx, tenantID, projectID)
	if err != nil {
		if !database.IsSchemaMissing(err) {
			return nil, err
		}
		snapshots = nil
	}

	return &models.Workspace{
		Project:   *proj,
		Trades:    trades,
		Subs:      subs,
		Bids:      bids,
		Budgets:   budgets,
		Snapshots: snapshots,
	}, nil
}

// UpsertBid writes a bid to both representations. The legacy row is written
// first and is mandatory; the enhanced row carries its id as a back-reference
// and is absorbed when the leveling schema is missing. Low bid flags for the
// trade are recalculated afterwards.
func (s *Service) UpsertBid(ctx context.Context, tenantID uuid.UUID, req models.UpsertBidRequest) (*models.LeveledBid, error) {
	ctx, span := tracing.StartSpan(ctx, "leveling.Service.UpsertBid")
	defer span.End()

	log := s.logger.WithContext(ctx).WithFields(map[string]any{
		"tenant_id":      tenantID,
		"project_id":     req.ProjectID,
		"trade_id":       req.TradeID,
		"project_sub_id": req.ProjectSubID,
		"status":         req.Status,
	})

	legacyStatus, err := bidstatus.ToLegacy(req.Status)
	if err != nil {
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid bid status %q", req.Status)
	}

	legacyID, err := s.mirrorLegacyBid(ctx, tenantID, req, legacyStatus)
	if err != nil {
		return nil, err
	}

	result := &models.LeveledBid{
		TradeID:      req.TradeID,
		ProjectSubID: req.ProjectSubID,
		Status:       req.Status,
		Amount:       req.Amount,
		Notes:        req.Notes,
		ContactName:  req.ContactName,
		ReceivedAt:   req.ReceivedAt,
		LegacyBidID:  &legacyID,
	}

	enhanced := &models.TradeBid{
		TenantID:     tenantID,
		ProjectID:    req.ProjectID,
		TradeID:      req.TradeID,
		ProjectSubID: req.ProjectSubID,
		Status:       req.Status,
		BaseAmount:   req.Amount,
		ReceivedAt:   req.ReceivedAt,
		Notes:        req.Notes,
		LegacyBidID:  &legacyID,
	}

	enhanced, err = s.bidRepo.Upsert(ctx, enhanced)
	if err != nil {
		if !database.IsSchemaMissing(err) {
			return nil, err
		}
		log.Warn("Leveling schema missing; bid written to legacy representation only")
		return result, nil
	}
	result.TradeBidID = &enhanced.ID
	result.IsLow = enhanced.IsLow

	marked, err := s.RecalculateLowBids(ctx, tenantID, req.ProjectID, req.TradeID)
	if err != nil {
		if !database.IsSchemaMissing(err) {
			return nil, err
		}
	}
	for _, bid := range marked {
		if bid.ID == enhanced.ID {
			result.IsLow = bid.IsLow
			break
		}
	}

	if s.emitter != nil {
		_ = s.emitter.EmitBidUpdated(ctx, tenantID, req.ProjectID, *result)
	}

	return result, nil
}

// mirrorLegacyBid resolves and writes the legacy row for an upsert: by id
// when a back-reference exists, by key otherwise, inserting when the slot has
// never been bid. Returns the legacy row id.
func (s *Service) mirrorLegacyBid(ctx context.Context, tenantID uuid.UUID, req models.UpsertBidRequest, status bidstatus.LegacyStatus) (uuid.UUID, error) {
	ctx, span := tracing.StartSpan(ctx, "leveling.Service.mirrorLegacyBid")
	defer span.End()

	if req.LegacyBidID != nil {
		if err := s.legacyRepo.UpdateByID(ctx, tenantID, *req.LegacyBidID, status, req.Amount, req.ContactName, req.Notes); err != nil {
			return uuid.Nil, err
		}
		return *req.LegacyBidID, nil
	}

	existing, err := s.legacyRepo.FindByKey(ctx, tenantID, req.ProjectID, req.TradeID, req.ProjectSubID)
	if err != nil {
		return uuid.Nil, err
	}
	if existing != nil {
		if err := s.legacyRepo.UpdateByID(ctx, tenantID, existing.ID, status, req.Amount, req.ContactName, req.Notes); err != nil {
			return uuid.Nil, err
		}
		return existing.ID, nil
	}

	created, err := s.legacyRepo.Insert(ctx, &models.LegacyBid{
		TenantID:     tenantID,
		ProjectID:    req.ProjectID,
		TradeID:      req.TradeID,
		ProjectSubID: req.ProjectSubID,
		Status:       status,
		Amount:       req.Amount,
		ContactName:  req.ContactName,
		Notes:        req.Notes,
	})
	if err != nil {
		return uuid.Nil, err
	}
	return created.ID, nil
}

// RecalculateLowBids rescans one trade's enhanced bids, recomputes is_low and
// bulk-applies only the rows whose flag changed, in one transaction. Returns
// the trade's bids with fresh flags.
func (s *Service) RecalculateLowBids(ctx context.Context, tenantID, projectID, tradeID uuid.UUID) ([]models.TradeBid, error) {
	ctx, span := tracing.StartSpan(ctx, "leveling.Service.RecalculateLowBids")
	defer span.End()

	bids, err := s.bidRepo.ListByTrade(ctx, tenantID, projectID, tradeID)
	if err != nil {
		return nil, err
	}

	marked := MarkLowBids(bids)
	changed := ChangedLowFlags(bids, marked)
	if len(changed) == 0 {
		return marked, nil
	}

	var setLow, clearLow []uuid.UUID
	for _, bid := range changed {
		if bid.IsLow {
			setLow = append(setLow, bid.ID)
		} else {
			clearLow = append(clearLow, bid.ID)
		}
	}

	ctxTx, tx, err := s.bidRepo.DB().GetTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := s.bidRepo.ApplyLowFlags(ctxTx, tenantID, setLow, true); err != nil {
		return nil, err
	}
	if err := s.bidRepo.ApplyLowFlags(ctxTx, tenantID, clearLow, false); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctxTx); err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"tenant_id":  tenantID,
		"project_id": projectID,
		"trade_id":   tradeID,
		"changed":    len(changed),
	}).Info("Recalculated low bid flags")

	return marked, nil
}

// RemoveBid deletes a bid from every representation it lives in: breakdown
// rows, enhanced rows and legacy rows, across every alias sub link the same
// subcontractor holds on the project. Removal is idempotent; rows already
// gone are not errors. Low bid flags for the trade are recalculated after.
func (s *Service) RemoveBid(ctx context.Context, tenantID uuid.UUID, req models.RemoveBidRequest) error {
	ctx, span := tracing.StartSpan(ctx, "leveling.Service.RemoveBid")
	defer span.End()

	log := s.logger.WithContext(ctx).WithFields(map[string]any{
		"tenant_id":      tenantID,
		"project_id":     req.ProjectID,
		"trade_id":       req.TradeID,
		"project_sub_id": req.ProjectSubID,
	})

	subIDs, err := s.resolveAliasSubIDs(ctx, tenantID, req)
	if err != nil {
		return err
	}

	if err := s.removeEnhancedBids(ctx, tenantID, req, subIDs, log); err != nil {
		return err
	}

	// Legacy rows are mandatory: a failure here aborts the removal.
	if req.LegacyBidID != nil {
		if _, err := s.legacyRepo.DeleteByID(ctx, tenantID, *req.LegacyBidID); err != nil {
			return err
		}
	}
	if _, err := s.legacyRepo.DeleteByKeys(ctx, tenantID, req.ProjectID, req.TradeID, subIDs); err != nil {
		return err
	}

	if _, err := s.RecalculateLowBids(ctx, tenantID, req.ProjectID, req.TradeID); err != nil {
		if !database.IsSchemaMissing(err) {
			return err
		}
	}

	if s.emitter != nil {
		_ = s.emitter.EmitBidRemoved(ctx, tenantID, req.ProjectID, req.TradeID, req.ProjectSubID)
	}

	log.WithFields(map[string]any{"sub_links": len(subIDs)}).Info("Removed bid across representations")
	return nil
}

// resolveAliasSubIDs expands a removal request to every sub link the bidding
// subcontractor holds on the project. Explicit alias lists are honored as-is;
// otherwise aliases are resolved by subcontractor lookup so re-invited rows
// cannot strand a bid.
func (s *Service) resolveAliasSubIDs(ctx context.Context, tenantID uuid.UUID, req models.RemoveBidRequest) ([]uuid.UUID, error) {
	ctx, span := tracing.StartSpan(ctx, "leveling.Service.resolveAliasSubIDs")
	defer span.End()

	seen := map[uuid.UUID]bool{req.ProjectSubID: true}
	ids := []uuid.UUID{req.ProjectSubID}
	for _, id := range req.AliasSubIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if len(req.AliasSubIDs) > 0 {
		return ids, nil
	}

	subcontractorID := req.SubcontractorID
	if subcontractorID == nil {
		sub, err := s.subRepo.Get(ctx, tenantID, req.ProjectSubID)
		if err != nil {
			// The sub link itself may already be gone; removal stays idempotent.
			if httperror.IsHTTPError(err) && httperror.GetStatusCode(err) == http.StatusNotFound {
				return ids, nil
			}
			return nil, err
		}
		subcontractorID = &sub.SubcontractorID
	}

	aliases, err := s.subRepo.ListBySubcontractor(ctx, tenantID, req.ProjectID, *subcontractorID)
	if err != nil {
		return nil, err
	}
	for _, alias := range aliases {
		if !seen[alias.ID] {
			seen[alias.ID] = true
			ids = append(ids, alias.ID)
		}
	}
	return ids, nil
}

// removeEnhancedBids deletes the enhanced rows and their breakdowns in one
// transaction. A missing leveling schema is absorbed; any other failure
// aborts the removal before legacy rows are touched.
func (s *Service) removeEnhancedBids(ctx context.Context, tenantID uuid.UUID, req models.RemoveBidRequest, subIDs []uuid.UUID, log ectologger.Logger) error {
	ctx, span := tracing.StartSpan(ctx, "leveling.Service.removeEnhancedBids")
	defer span.End()

	bids, err := s.bidRepo.ListByTradeAndSubs(ctx, tenantID, req.ProjectID, req.TradeID, subIDs)
	if err != nil {
		if database.IsSchemaMissing(err) {
			log.Warn("Leveling schema missing; removing legacy bid rows only")
			return nil
		}
		return err
	}

	seen := map[uuid.UUID]bool{}
	bidIDs := make([]uuid.UUID, 0, len(bids)+1)
	for _, bid := range bids {
		if !seen[bid.ID] {
			seen[bid.ID] = true
			bidIDs = append(bidIDs, bid.ID)
		}
	}
	if req.TradeBidID != nil && !seen[*req.TradeBidID] {
		bidIDs = append(bidIDs, *req.TradeBidID)
	}
	if len(bidIDs) == 0 {
		return nil
	}

	ctxTx, tx, err := s.bidRepo.DB().GetTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := s.breakdownRepo.DeleteAllForBids(ctxTx, tenantID, bidIDs); err != nil {
		return err
	}
	if _, err := s.bidRepo.DeleteByIDs(ctxTx, tenantID, bidIDs); err != nil {
		return err
	}
	return tx.Commit(ctxTx)
}

// SaveBreakdown reconciles a bid's line items and alternates against the
// desired state: rows keeping their id update in place, rows absent from the
// request are deleted, fresh ids insert. Saving against a cell with no
// enhanced bid is a no-op. Runs in one transaction.
func (s *Service) SaveBreakdown(ctx context.Context, tenantID uuid.UUID, req models.SaveBreakdownRequest) (*models.Breakdown, error) {
	ctx, span := tracing.StartSpan(ctx, "leveling.Service.SaveBreakdown")
	defer span.End()

	log := s.logger.WithContext(ctx).WithFields(map[string]any{
		"tenant_id":      tenantID,
		"project_id":     req.ProjectID,
		"trade_id":       req.TradeID,
		"project_sub_id": req.ProjectSubID,
	})

	bid, err := s.bidRepo.FindByKey(ctx, tenantID, req.ProjectID, req.TradeID, req.ProjectSubID)
	if err != nil {
		if database.IsSchemaMissing(err) {
			log.Warn("Leveling schema missing; breakdown save skipped")
			return &models.Breakdown{}, nil
		}
		return nil, err
	}
	if bid == nil {
		log.Debug("No enhanced bid at cell; breakdown save is a no-op")
		return &models.Breakdown{}, nil
	}

	existingItems, err := s.breakdownRepo.ListItemsByBid(ctx, tenantID, bid.ID)
	if err != nil {
		return nil, err
	}
	existingAlternates, err := s.breakdownRepo.ListAlternatesByBid(ctx, tenantID, bid.ID)
	if err != nil {
		return nil, err
	}

	items := make([]models.BidLineItem, 0, len(req.BaseItems))
	itemIDs := map[uuid.UUID]bool{}
	for i, input := range req.BaseItems {
		sortOrder := i
		if input.SortOrder != nil {
			sortOrder = *input.SortOrder
		}
		items = append(items, models.BidLineItem{
			ID:             input.ID,
			TenantID:       tenantID,
			TradeBidID:     bid.ID,
			Kind:           models.LineItemKindBase,
			Description:    input.Description,
			Quantity:       input.Quantity,
			Unit:           input.Unit,
			UnitPrice:      input.UnitPrice,
			AmountOverride: input.AmountOverride,
			Notes:          input.Notes,
			SortOrder:      sortOrder,
		})
		itemIDs[input.ID] = true
	}

	alternates := make([]models.BidAlternate, 0, len(req.Alternates))
	alternateIDs := map[uuid.UUID]bool{}
	for i, input := range req.Alternates {
		sortOrder := i
		if input.SortOrder != nil {
			sortOrder = *input.SortOrder
		}
		alternates = append(alternates, models.BidAlternate{
			ID:         input.ID,
			TenantID:   tenantID,
			TradeBidID: bid.ID,
			Title:      input.Title,
			Accepted:   input.Accepted,
			Amount:     input.Amount,
			Notes:      input.Notes,
			SortOrder:  sortOrder,
		})
		alternateIDs[input.ID] = true
	}

	var deleteItems, deleteAlternates []uuid.UUID
	for _, item := range existingItems {
		if !itemIDs[item.ID] {
			deleteItems = append(deleteItems, item.ID)
		}
	}
	for _, alt := range existingAlternates {
		if !alternateIDs[alt.ID] {
			deleteAlternates = append(deleteAlternates, alt.ID)
		}
	}

	ctxTx, tx, err := s.breakdownRepo.DB().GetTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := s.breakdownRepo.DeleteItemsByIDs(ctxTx, tenantID, deleteItems); err != nil {
		return nil, err
	}
	if err := s.breakdownRepo.DeleteAlternatesByIDs(ctxTx, tenantID, deleteAlternates); err != nil {
		return nil, err
	}
	if err := s.breakdownRepo.UpsertItems(ctxTx, items); err != nil {
		return nil, err
	}
	if err := s.breakdownRepo.UpsertAlternates(ctxTx, alternates); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctxTx); err != nil {
		return nil, err
	}

	log.WithFields(map[string]any{
		"trade_bid_id":       bid.ID,
		"items":              len(items),
		"alternates":         len(alternates),
		"deleted_items":      len(deleteItems),
		"deleted_alternates": len(deleteAlternates),
	}).Info("Reconciled bid breakdown")

	return &models.Breakdown{BaseItems: items, Alternates: alternates}, nil
}

// GetBreakdown returns the persisted breakdown for the bid at (project,
// trade, sub link). Cells with no enhanced bid return an empty breakdown.
func (s *Service) GetBreakdown(ctx context.Context, tenantID, projectID, tradeID, projectSubID uuid.UUID) (*models.Breakdown, error) {
	ctx, span := tracing.StartSpan(ctx, "leveling.Service.GetBreakdown")
	defer span.End()

	bid, err := s.bidRepo.FindByKey(ctx, tenantID, projectID, tradeID, projectSubID)
	if err != nil {
		if database.IsSchemaMissing(err) {
			return &models.Breakdown{}, nil
		}
		return nil, err
	}
	if bid == nil {
		return &models.Breakdown{}, nil
	}

	items, err := s.breakdownRepo.ListItemsByBid(ctx, tenantID, bid.ID)
	if err != nil {
		return nil, err
	}
	alternates, err := s.breakdownRepo.ListAlternatesByBid(ctx, tenantID, bid.ID)
	if err != nil {
		return nil, err
	}

	return &models.Breakdown{BaseItems: items, Alternates: alternates}, nil
}

// UpsertBudget writes the per-trade budget figure at its (project, trade)
// key. Budgets only exist in the leveling schema, so a missing schema is an
// error here rather than an absorbed write.
func (s *Service) UpsertBudget(ctx context.Context, tenantID uuid.UUID, req models.UpsertBudgetRequest) (*models.TradeBudget, error) {
	ctx, span := tracing.StartSpan(ctx, "leveling.Service.UpsertBudget")
	defer span.End()

	budget, err := s.budgetRepo.Upsert(ctx, &models.TradeBudget{
		TenantID:  tenantID,
		ProjectID: req.ProjectID,
		TradeID:   req.TradeID,
		Amount:    req.Amount,
		Notes:     req.Notes,
	})
	if err != nil {
		if database.IsSchemaMissing(err) {
			return nil, httperror.NewHTTPError(http.StatusConflict, "leveling schema not available for tenant")
		}
		return nil, err
	}
	return budget, nil
}

// CreateSnapshot freezes the current leveling state of a project under a new
// immutable header. When the request carries no items, the snapshot is
// denormalized from the live workspace, including each bid's breakdown.
// Header and items are written in one transaction.
func (s *Service) CreateSnapshot(ctx context.Context, tenantID, createdBy uuid.UUID, req models.CreateSnapshotRequest) (*models.BidSnapshot, error) {
	ctx, span := tracing.StartSpan(ctx, "leveling.Service.CreateSnapshot")
	defer span.End()

	log := s.logger.WithContext(ctx).WithFields(map[string]any{
		"tenant_id":  tenantID,
		"project_id": req.ProjectID,
		"title":      req.Title,
	})

	if _, err := s.projectRepo.Get(ctx, tenantID, req.ProjectID); err != nil {
		return nil, err
	}

	inputs := req.Items
	if len(inputs) == 0 {
		derived, err := s.deriveSnapshotItems(ctx, tenantID, req.ProjectID)
		if err != nil {
			return nil, err
		}
		inputs = derived
	}

	header := &models.BidSnapshot{
		TenantID:  tenantID,
		ProjectID: req.ProjectID,
		CreatedBy: createdBy,
		Title:     req.Title,
	}

	items := make([]models.BidSnapshotItem, 0, len(inputs))

	ctxTx, tx, err := s.snapshotRepo.DB().GetTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	header, err = s.snapshotRepo.InsertHeader(ctxTx, header)
	if err != nil {
		if database.IsSchemaMissing(err) {
			return nil, httperror.NewHTTPError(http.StatusConflict, "leveling schema not available for tenant")
		}
		return nil, err
	}

	for _, input := range inputs {
		items = append(items, models.BidSnapshotItem{
			TenantID:     tenantID,
			SnapshotID:   header.ID,
			TradeID:      input.TradeID,
			ProjectSubID: input.ProjectSubID,
			BaseAmount:   input.BaseAmount,
			Notes:        input.Notes,
			Included:     input.Included,
			Items:        input.Items,
		})
	}
	if err := s.snapshotRepo.InsertItems(ctxTx, items); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctxTx); err != nil {
		return nil, err
	}

	if s.emitter != nil {
		_ = s.emitter.EmitSnapshotCreated(ctx, header, len(items))
	}

	log.WithFields(map[string]any{"snapshot_id": header.ID, "items": len(items)}).Info("Created bid snapshot")
	return header, nil
}

// deriveSnapshotItems denormalizes the live workspace into per-cell snapshot
// inputs, freezing each enhanced bid's breakdown alongside its amount.
func (s *Service) deriveSnapshotItems(ctx context.Context, tenantID, projectID uuid.UUID) ([]models.SnapshotItemInput, error) {
	ctx, span := tracing.StartSpan(ctx, "leveling.Service.deriveSnapshotItems")
	defer span.End()

	workspace, err := s.BuildWorkspace(ctx, tenantID, projectID)
	if err != nil {
		return nil, err
	}

	inputs := make([]models.SnapshotItemInput, 0, len(workspace.Bids))
	for _, bid := range workspace.Bids {
		input := models.SnapshotItemInput{
			TradeID:      bid.TradeID,
			ProjectSubID: bid.ProjectSubID,
			BaseAmount:   bid.Amount,
			Notes:        bid.Notes,
		}
		if bid.TradeBidID != nil {
			items, err := s.breakdownRepo.ListItemsByBid(ctx, tenantID, *bid.TradeBidID)
			if err != nil && !database.IsSchemaMissing(err) {
				return nil, err
			}
			alternates, err := s.breakdownRepo.ListAlternatesByBid(ctx, tenantID, *bid.TradeBidID)
			if err != nil && !database.IsSchemaMissing(err) {
				return nil, err
			}
			if len(items) > 0 || len(alternates) > 0 {
				input.Items = &models.Breakdown{BaseItems: items, Alternates: alternates}
			}
			if len(alternates) > 0 {
				input.Included = make(map[string]bool, len(alternates))
				for _, alt := range alternates {
					input.Included[alt.ID.String()] = alt.Accepted
				}
			}
		}
		inputs = append(inputs, input)
	}
	return inputs, nil
}

// GetSnapshot returns a snapshot header with its frozen rows
func (s *Service) GetSnapshot(ctx context.Context, tenantID, id uuid.UUID) (*models.BidSnapshot, []models.BidSnapshotItem, error) {
	ctx, span := tracing.StartSpan(ctx, "leveling.Service.GetSnapshot")
	defer span.End()

	header, err := s.snapshotRepo.Get(ctx, tenantID, id)
	if err != nil {
		if database.IsSchemaMissing(err) {
			return nil, nil, httperror.NewHTTPErrorf(http.StatusNotFound, "snapshot %s not found", id)
		}
		return nil, nil, err
	}

	items, err := s.snapshotRepo.ListItems(ctx, tenantID, id)
	if err != nil {
		return nil, nil, err
	}

	return header, items, nil
}

// ListSnapshots returns a project's snapshot headers, newest first
func (s *Service) ListSnapshots(ctx context.Context, tenantID, projectID uuid.UUID) ([]models.BidSnapshot, error) {
	ctx, span := tracing.StartSpan(ctx, "leveling.Service.ListSnapshots")
	defer span.End()

	snapshots, err := s.snapshotRepo.ListByProject(ctx, tenantID, projectID)
	if err != nil {
		if database.IsSchemaMissing(err) {
			return nil, nil
		}
		return nil, err
	}
	return snapshots, nil
}
