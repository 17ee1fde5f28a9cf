// Package leveling holds the pure decision logic of the bid leveling engine:
// the legacy/enhanced merge overlay and the low-bid computation. Persistence
// mechanics live in the repositories; everything here is unit-testable
// without a database.
package leveling

import (
	"github.com/Ramsey-B/laurel/pkg/bidstatus"
	"github.com/Ramsey-B/laurel/pkg/models"
)

// MergeBids builds the unified bid collection for a project. Legacy bids seed
// the map with their status translated into the enhanced vocabulary; enhanced
// bids then overlay the same (trade, sub link) key, overwriting status,
// amount and notes while keeping the legacy id as a back-reference when one
// was already there.
//
// A legacy row whose status is outside the five-value vocabulary is a data
// corruption and fails the whole merge rather than being coerced.
func MergeBids(legacy []models.LegacyBid, enhanced []models.TradeBid) (map[models.BidKey]models.LeveledBid, error) {
	merged := make(map[models.BidKey]models.LeveledBid, len(legacy)+len(enhanced))

	for _, lb := range legacy {
		status, err := bidstatus.FromLegacy(lb.Status)
		if err != nil {
			return nil, err
		}

		legacyID := lb.ID
		merged[models.BidKey{TradeID: lb.TradeID, ProjectSubID: lb.ProjectSubID}] = models.LeveledBid{
			TradeID:      lb.TradeID,
			ProjectSubID: lb.ProjectSubID,
			Status:       status,
			Amount:       lb.Amount,
			Notes:        lb.Notes,
			ContactName:  lb.ContactName,
			LegacyBidID:  &legacyID,
		}
	}

	for _, tb := range enhanced {
		key := models.BidKey{TradeID: tb.TradeID, ProjectSubID: tb.ProjectSubID}

		leveled := models.LeveledBid{
			TradeID:      tb.TradeID,
			ProjectSubID: tb.ProjectSubID,
			Status:       tb.Status,
			Amount:       tb.BaseAmount,
			Notes:        tb.Notes,
			ReceivedAt:   tb.ReceivedAt,
			IsLow:        tb.IsLow,
		}
		bidID := tb.ID
		leveled.TradeBidID = &bidID

		// Prefer the legacy back-reference already recorded on the enhanced
		// row; fall back to the legacy row found at the same key.
		if tb.LegacyBidID != nil {
			leveled.LegacyBidID = tb.LegacyBidID
		} else if prev, ok := merged[key]; ok {
			leveled.LegacyBidID = prev.LegacyBidID
		}
		if prev, ok := merged[key]; ok {
			leveled.ContactName = prev.ContactName
		}

		merged[key] = leveled
	}

	return merged, nil
}
