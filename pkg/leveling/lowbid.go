package leveling

import (
	"github.com/Ramsey-B/laurel/pkg/bidstatus"
	"github.com/Ramsey-B/laurel/pkg/models"
)

// MarkLowBids recomputes the is_low flag for every enhanced bid in one trade.
// A bid is low when it is submitted, has an amount, and that amount equals
// the minimum submitted amount in the trade. Ties are preserved: every bid at
// the minimum is marked. When no submitted bid carries an amount, every flag
// is false.
//
// Comparison is exact numeric equality, matching the persisted behavior.
// The input is not mutated; the returned slice carries the recomputed flags.
func MarkLowBids(bids []models.TradeBid) []models.TradeBid {
	var lowAmount *float64
	for _, b := range bids {
		if b.Status != bidstatus.StatusSubmitted || b.BaseAmount == nil {
			continue
		}
		if lowAmount == nil || *b.BaseAmount < *lowAmount {
			amount := *b.BaseAmount
			lowAmount = &amount
		}
	}

	out := make([]models.TradeBid, len(bids))
	for i, b := range bids {
		b.IsLow = lowAmount != nil &&
			b.Status == bidstatus.StatusSubmitted &&
			b.BaseAmount != nil &&
			*b.BaseAmount == *lowAmount
		out[i] = b
	}
	return out
}

// ChangedLowFlags returns the bids whose recomputed is_low differs from the
// persisted value, so the apply step only touches rows that moved.
func ChangedLowFlags(before, after []models.TradeBid) []models.TradeBid {
	persisted := make(map[string]bool, len(before))
	for _, b := range before {
		persisted[b.ID.String()] = b.IsLow
	}

	var changed []models.TradeBid
	for _, b := range after {
		if was, ok := persisted[b.ID.String()]; ok && was == b.IsLow {
			continue
		}
		changed = append(changed, b)
	}
	return changed
}
