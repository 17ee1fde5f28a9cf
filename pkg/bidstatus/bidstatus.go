// Package bidstatus translates between the two bid status vocabularies used by
// the legacy and enhanced bid schemas.
package bidstatus

import "fmt"

// Status is the enhanced-schema (trade_bids) bid status vocabulary.
type Status string

const (
	StatusSubmitted  Status = "submitted"
	StatusBidding    Status = "bidding"
	StatusDeclined   Status = "declined"
	StatusNoResponse Status = "no_response"
	StatusInvited    Status = "invited"
)

// LegacyStatus is the original (project_bids) bid status vocabulary.
type LegacyStatus string

const (
	LegacySubmitted LegacyStatus = "submitted"
	LegacyBidding   LegacyStatus = "bidding"
	LegacyDeclined  LegacyStatus = "declined"
	LegacyGhosted   LegacyStatus = "ghosted"
	LegacyInvited   LegacyStatus = "invited"
)

// IsValid returns true if s is one of the five enhanced statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusSubmitted, StatusBidding, StatusDeclined, StatusNoResponse, StatusInvited:
		return true
	}
	return false
}

// IsValid returns true if s is one of the five legacy statuses.
func (s LegacyStatus) IsValid() bool {
	switch s {
	case LegacySubmitted, LegacyBidding, LegacyDeclined, LegacyGhosted, LegacyInvited:
		return true
	}
	return false
}

// FromLegacy maps a legacy status into the enhanced vocabulary. The mapping is
// a bijection over the five-value set: ghosted becomes no_response, everything
// else is identity. Unrecognized input is a programming error and is rejected
// rather than coerced.
func FromLegacy(s LegacyStatus) (Status, error) {
	switch s {
	case LegacyGhosted:
		return StatusNoResponse, nil
	case LegacySubmitted:
		return StatusSubmitted, nil
	case LegacyBidding:
		return StatusBidding, nil
	case LegacyDeclined:
		return StatusDeclined, nil
	case LegacyInvited:
		return StatusInvited, nil
	}
	return "", fmt.Errorf("unknown legacy bid status %q", s)
}

// ToLegacy maps an enhanced status back into the legacy vocabulary. Inverse of
// FromLegacy.
func ToLegacy(s Status) (LegacyStatus, error) {
	switch s {
	case StatusNoResponse:
		return LegacyGhosted, nil
	case StatusSubmitted:
		return LegacySubmitted, nil
	case StatusBidding:
		return LegacyBidding, nil
	case StatusDeclined:
		return LegacyDeclined, nil
	case StatusInvited:
		return LegacyInvited, nil
	}
	return "", fmt.Errorf("unknown bid status %q", s)
}
