package ports

import (
	"context"

	"github.com/cometsur/checkin-sync/internal/core/domain"
)

// ScanInput is one decoded QR scan at the check-in desk.
type ScanInput struct {
	Code     string
	Day      int
	Turn     domain.Turn
	Operator string
}

// CheckinResult is returned for every processed scan.
type CheckinResult struct {
	Entry      domain.RosterEntry `json:"entry"`
	Slot       int                `json:"slot"`
	Duplicate  bool               `json:"duplicate"`
	MutationID string             `json:"mutation_id,omitempty"`
}

// CheckinJournal keeps an audit trail of scans.
type CheckinJournal interface {
	Record(ctx context.Context, event domain.CheckinEvent) error
}

// CheckinService processes scans.
type CheckinService interface {
	Scan(ctx context.Context, in ScanInput) (*CheckinResult, error)
}
