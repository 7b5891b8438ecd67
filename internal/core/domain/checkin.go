package domain

import "time"

// CheckinOutcome values recorded in the journal.
const (
	CheckinAccepted   = "accepted"
	CheckinDuplicate  = "duplicate"
	CheckinRolledBack = "rolled_back"
)

// CheckinEvent is the audit record of one scan.
type CheckinEvent struct {
	AttendeeID   string
	AttendeeName string
	Day          int
	Turn         Turn
	Slot         int
	Operator     string
	MutationID   string
	Outcome      string
	Error        string
	At           time.Time
}
