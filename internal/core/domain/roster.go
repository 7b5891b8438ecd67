package domain

import (
	"strings"
	"time"
)

// RosterEntry is one registered attendee as known to the roster.
type RosterEntry struct {
	ID            string           `json:"id"`
	DisplayName   string           `json:"display_name"`
	Email         string           `json:"email"`
	University    string           `json:"university"`
	Category      string           `json:"category"`
	Profession    string           `json:"profession,omitempty"`
	PaymentMethod string           `json:"payment_method,omitempty"`
	VoucherCode   string           `json:"voucher_code,omitempty"`
	ImportAmount  string           `json:"import_amount"`
	Attendance    AttendanceRecord `json:"attendance"`
	// UpdatedAt is the server's modification time, used as a version tag.
	// Zero when the server does not report one.
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// MatchesCode reports whether a scanned code identifies this entry. Codes are
// compared trimmed and case-insensitively.
func (e RosterEntry) MatchesCode(code string) bool {
	return strings.EqualFold(strings.TrimSpace(e.ID), strings.TrimSpace(code))
}

// FindEntry returns the index of the entry with the given id, or -1.
func FindEntry(entries []RosterEntry, id string) int {
	for i := range entries {
		if entries[i].ID == id {
			return i
		}
	}
	return -1
}
