// Package cache holds the local key/value store that owns the session and
// the roster, plus the helpers shared by every store implementation.
package cache

import (
	"fmt"
	"strings"
)

// Cache keys. Values are text; KeyAttendance and KeyRoster hold JSON.
const (
	KeyToken      = "session:token"
	KeyUserID     = "session:user_id"
	KeyName       = "session:name"
	KeyRole       = "session:role"
	KeyEmail      = "session:email"
	KeyUniversity = "session:university"
	KeyImporte    = "session:importe"
	KeyCategory   = "session:category"
	KeyAttendance = "session:attendance"
	KeyLoginAt    = "session:login_at"

	KeyRoster      = "roster:entries"
	KeyLastUpdated = "sync:last_updated"
)

// SessionKeys lists every key that belongs to the logged-in user. They are
// removed together on logout or when the credential is rejected.
var SessionKeys = []string{
	KeyToken,
	KeyUserID,
	KeyName,
	KeyRole,
	KeyEmail,
	KeyUniversity,
	KeyImporte,
	KeyCategory,
	KeyAttendance,
	KeyLoginAt,
}

// DedupKey is the key under which a recent scan of attendeeID for slot is
// remembered. Format: dedup:<attendee_id>:<slot>
func DedupKey(attendeeID string, slot int) string {
	return fmt.Sprintf("dedup:%s:%d", strings.ToLower(strings.TrimSpace(attendeeID)), slot)
}
