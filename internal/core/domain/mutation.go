package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrNoChanges = errors.New("no valid changes to apply")

// FieldDelta is a tentative edit to a single roster entry.
type FieldDelta interface {
	// Fields names the entry fields the delta touches.
	Fields() []string
	Validate() error
	Apply(e *RosterEntry) error
	// Revert restores the touched fields of e from before.
	Revert(e *RosterEntry, before RosterEntry)
}

// SlotDelta sets one attendance slot.
type SlotDelta struct {
	Index int
	Value uint8
}

func (d SlotDelta) Fields() []string {
	return []string{fmt.Sprintf("attendance[%d]", d.Index)}
}

func (d SlotDelta) Validate() error {
	if d.Index < 0 || d.Index >= SlotCount {
		return fmt.Errorf("%w: index %d", ErrInvalidSlot, d.Index)
	}
	if d.Value > 1 {
		return fmt.Errorf("%w: value %d", ErrInvalidSlot, d.Value)
	}
	return nil
}

func (d SlotDelta) Apply(e *RosterEntry) error {
	rec, err := e.Attendance.Set(d.Index, d.Value)
	if err != nil {
		return err
	}
	e.Attendance = rec
	return nil
}

func (d SlotDelta) Revert(e *RosterEntry, before RosterEntry) {
	if d.Index >= 0 && d.Index < SlotCount {
		e.Attendance[d.Index] = before.Attendance[d.Index]
	}
}

// ProfileDelta replaces profile fields. Nil fields are left untouched.
// Password is sent to the server but never stored in the roster.
type ProfileDelta struct {
	Name     *string
	Email    *string
	Password *string
}

// NewProfileDelta keeps only the values that are non-blank and differ from
// the current entry.
func NewProfileDelta(current RosterEntry, name, email, password string) ProfileDelta {
	var d ProfileDelta
	if n := strings.TrimSpace(name); n != "" && name != current.DisplayName {
		d.Name = &name
	}
	if m := strings.TrimSpace(email); m != "" && email != current.Email {
		d.Email = &email
	}
	if strings.TrimSpace(password) != "" {
		d.Password = &password
	}
	return d
}

func (d ProfileDelta) Fields() []string {
	var out []string
	if d.Name != nil {
		out = append(out, "name")
	}
	if d.Email != nil {
		out = append(out, "email")
	}
	if d.Password != nil {
		out = append(out, "password")
	}
	return out
}

func (d ProfileDelta) Validate() error {
	if len(d.Fields()) == 0 {
		return ErrNoChanges
	}
	return nil
}

func (d ProfileDelta) Apply(e *RosterEntry) error {
	if d.Name != nil {
		e.DisplayName = *d.Name
	}
	if d.Email != nil {
		e.Email = *d.Email
	}
	return nil
}

func (d ProfileDelta) Revert(e *RosterEntry, before RosterEntry) {
	if d.Name != nil {
		e.DisplayName = before.DisplayName
	}
	if d.Email != nil {
		e.Email = before.Email
	}
}

// RemovalDelta deletes the whole entry. The roster drops the entry, so Apply
// leaves the entry itself untouched.
type RemovalDelta struct{}

func (RemovalDelta) Fields() []string { return []string{"entry"} }

func (RemovalDelta) Validate() error { return nil }

func (RemovalDelta) Apply(*RosterEntry) error { return nil }

func (RemovalDelta) Revert(e *RosterEntry, before RosterEntry) { *e = before }

// IsRemoval reports whether d deletes its target entry.
func IsRemoval(d FieldDelta) bool {
	_, ok := d.(RemovalDelta)
	return ok
}

// PendingMutation is a tentative edit that the server has not confirmed yet.
type PendingMutation struct {
	LocalID   string
	TargetID  string
	Delta     FieldDelta
	CreatedAt time.Time
	// BaseVersion is the entry's UpdatedAt when the edit was dispatched. A
	// roster refresh carrying a newer version supersedes the edit.
	BaseVersion time.Time
	// Before is the entry as it was prior to the optimistic patch.
	Before RosterEntry
}

// Supersedes reports whether an incoming server record is at least as new as
// the state this mutation was built on top of and can therefore be trusted.
func (p PendingMutation) Supersedes(incoming RosterEntry) bool {
	return !incoming.UpdatedAt.IsZero() && incoming.UpdatedAt.After(p.BaseVersion)
}

// MutationOutcome reports what happened to an optimistic edit.
type MutationOutcome struct {
	LocalID  string      `json:"local_id"`
	TargetID string      `json:"target_id"`
	Entry    RosterEntry `json:"entry"`
	// Reconciled is true when the server echoed a full record that replaced
	// the optimistic one.
	Reconciled bool `json:"reconciled"`
	RolledBack bool `json:"rolled_back"`
	// Removed is true when the entry was deleted from the roster.
	Removed bool `json:"removed,omitempty"`
}
