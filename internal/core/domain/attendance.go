package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// SlotCount is the number of attendance slots: two turns on each of three days.
const SlotCount = 6

// Turn identifies a half-day attendance window.
type Turn string

const (
	TurnMorning   Turn = "morning"
	TurnAfternoon Turn = "afternoon"
)

var ErrInvalidSlot = errors.New("invalid attendance slot")

// AttendanceRecord holds one 0/1 flag per slot, ordered day by day with the
// morning turn first.
type AttendanceRecord [SlotCount]uint8

// SlotFor maps a conference day (1..3) and a turn to a slot index.
func SlotFor(day int, turn Turn) (int, error) {
	if day < 1 || day > SlotCount/2 {
		return 0, fmt.Errorf("%w: day %d", ErrInvalidSlot, day)
	}
	base := (day - 1) * 2
	switch turn {
	case TurnMorning:
		return base, nil
	case TurnAfternoon:
		return base + 1, nil
	default:
		return 0, fmt.Errorf("%w: turn %q", ErrInvalidSlot, turn)
	}
}

// Total is the number of sessions attended.
func (a AttendanceRecord) Total() int {
	n := 0
	for _, v := range a {
		if v != 0 {
			n++
		}
	}
	return n
}

// Percent is Total expressed as a percentage of all slots.
func (a AttendanceRecord) Percent() float64 {
	return float64(a.Total()) / SlotCount * 100
}

// AttendanceLevel is the traffic-light grading used by the dashboards.
type AttendanceLevel string

const (
	AttendanceLow      AttendanceLevel = "low"
	AttendancePartial  AttendanceLevel = "partial"
	AttendanceComplete AttendanceLevel = "complete"
)

// Level grades the record: fewer than four slots is low, all six is complete.
func (a AttendanceRecord) Level() AttendanceLevel {
	switch total := a.Total(); {
	case total == SlotCount:
		return AttendanceComplete
	case total >= 4:
		return AttendancePartial
	default:
		return AttendanceLow
	}
}

// Set returns a copy with slot index set to value (normalized to 0/1).
func (a AttendanceRecord) Set(index int, value uint8) (AttendanceRecord, error) {
	if index < 0 || index >= SlotCount {
		return a, fmt.Errorf("%w: index %d", ErrInvalidSlot, index)
	}
	if value != 0 {
		value = 1
	}
	a[index] = value
	return a, nil
}

// UnmarshalJSON accepts anything NormalizeAttendance accepts, so a decode
// never fails because of the attendance field.
func (a *AttendanceRecord) UnmarshalJSON(data []byte) error {
	*a = NormalizeAttendance(data)
	return nil
}

// NormalizeAttendance turns whatever the server sent into a canonical record.
// Absent, null, non-array and short values are zero padded; extra elements
// are dropped; any non-zero number (or "1", true) becomes 1. A legacy
// integer counter is not an array and therefore normalizes to all zeros.
func NormalizeAttendance(raw json.RawMessage) AttendanceRecord {
	var out AttendanceRecord
	var items []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil {
		return out
	}
	for i, item := range items {
		if i >= SlotCount {
			break
		}
		if flagValue(item) {
			out[i] = 1
		}
	}
	return out
}

func flagValue(item json.RawMessage) bool {
	s := strings.TrimSpace(string(item))
	switch s {
	case "true":
		return true
	case "", "null", "false":
		return false
	}
	s = strings.Trim(s, `"`)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return false
	}
	return f != 0
}
