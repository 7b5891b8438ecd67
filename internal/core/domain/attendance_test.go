package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestNormalizeAttendance(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want AttendanceRecord
	}{
		{"absent", ``, AttendanceRecord{}},
		{"null", `null`, AttendanceRecord{}},
		{"empty", `[]`, AttendanceRecord{}},
		{"short is padded", `[1,0,1]`, AttendanceRecord{1, 0, 1, 0, 0, 0}},
		{"long is truncated", `[1,1,1,1,1,1,1,1]`, AttendanceRecord{1, 1, 1, 1, 1, 1}},
		{"non-zero becomes one", `[2,0,-1,0.5,0,0]`, AttendanceRecord{1, 0, 1, 1, 0, 0}},
		{"strings and bools", `["1","0",true,false,null,"x"]`, AttendanceRecord{1, 0, 1, 0, 0, 0}},
		{"legacy counter", `3`, AttendanceRecord{}},
		{"object", `{"a":1}`, AttendanceRecord{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeAttendance(json.RawMessage(tt.raw))
			if got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i, v := range got {
				if v > 1 {
					t.Fatalf("slot %d = %d, want 0 or 1", i, v)
				}
			}
		})
	}
}

func TestAttendanceRecord_UnmarshalNeverFails(t *testing.T) {
	var entry struct {
		Attendance AttendanceRecord `json:"attendance"`
	}
	if err := json.Unmarshal([]byte(`{"attendance":4}`), &entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Attendance != (AttendanceRecord{}) {
		t.Fatalf("legacy counter should decode as zeros, got %v", entry.Attendance)
	}
}

func TestSlotFor(t *testing.T) {
	cases := []struct {
		day  int
		turn Turn
		want int
	}{
		{1, TurnMorning, 0},
		{1, TurnAfternoon, 1},
		{2, TurnMorning, 2},
		{2, TurnAfternoon, 3},
		{3, TurnMorning, 4},
		{3, TurnAfternoon, 5},
	}
	for _, c := range cases {
		got, err := SlotFor(c.day, c.turn)
		if err != nil || got != c.want {
			t.Fatalf("SlotFor(%d, %s) = %d, %v; want %d", c.day, c.turn, got, err, c.want)
		}
	}

	for _, bad := range []struct {
		day  int
		turn Turn
	}{{0, TurnMorning}, {4, TurnAfternoon}, {1, "evening"}} {
		if _, err := SlotFor(bad.day, bad.turn); !errors.Is(err, ErrInvalidSlot) {
			t.Fatalf("SlotFor(%d, %q): expected ErrInvalidSlot, got %v", bad.day, bad.turn, err)
		}
	}
}

func TestAttendanceRecord_TotalAndLevel(t *testing.T) {
	rec := AttendanceRecord{1, 1, 0, 1, 1, 0}
	if rec.Total() != 4 {
		t.Fatalf("expected total 4, got %d", rec.Total())
	}
	if rec.Level() != AttendancePartial {
		t.Fatalf("expected partial, got %s", rec.Level())
	}
	if p := rec.Percent(); p < 66.6 || p > 66.7 {
		t.Fatalf("expected ~66.67%%, got %f", p)
	}

	full := AttendanceRecord{1, 1, 1, 1, 1, 1}
	if full.Level() != AttendanceComplete {
		t.Fatalf("expected complete, got %s", full.Level())
	}
	if (AttendanceRecord{1, 1, 1}).Level() != AttendanceLow {
		t.Fatalf("three slots should be low")
	}
}

func TestSlotDelta_ApplyRevert(t *testing.T) {
	before := RosterEntry{ID: "a1", Attendance: AttendanceRecord{0, 1, 0, 0, 0, 0}}
	e := before

	d := SlotDelta{Index: 2, Value: 1}
	if err := d.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := d.Apply(&e); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if e.Attendance != (AttendanceRecord{0, 1, 1, 0, 0, 0}) {
		t.Fatalf("unexpected attendance after apply: %v", e.Attendance)
	}

	// A concurrent change to another slot survives the revert.
	e.Attendance[5] = 1
	d.Revert(&e, before)
	if e.Attendance != (AttendanceRecord{0, 1, 0, 0, 0, 1}) {
		t.Fatalf("unexpected attendance after revert: %v", e.Attendance)
	}

	if err := (SlotDelta{Index: 6, Value: 1}).Validate(); !errors.Is(err, ErrInvalidSlot) {
		t.Fatalf("expected ErrInvalidSlot, got %v", err)
	}
}
