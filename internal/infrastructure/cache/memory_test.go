package cache

import (
	"context"
	"testing"
	"time"

	"github.com/cometsur/checkin-sync/internal/core/ports"
)

func TestMemoryStore_WriteReadDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if _, ok := s.Read(ctx, KeyToken); ok {
		t.Fatal("expected empty store")
	}
	if err := s.Write(ctx, KeyToken, "abc"); err != nil {
		t.Fatalf("write: %v", err)
	}
	if v, ok := s.Read(ctx, KeyToken); !ok || v != "abc" {
		t.Fatalf("got %q,%v want abc,true", v, ok)
	}
	if err := s.Delete(ctx, SessionKeys...); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := s.Read(ctx, KeyToken); ok {
		t.Error("token should be gone")
	}
}

func TestMemoryStore_SubscribeFiltersByKey(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var got []ports.CacheChange
	unsubscribe := s.Subscribe(KeyRoster, func(c ports.CacheChange) { got = append(got, c) })

	_ = s.Write(ctx, KeyToken, "t")
	_ = s.Write(ctx, KeyRoster, "[]")
	_ = s.Delete(ctx, KeyRoster, KeyName)

	if len(got) != 2 {
		t.Fatalf("expected 2 roster changes, got %d", len(got))
	}
	if got[0].Value != "[]" || got[0].Deleted {
		t.Errorf("unexpected first change %+v", got[0])
	}
	if !got[1].Deleted {
		t.Error("second change should be a delete")
	}

	unsubscribe()
	unsubscribe()
	_ = s.Write(ctx, KeyRoster, "[1]")
	if len(got) != 2 {
		t.Error("handler invoked after unsubscribe")
	}
}

func TestReadJSON_CorruptValueIsAbsent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_ = s.Write(ctx, KeyRoster, "{not json")

	if _, ok := ReadJSON[[]string](ctx, s, KeyRoster); ok {
		t.Error("corrupt value should read as absent")
	}

	if err := WriteJSON(ctx, s, KeyRoster, []string{"a", "b"}); err != nil {
		t.Fatalf("write json: %v", err)
	}
	v, ok := ReadJSON[[]string](ctx, s, KeyRoster)
	if !ok || len(v) != 2 {
		t.Errorf("got %v,%v", v, ok)
	}
}

func TestMemoryDeduper_Window(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)
	d := NewMemoryDeduper(func() time.Time { return now })

	dup, _ := d.IsDuplicate(ctx, "ABC", 2)
	if dup {
		t.Fatal("first scan must not be a duplicate")
	}
	_ = d.Mark(ctx, "ABC", 2, time.Minute)

	if dup, _ := d.IsDuplicate(ctx, " abc ", 2); !dup {
		t.Error("same attendee, case-insensitive, should be a duplicate")
	}
	if dup, _ := d.IsDuplicate(ctx, "abc", 3); dup {
		t.Error("other slot must not be a duplicate")
	}

	now = now.Add(time.Minute)
	if dup, _ := d.IsDuplicate(ctx, "abc", 2); dup {
		t.Error("window elapsed; should not be a duplicate")
	}
}

func TestMemoryDeduper_Forget(t *testing.T) {
	ctx := context.Background()
	d := NewMemoryDeduper(nil)

	_ = d.Mark(ctx, "abc", 1, time.Minute)
	if err := d.Forget(ctx, " ABC", 1); err != nil {
		t.Fatalf("forget: %v", err)
	}
	if dup, _ := d.IsDuplicate(ctx, "abc", 1); dup {
		t.Fatal("forgotten scan should not be a duplicate")
	}
	if err := d.Forget(ctx, "unknown", 0); err != nil {
		t.Fatalf("forgetting an unmarked slot: %v", err)
	}
}
