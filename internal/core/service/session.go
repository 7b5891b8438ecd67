package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cometsur/checkin-sync/internal/core/domain"
	"github.com/cometsur/checkin-sync/internal/core/ports"
	"github.com/cometsur/checkin-sync/internal/infrastructure/cache"
)

// undefinedToken is what a client stored when it serialized a missing token.
const undefinedToken = "undefined"

// readSession loads the cached session. ok is false when no usable token or
// user id is present.
func readSession(ctx context.Context, store ports.CacheStore) (domain.UserSnapshot, bool) {
	var snap domain.UserSnapshot
	snap.Token, _ = store.Read(ctx, cache.KeyToken)
	snap.ID, _ = store.Read(ctx, cache.KeyUserID)
	name, _ := store.Read(ctx, cache.KeyName)
	snap.DisplayName = name
	if role, ok := store.Read(ctx, cache.KeyRole); ok {
		snap.Role = domain.Role(role)
	}
	snap.Email, _ = store.Read(ctx, cache.KeyEmail)
	snap.University, _ = store.Read(ctx, cache.KeyUniversity)
	snap.ImportAmount, _ = store.Read(ctx, cache.KeyImporte)
	snap.Category, _ = store.Read(ctx, cache.KeyCategory)
	snap.Attendance, _ = cache.ReadJSON[domain.AttendanceRecord](ctx, store, cache.KeyAttendance)
	if raw, ok := store.Read(ctx, cache.KeyLoginAt); ok {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			snap.LoginAt = t
		}
	}

	if snap.Token == "" || snap.Token == undefinedToken || snap.ID == "" {
		return snap, false
	}
	return snap, true
}

// writeSession stores every field of snap and stamps the last-updated
// marker.
func writeSession(ctx context.Context, store ports.CacheStore, snap domain.UserSnapshot, now time.Time) error {
	values := []struct{ key, value string }{
		{cache.KeyToken, snap.Token},
		{cache.KeyUserID, snap.ID},
		{cache.KeyName, snap.DisplayName},
		{cache.KeyRole, string(snap.Role)},
		{cache.KeyEmail, snap.Email},
		{cache.KeyUniversity, snap.University},
		{cache.KeyImporte, snap.ImportAmount},
		{cache.KeyCategory, snap.Category},
	}
	for _, kv := range values {
		if err := store.Write(ctx, kv.key, kv.value); err != nil {
			return fmt.Errorf("write session: %w", err)
		}
	}
	if err := cache.WriteJSON(ctx, store, cache.KeyAttendance, snap.Attendance); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	if !snap.LoginAt.IsZero() {
		if err := store.Write(ctx, cache.KeyLoginAt, snap.LoginAt.UTC().Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("write session: %w", err)
		}
	}
	if err := store.Write(ctx, cache.KeyLastUpdated, now.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

func clearSession(ctx context.Context, store ports.CacheStore) error {
	if err := store.Delete(ctx, cache.SessionKeys...); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// snapshotFromRecord builds a snapshot from a server record. Fields the
// server left blank keep their previous value.
func snapshotFromRecord(rec ports.UserRecord, prev domain.UserSnapshot) domain.UserSnapshot {
	next := prev
	if rec.ID != "" {
		next.ID = rec.ID
	}
	if rec.Name != "" {
		next.DisplayName = strings.TrimSpace(rec.Name)
	}
	if rec.Estado != "" {
		next.Role = domain.ParseRole(rec.Estado)
	}
	if rec.Email != "" {
		next.Email = rec.Email
	}
	if rec.University != "" {
		next.University = rec.University
	}
	if rec.ImportAmount != "" {
		next.ImportAmount = rec.ImportAmount
	}
	if rec.Category != "" {
		next.Category = rec.Category
	}
	next.Attendance = domain.NormalizeAttendance(rec.Attendance)
	return next
}

// tokenExpired reports whether token is a JWT whose exp claim has passed.
// Opaque tokens never expire client-side.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !now.Before(exp.Time)
}
