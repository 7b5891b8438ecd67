package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cometsur/checkin-sync/internal/core/domain"
	"github.com/cometsur/checkin-sync/internal/core/ports"
)

// AuthService implements login, logout and access to the cached session.
type AuthService struct {
	api   ports.UserAPI
	store ports.CacheStore
	now   func() time.Time
	log   zerolog.Logger
}

func NewAuthService(api ports.UserAPI, store ports.CacheStore, log zerolog.Logger) *AuthService {
	return &AuthService{api: api, store: store, now: time.Now, log: log}
}

// Login authenticates against the server and stores the session. Only the
// two known server roles are accepted; for any other role nothing is stored.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.UserSnapshot, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return domain.UserSnapshot{}, domain.ErrInvalidCredential
	}

	res, err := s.api.Login(ctx, email, password)
	if err != nil {
		return domain.UserSnapshot{}, err
	}

	role := domain.ParseRole(res.User.Estado)
	if role == domain.RoleUnrecognized {
		s.log.Warn().Str("estado", res.User.Estado).Str("user_id", res.User.ID).Msg("login with unrecognized role")
		return domain.UserSnapshot{}, domain.ErrUnrecognizedRole
	}

	snap := snapshotFromRecord(res.User, domain.UserSnapshot{})
	snap.Token = res.Token
	snap.LoginAt = s.now().UTC()
	if snap.Email == "" {
		snap.Email = email
	}

	if err := writeSession(ctx, s.store, snap, s.now()); err != nil {
		return domain.UserSnapshot{}, fmt.Errorf("login: %w", err)
	}

	s.log.Info().Str("user_id", snap.ID).Str("role", string(snap.Role)).Msg("logged in")
	return snap, nil
}

// Logout drops every session key. The roster stays cached.
func (s *AuthService) Logout(ctx context.Context) error {
	return clearSession(ctx, s.store)
}

// Current returns the cached session.
func (s *AuthService) Current(ctx context.Context) (domain.UserSnapshot, error) {
	snap, ok := readSession(ctx, s.store)
	if !ok || !snap.Authenticated() {
		return domain.UserSnapshot{}, domain.ErrNotLoggedIn
	}
	return snap, nil
}
