package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/cometsur/checkin-sync/internal/core/domain"
	"github.com/cometsur/checkin-sync/internal/core/ports"
	"github.com/cometsur/checkin-sync/internal/infrastructure/cache"
)

// RegistrationInput is a new attendee as typed at the desk.
type RegistrationInput struct {
	Name          string `json:"name" validate:"required"`
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"required,min=4"`
	University    string `json:"university" validate:"required"`
	ImportAmount  string `json:"importe"`
	Category      string `json:"category" validate:"required"`
	PaymentMethod string `json:"pago"`
	Voucher       string `json:"baucher"`
	Profession    string `json:"profesion"`
}

// RegistrationService registers attendees on the server after checking the
// roster for duplicates.
type RegistrationService struct {
	api      ports.UserAPI
	store    ports.CacheStore
	roster   *RosterCache
	validate *validator.Validate
	log      zerolog.Logger
}

func NewRegistrationService(api ports.UserAPI, store ports.CacheStore, roster *RosterCache, log zerolog.Logger) *RegistrationService {
	return &RegistrationService{
		api:      api,
		store:    store,
		roster:   roster,
		validate: validator.New(),
		log:      log,
	}
}

// Register validates in, rejects duplicate emails and vouchers, and creates
// the account. It returns the new user id, which may be empty.
func (s *RegistrationService) Register(ctx context.Context, in RegistrationInput) (string, error) {
	in.Name = NormalizeName(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Voucher = strings.TrimSpace(in.Voucher)

	if err := s.validate.Struct(in); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			return "", fmt.Errorf("%w: %s %s", domain.ErrInvalidInput, strings.ToLower(ve[0].Field()), ve[0].Tag())
		}
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	amount := decimal.Zero
	if raw := strings.TrimSpace(in.ImportAmount); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil || d.IsNegative() {
			return "", fmt.Errorf("%w: importe %q", domain.ErrInvalidInput, in.ImportAmount)
		}
		amount = d.Truncate(0)
	}

	if err := s.checkDuplicates(ctx, in.Email, in.Voucher); err != nil {
		return "", err
	}

	id, err := s.api.Register(ctx, ports.RegisterRequest{
		Name:          in.Name,
		Email:         in.Email,
		Password:      in.Password,
		University:    in.University,
		ImportAmount:  json.Number(amount.String()),
		Category:      in.Category,
		PaymentMethod: in.PaymentMethod,
		Voucher:       in.Voucher,
		Profession:    in.Profession,
	})
	if err != nil {
		return "", err
	}

	s.log.Info().Str("user_id", id).Str("category", in.Category).Msg("attendee registered")
	return id, nil
}

// checkDuplicates compares against a fresh roster, falling back to the
// cached one when the server cannot be reached.
func (s *RegistrationService) checkDuplicates(ctx context.Context, email, voucher string) error {
	var entries []domain.RosterEntry

	token, _ := s.store.Read(ctx, cache.KeyToken)
	records, err := s.api.FetchRoster(ctx, token)
	if err != nil {
		s.log.Warn().Err(err).Msg("duplicate check using cached roster")
		entries = s.roster.Entries(ctx)
	} else {
		entries = make([]domain.RosterEntry, 0, len(records))
		for _, r := range records {
			entries = append(entries, entryFromRecord(r))
		}
	}

	for _, e := range entries {
		if strings.EqualFold(strings.TrimSpace(e.Email), email) {
			return domain.ErrDuplicateEmail
		}
		if voucher != "" && strings.TrimSpace(e.VoucherCode) == voucher {
			return domain.ErrDuplicateVoucher
		}
	}
	return nil
}

// Spanish particles kept in lower case inside names.
var nameParticles = map[string]bool{
	"de": true, "la": true, "del": true, "los": true, "las": true, "y": true,
	"e": true, "el": true, "a": true, "al": true, "en": true, "un": true,
	"una": true, "unos": true, "unas": true, "con": true, "por": true,
	"para": true, "sin": true, "sobre": true, "entre": true, "hacia": true,
	"hasta": true, "desde": true, "durante": true, "mediante": true,
}

// NormalizeName title-cases a person's name: "maría DE la o-pérez" becomes
// "María de la O-Pérez". The first word is always capitalized.
func NormalizeName(name string) string {
	words := strings.Fields(cases.Lower(language.Spanish).String(name))
	for i, w := range words {
		if i == 0 {
			words[i] = upperFirst(w)
			continue
		}
		if nameParticles[w] {
			continue
		}
		parts := strings.Split(w, "-")
		for j, p := range parts {
			if !nameParticles[p] {
				parts[j] = upperFirst(p)
			}
		}
		words[i] = strings.Join(parts, "-")
	}
	return strings.Join(words, " ")
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
