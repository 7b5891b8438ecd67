package remote

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/cometsur/checkin-sync/internal/core/ports"
)

// wireUser is a user document as the API serializes it. Older records use
// "id" instead of "_id", and importe may be a number or a string.
type wireUser struct {
	MongoID    string          `json:"_id"`
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Estado     string          `json:"estado"`
	Email      string          `json:"email"`
	University string          `json:"university"`
	Importe    json.RawMessage `json:"importe"`
	Category   string          `json:"category"`
	Profesion  string          `json:"profesion"`
	Pago       string          `json:"pago"`
	Baucher    string          `json:"baucher"`
	Asistencia json.RawMessage `json:"asistencia"`
	UpdatedAt  *time.Time      `json:"updatedAt"`
}

func (w wireUser) toRecord() ports.UserRecord {
	rec := ports.UserRecord{
		ID:            w.MongoID,
		Name:          w.Name,
		Estado:        w.Estado,
		Email:         w.Email,
		University:    w.University,
		ImportAmount:  scalarText(w.Importe),
		Category:      w.Category,
		Profession:    w.Profesion,
		PaymentMethod: w.Pago,
		Voucher:       w.Baucher,
		Attendance:    w.Asistencia,
	}
	if rec.ID == "" {
		rec.ID = w.ID
	}
	if w.UpdatedAt != nil {
		rec.UpdatedAt = *w.UpdatedAt
	}
	return rec
}

// scalarText renders a JSON number or string as plain text. null and
// anything else yield "".
func scalarText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string    `json:"token"`
	User  *wireUser `json:"user"`
}

// userEnvelope covers the {user, token} shape of GET /users/{id}.
type userEnvelope struct {
	User  *wireUser `json:"user"`
	Token string    `json:"token"`
}

type registerResponse struct {
	MongoID string `json:"_id"`
	ID      string `json:"id"`
	User    *struct {
		MongoID string `json:"_id"`
		ID      string `json:"id"`
	} `json:"user"`
}

func (r registerResponse) userID() string {
	switch {
	case r.MongoID != "":
		return r.MongoID
	case r.ID != "":
		return r.ID
	case r.User != nil && r.User.MongoID != "":
		return r.User.MongoID
	case r.User != nil:
		return r.User.ID
	}
	return ""
}

type slotBody struct {
	Index int   `json:"index"`
	Valor uint8 `json:"valor"`
}

type profileBody struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}
