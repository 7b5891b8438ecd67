package ports

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cometsur/checkin-sync/internal/core/domain"
)

// UserRecord is a user as the remote API describes it. Attendance is kept
// raw so the synchronizers decide how to normalize it.
type UserRecord struct {
	ID            string
	Name          string
	Estado        string
	Email         string
	University    string
	ImportAmount  string
	Category      string
	Profession    string
	PaymentMethod string
	Voucher       string
	Attendance    json.RawMessage
	UpdatedAt     time.Time
}

// UserPayload is the reply of GET /users/{id}. Token is empty when the
// server did not renew the credential.
type UserPayload struct {
	User  UserRecord
	Token string
}

// LoginResult is the reply of POST /auth/login.
type LoginResult struct {
	Token string
	User  UserRecord
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Name          string      `json:"name"`
	Email         string      `json:"email"`
	Password      string      `json:"password"`
	University    string      `json:"university"`
	ImportAmount  json.Number `json:"importe"`
	Category      string      `json:"category"`
	PaymentMethod string      `json:"pago,omitempty"`
	Voucher       string      `json:"baucher,omitempty"`
	Profession    string      `json:"profesion,omitempty"`
}

// UserAPI is the remote REST API consumed by the sync layer.
type UserAPI interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Register(ctx context.Context, req RegisterRequest) (string, error)
	FetchUser(ctx context.Context, token, id string) (*UserPayload, error)
	FetchRoster(ctx context.Context, token string) ([]UserRecord, error)
	// UpdateUser sends delta as a PUT. The returned record is nil when the
	// server acknowledged without echoing the user.
	UpdateUser(ctx context.Context, token, id string, delta domain.FieldDelta) (*UserRecord, error)
	DeleteUser(ctx context.Context, token, id string) error
}
