// Package remote is the HTTP client for the conference REST API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cometsur/checkin-sync/internal/core/domain"
	"github.com/cometsur/checkin-sync/internal/core/ports"
)

const (
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 4 << 10
)

// Config holds the client settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client implements ports.UserAPI over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

var _ ports.UserAPI = (*Client)(nil)

// NewClient creates a Client. A default timeout is applied when none is
// provided.
func NewClient(cfg Config, log zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// Login exchanges credentials for a token and the user document.
func (c *Client) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", loginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if resp.Token == "" || resp.User == nil {
		return nil, fmt.Errorf("login: %w", domain.ErrIncompleteReply)
	}
	return &ports.LoginResult{Token: resp.Token, User: resp.User.toRecord()}, nil
}

// Register creates an account and returns the new user id. The id may be
// empty when the server does not echo one.
func (c *Client) Register(ctx context.Context, req ports.RegisterRequest) (string, error) {
	var resp registerResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", "", req, &resp); err != nil {
		return "", fmt.Errorf("register: %w", err)
	}
	return resp.userID(), nil
}

// FetchUser loads one user. Both the {user, token} envelope and a bare user
// document are accepted.
func (c *Client) FetchUser(ctx context.Context, token, id string) (*ports.UserPayload, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(id), token, nil, &raw); err != nil {
		return nil, fmt.Errorf("fetch user %s: %w", id, err)
	}

	var env userEnvelope
	if err := json.Unmarshal(raw, &env); err == nil && env.User != nil {
		return &ports.UserPayload{User: env.User.toRecord(), Token: env.Token}, nil
	}

	var flat wireUser
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, fmt.Errorf("fetch user %s: decode: %w", id, err)
	}
	return &ports.UserPayload{User: flat.toRecord()}, nil
}

// FetchRoster lists every registered user.
func (c *Client) FetchRoster(ctx context.Context, token string) ([]ports.UserRecord, error) {
	var users []wireUser
	if err := c.do(ctx, http.MethodGet, "/users/", token, nil, &users); err != nil {
		return nil, fmt.Errorf("fetch roster: %w", err)
	}
	out := make([]ports.UserRecord, 0, len(users))
	for _, u := range users {
		out = append(out, u.toRecord())
	}
	return out, nil
}

// UpdateUser PUTs delta to /users/{id}.
func (c *Client) UpdateUser(ctx context.Context, token, id string, delta domain.FieldDelta) (*ports.UserRecord, error) {
	var body any
	switch d := delta.(type) {
	case domain.SlotDelta:
		body = slotBody{Index: d.Index, Valor: d.Value}
	case domain.ProfileDelta:
		body = profileBody{Name: d.Name, Email: d.Email, Password: d.Password}
	default:
		return nil, fmt.Errorf("update user %s: unsupported delta %T", id, delta)
	}

	// The server's 2xx body may be a user, a message or plain text; only a
	// user echo matters, anything else is a bare acknowledgement.
	var raw []byte
	if err := c.do(ctx, http.MethodPut, "/users/"+url.PathEscape(id), token, body, &raw); err != nil {
		return nil, fmt.Errorf("update user %s: %w", id, err)
	}

	var env userEnvelope
	if err := json.Unmarshal(raw, &env); err == nil && env.User != nil {
		rec := env.User.toRecord()
		if rec.ID != "" {
			return &rec, nil
		}
	}
	var flat wireUser
	if err := json.Unmarshal(raw, &flat); err == nil && (flat.MongoID != "" || flat.ID != "") {
		rec := flat.toRecord()
		return &rec, nil
	}
	return nil, nil
}

// DeleteUser removes the user with a DELETE /users/{id}. Any 2xx reply
// counts as success whatever its body.
func (c *Client) DeleteUser(ctx context.Context, token, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/users/"+url.PathEscape(id), token, nil, nil); err != nil {
		return fmt.Errorf("delete user %s: %w", id, err)
	}
	return nil
}

// do sends the request and decodes a 2xx JSON body into out. A *[]byte out
// receives the raw body undecoded.
func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("remote call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if raw, ok := out.(*[]byte); ok {
		*raw = b
		return nil
	}
	if len(bytes.TrimSpace(b)) == 0 {
		b = []byte("null")
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &domain.APIError{Status: resp.StatusCode}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var eb errorBody
	if json.Unmarshal(b, &eb) == nil {
		apiErr.Message = eb.Message
		if apiErr.Message == "" {
			apiErr.Message = eb.Error
		}
	}
	return apiErr
}
