// Package realtime connects to the forum's websocket endpoint.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/cometsur/checkin-sync/internal/core/domain"
	"github.com/cometsur/checkin-sync/internal/core/ports"
)

const (
	defaultConnectTimeout = 5 * time.Second
	writeTimeout          = 10 * time.Second

	eventMessage = "mensaje_general"
	eventHistory = "mensajes_historicos"
	eventSend    = "mensaje"
)

// Config holds the forum endpoint settings.
type Config struct {
	URL            string
	ConnectTimeout time.Duration
}

// envelope frames every event on the wire: {"event": name, "data": payload}.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outgoingMessage struct {
	Texto string `json:"texto"`
}

type connection struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	closing atomic.Bool
}

// Transport implements ports.ForumTransport over a gorilla websocket.
type Transport struct {
	cfg Config
	log zerolog.Logger

	mu  sync.Mutex
	cur *connection
}

var _ ports.ForumTransport = (*Transport)(nil)

func NewTransport(cfg Config, log zerolog.Logger) *Transport {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	return &Transport{cfg: cfg, log: log}
}

// Connect dials the forum, replacing any previous connection. It gives up
// after the connect timeout.
func (t *Transport) Connect(ctx context.Context, token string, handler func(ports.ForumEvent)) error {
	_ = t.Close()

	dialCtx, cancel := context.WithTimeout(ctx, t.cfg.ConnectTimeout)
	defer cancel()

	dialer := websocket.Dialer{
		HandshakeTimeout: t.cfg.ConnectTimeout,
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, _, err := dialer.DialContext(dialCtx, t.cfg.URL, header)
	if err != nil {
		return fmt.Errorf("forum connect: %w", err)
	}

	c := &connection{conn: conn}
	t.mu.Lock()
	t.cur = c
	t.mu.Unlock()

	go t.readLoop(c, handler)
	return nil
}

// Send emits a chat message.
func (t *Transport) Send(ctx context.Context, text string) error {
	t.mu.Lock()
	c := t.cur
	t.mu.Unlock()
	if c == nil {
		return domain.ErrNotConnected
	}

	data, err := json.Marshal(outgoingMessage{Texto: text})
	if err != nil {
		return err
	}

	deadline := time.Now().Add(writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(deadline)
	if err := c.conn.WriteJSON(envelope{Event: eventSend, Data: data}); err != nil {
		return fmt.Errorf("forum send: %w", err)
	}
	return nil
}

// Close drops the current connection, if any.
func (t *Transport) Close() error {
	t.mu.Lock()
	c := t.cur
	t.cur = nil
	t.mu.Unlock()
	if c == nil {
		return nil
	}

	c.closing.Store(true)
	c.writeMu.Lock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()
	return c.conn.Close()
}

func (t *Transport) readLoop(c *connection, handler func(ports.ForumEvent)) {
	defer func() {
		t.mu.Lock()
		if t.cur == c {
			t.cur = nil
		}
		t.mu.Unlock()
		_ = c.conn.Close()
	}()

	for {
		mt, p, err := c.conn.ReadMessage()
		if err != nil {
			if !c.closing.Load() {
				t.log.Warn().Err(err).Msg("forum connection lost")
				handler(ports.ForumEvent{Kind: ports.ForumDisconnect})
			}
			return
		}
		if mt != websocket.TextMessage {
			continue
		}

		ev, ok := t.decode(p)
		if ok {
			handler(ev)
		}
	}
}

func (t *Transport) decode(p []byte) (ports.ForumEvent, bool) {
	var env envelope
	if err := json.Unmarshal(p, &env); err != nil {
		t.log.Debug().Err(err).Msg("ignoring malformed forum frame")
		return ports.ForumEvent{}, false
	}

	switch env.Event {
	case eventMessage:
		var m domain.ForumMessage
		if err := json.Unmarshal(env.Data, &m); err != nil {
			return ports.ForumEvent{}, false
		}
		return ports.ForumEvent{Kind: ports.ForumMessage, Message: m}, true
	case eventHistory:
		var msgs []domain.ForumMessage
		if err := json.Unmarshal(env.Data, &msgs); err != nil {
			return ports.ForumEvent{}, false
		}
		return ports.ForumEvent{Kind: ports.ForumHistory, History: msgs}, true
	default:
		return ports.ForumEvent{}, false
	}
}
