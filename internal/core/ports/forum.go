package ports

import (
	"context"

	"github.com/cometsur/checkin-sync/internal/core/domain"
)

// ForumEventKind distinguishes inbound realtime events.
type ForumEventKind string

const (
	ForumMessage    ForumEventKind = "message"
	ForumHistory    ForumEventKind = "history"
	ForumDisconnect ForumEventKind = "disconnect"
)

// ForumEvent is one inbound realtime event.
type ForumEvent struct {
	Kind    ForumEventKind
	Message domain.ForumMessage
	History []domain.ForumMessage
}

// ForumTransport is the realtime messaging connection. Connect blocks until
// the connection is established or the connect timeout elapses; handler is
// then invoked for every inbound event until Close.
type ForumTransport interface {
	Connect(ctx context.Context, token string, handler func(ForumEvent)) error
	Send(ctx context.Context, text string) error
	Close() error
}
