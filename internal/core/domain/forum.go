package domain

import (
	"errors"
	"time"
)

// MessageTTL is how long forum messages stay visible.
const MessageTTL = 30 * time.Minute

var (
	ErrNotConnected = errors.New("forum not connected")
	ErrEmptyMessage = errors.New("message is empty")
)

// ForumMessage follows the realtime server's message schema.
type ForumMessage struct {
	ID        string    `json:"_id"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Text      string    `json:"texto"`
	Timestamp time.Time `json:"timestamp"`
	UserRole  string    `json:"userEstado"`
	ExpiresAt time.Time `json:"expiresAt"`

	Own     bool `json:"own,omitempty"`
	Pending bool `json:"pending,omitempty"`
}

// Expired reports whether the message is older than MessageTTL at now.
func (m ForumMessage) Expired(now time.Time) bool {
	return now.Sub(m.Timestamp) >= MessageTTL
}
