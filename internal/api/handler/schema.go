package handler

import (
	"github.com/cometsur/checkin-sync/internal/core/domain"
	"github.com/cometsur/checkin-sync/internal/core/service"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request / Response types ---

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type sessionResponse struct {
	User  domain.UserSnapshot `json:"user"`
	State string              `json:"sync_state,omitempty"`
}

type registerResponse struct {
	ID string `json:"id,omitempty"`
}

type rosterResponse struct {
	Count   int                  `json:"count"`
	State   string               `json:"sync_state"`
	Entries []domain.RosterEntry `json:"entries"`
}

type statsResponse struct {
	service.Summary
}

type scanRequest struct {
	Code string `json:"code" validate:"required"`
	Day  int    `json:"day"  validate:"required,gte=1,lte=3"`
	Turn string `json:"turn" validate:"required,oneof=morning afternoon"`
}

type attendeeUpdateRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"    validate:"omitempty,email"`
	Password string `json:"password" validate:"omitempty,min=4"`
}

type mutationResponse struct {
	MutationID string             `json:"mutation_id"`
	Reconciled bool               `json:"reconciled"`
	Removed    bool               `json:"removed,omitempty"`
	Entry      domain.RosterEntry `json:"entry"`
}

type forumMessageRequest struct {
	Text string `json:"text" validate:"required"`
}

type forumResponse struct {
	Connected bool                  `json:"connected"`
	Messages  []domain.ForumMessage `json:"messages"`
}

type acceptedResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count,omitempty"`
}
