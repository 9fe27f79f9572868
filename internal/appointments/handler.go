package appointments

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bookline/booking-platform/pkg/logging"
)

// Handler exposes the lifecycle transitions over HTTP for the business side.
type Handler struct {
	lifecycle *Lifecycle
	logger    *logging.Logger
}

// NewHandler creates an appointments handler.
func NewHandler(lifecycle *Lifecycle, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{lifecycle: lifecycle, logger: logger}
}

type transitionRequest struct {
	ActorChatID int64 `json:"actor_chat_id"`
}

// Confirm handles POST /appointments/{id}/confirm.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.lifecycle.Confirm)
}

// Reject handles POST /appointments/{id}/reject.
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.lifecycle.Reject)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, id uuid.UUID, actorChatID int64) error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid appointment id", http.StatusBadRequest)
		return
	}

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	switch err := apply(r.Context(), id, req.ActorChatID); {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "appointment not found", http.StatusNotFound)
	case errors.Is(err, ErrInvalidTransition):
		http.Error(w, "appointment already decided", http.StatusConflict)
	default:
		h.logger.Error("appointment transition failed", "error", err, "appointment_id", id)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
