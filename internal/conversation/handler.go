package conversation

import (
	"encoding/json"
	"net/http"

	"github.com/bookline/booking-platform/pkg/logging"
)

// Handler receives chat webhook updates and feeds them to the controller.
type Handler struct {
	controller *Controller
	logger     *logging.Logger
}

// NewHandler creates a webhook handler.
func NewHandler(controller *Controller, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{controller: controller, logger: logger}
}

// update is one webhook delivery. Exactly one of Text or Callback is set.
type update struct {
	ChatID   int64  `json:"chat_id"`
	Text     string `json:"text,omitempty"`
	Callback string `json:"callback,omitempty"`
}

// Webhook handles POST /webhooks/chat. Controller errors are logged and
// swallowed: the chat transport retries on non-2xx, and a user already told
// "something went wrong" should not be told twice.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	var u update
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if u.ChatID == 0 {
		http.Error(w, "chat_id is required", http.StatusBadRequest)
		return
	}

	var err error
	switch {
	case u.Callback != "":
		err = h.controller.OnCallback(r.Context(), u.ChatID, u.Callback)
	default:
		err = h.controller.OnMessage(r.Context(), u.ChatID, u.Text)
	}
	if err != nil {
		h.logger.Error("webhook update failed", "chat_id", u.ChatID, "error", err)
	}
	w.WriteHeader(http.StatusOK)
}
