package messaging

import (
	"context"
	"errors"
	"sync"
)

// SentMessage captures one outbound delivery for assertions.
type SentMessage struct {
	ChatID    int64
	MessageID int64
	Text      string
	Buttons   [][]Button
	Edited    bool
}

// Recorder is a Gateway double that records every delivery. Safe for
// concurrent use so controller tests can exercise parallel events.
type Recorder struct {
	mu      sync.Mutex
	nextID  int64
	sent    []SentMessage
	deleted []int64

	// FailSends makes every delivery fail, for best-effort notification tests.
	FailSends bool
}

// NewRecorder creates an empty recording gateway.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) SendMessage(ctx context.Context, chatID int64, text string, buttons [][]Button) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailSends {
		return 0, errors.New("messaging: delivery failed")
	}
	r.nextID++
	r.sent = append(r.sent, SentMessage{ChatID: chatID, MessageID: r.nextID, Text: text, Buttons: buttons})
	return r.nextID, nil
}

func (r *Recorder) EditMessage(ctx context.Context, chatID int64, messageID int64, text string, buttons [][]Button) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailSends {
		return errors.New("messaging: delivery failed")
	}
	r.sent = append(r.sent, SentMessage{ChatID: chatID, MessageID: messageID, Text: text, Buttons: buttons, Edited: true})
	return nil
}

func (r *Recorder) DeleteMessage(ctx context.Context, chatID int64, messageID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, messageID)
	return nil
}

// Sent returns a copy of every recorded delivery.
func (r *Recorder) Sent() []SentMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]SentMessage, len(r.sent))
	copy(out, r.sent)
	return out
}

// Last returns the most recent delivery, or nil when nothing was sent.
func (r *Recorder) Last() *SentMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sent) == 0 {
		return nil
	}
	msg := r.sent[len(r.sent)-1]
	return &msg
}

// SentTo filters recorded deliveries by chat.
func (r *Recorder) SentTo(chatID int64) []SentMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []SentMessage
	for _, m := range r.sent {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out
}

// Reset discards all recorded traffic.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
	r.deleted = nil
	r.nextID = 0
}
