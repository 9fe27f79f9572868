package messaging

import (
	"context"
	"sync/atomic"

	"github.com/bookline/booking-platform/pkg/logging"
)

// ConsoleGateway logs outbound messages instead of delivering them. Used in
// development when no real transport is configured.
type ConsoleGateway struct {
	logger *logging.Logger
	nextID atomic.Int64
}

// NewConsoleGateway creates a console-backed gateway.
func NewConsoleGateway(logger *logging.Logger) *ConsoleGateway {
	if logger == nil {
		logger = logging.Default()
	}
	return &ConsoleGateway{logger: logger}
}

func (g *ConsoleGateway) SendMessage(ctx context.Context, chatID int64, text string, buttons [][]Button) (int64, error) {
	id := g.nextID.Add(1)
	g.logger.Info("send message", "chat_id", chatID, "message_id", id, "text", text, "buttons", flattenLabels(buttons))
	return id, nil
}

func (g *ConsoleGateway) EditMessage(ctx context.Context, chatID int64, messageID int64, text string, buttons [][]Button) error {
	g.logger.Info("edit message", "chat_id", chatID, "message_id", messageID, "text", text, "buttons", flattenLabels(buttons))
	return nil
}

func (g *ConsoleGateway) DeleteMessage(ctx context.Context, chatID int64, messageID int64) error {
	g.logger.Info("delete message", "chat_id", chatID, "message_id", messageID)
	return nil
}

func flattenLabels(buttons [][]Button) []string {
	var labels []string
	for _, row := range buttons {
		for _, b := range row {
			labels = append(labels, b.Label)
		}
	}
	return labels
}
