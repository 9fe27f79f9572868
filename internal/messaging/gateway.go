package messaging

import (
	"context"
	"strings"
)

// Button is an inline affordance attached to a message. Callback carries an
// opaque "command:payload" string echoed back when the user presses it.
type Button struct {
	Label    string
	Callback string
}

// Gateway delivers conversational output to a chat. Transport mechanics
// live behind this interface; the engine only needs send/edit/delete.
type Gateway interface {
	SendMessage(ctx context.Context, chatID int64, text string, buttons [][]Button) (messageID int64, err error)
	EditMessage(ctx context.Context, chatID int64, messageID int64, text string, buttons [][]Button) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int64) error
}

// ParseCallback splits a button callback into its command key and payload
// at the first colon. A payload may itself contain colons.
func ParseCallback(callback string) (command, data string) {
	command, data, found := strings.Cut(callback, ":")
	if !found {
		return callback, ""
	}
	return command, data
}

// FormatCallback is the inverse of ParseCallback.
func FormatCallback(command, data string) string {
	if data == "" {
		return command
	}
	return command + ":" + data
}
