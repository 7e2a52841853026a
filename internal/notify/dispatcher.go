package notify

import (
	"context"
	"log/slog"
	"time"

	"pickup-games/internal/logging"
)

// EventType names a roster or lifecycle change worth telling members about.
type EventType string

const (
	EventRequestAccepted EventType = "request_accepted"
	EventPlayerRemoved   EventType = "player_removed"
	EventHostTransferred EventType = "host_transferred"
	EventGameCompleted   EventType = "game_completed"
	EventGameCancelled   EventType = "game_cancelled"
)

// Event is the payload handed to a Dispatcher.
type Event struct {
	Type       EventType         `json:"type"`
	GameID     string            `json:"gameId"`
	ActorID    string            `json:"actorId"`
	Recipients []string          `json:"recipients"`
	OccurredAt time.Time         `json:"occurredAt"`
	Data       map[string]string `json:"data,omitempty"`
}

// Dispatcher delivers events to members. Callers never depend on delivery.
type Dispatcher interface {
	Dispatch(ctx context.Context, event Event) error
}

// LogDispatcher writes events to the logger. It is used when no webhook is configured.
type LogDispatcher struct {
	logger *slog.Logger
}

func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) Dispatch(ctx context.Context, event Event) error {
	logging.Info(logging.FromContext(ctx, d.logger), "notification",
		logging.FieldEvent, string(event.Type),
		logging.FieldGameID, event.GameID,
		logging.FieldUserID, event.ActorID,
		logging.FieldCount, len(event.Recipients),
	)
	return nil
}

// Nop discards every event.
type Nop struct{}

func (Nop) Dispatch(context.Context, Event) error { return nil }
