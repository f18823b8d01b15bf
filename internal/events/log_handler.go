package events

import (
	"context"
	"log/slog"

	"github.com/phrazzld/scry-notes/internal/platform/logger"
)

// LogHandler writes every review to the structured log.
type LogHandler struct {
	logger *slog.Logger
}

// NewLogHandler creates a LogHandler. If logger is nil, a default logger will be used.
func NewLogHandler(logger *slog.Logger) *LogHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogHandler{logger: logger.With(slog.String("component", "review_log"))}
}

// HandleEvent implements EventHandler.
func (h *LogHandler) HandleEvent(ctx context.Context, event *ReviewEvent) error {
	log := logger.FromContextOrDefault(ctx, h.logger)
	log.Info("card reviewed",
		slog.String("event_id", event.ID.String()),
		slog.String("deck_id", event.DeckID.String()),
		slog.String("card_id", event.CardID.String()),
		slog.Bool("correct", event.Correct),
		slog.Int("old_index", event.OldIndex),
		slog.Int("new_index", event.NewIndex),
		slog.Bool("requeued", event.Requeued()))
	return nil
}
