package notifications

import (
	"context"
	"log/slog"

	"foldersort/internal/logging"
	"foldersort/internal/services"
)

// NewLogService returns a Service that writes events to logger. The CLI uses
// it as the presentation layer for worker diagnostics.
func NewLogService(logger *slog.Logger) Service {
	return logService{logger: logging.NewComponentLogger(logger, "notify")}
}

type logService struct {
	logger *slog.Logger
}

func (l logService) Publish(ctx context.Context, event Event, payload Payload) error {
	attrs := []logging.Attr{logging.String("event", string(event))}
	_, hasFolder := services.FolderFromContext(ctx)
	for _, key := range []string{"message", "folder", "destination", "error"} {
		if key == "folder" && hasFolder {
			continue
		}
		if value := payloadString(payload, key); value != "" {
			attrs = append(attrs, logging.String(key, value))
		}
	}
	level := slog.LevelInfo
	if event == EventError {
		level = slog.LevelError
	}
	logging.WithContext(ctx, l.logger).LogAttrs(ctx, level, "notification", attrs...)
	return nil
}
