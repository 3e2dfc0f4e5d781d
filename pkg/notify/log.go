package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// LogSink writes notifications to a structured logger.
// Success notices log at info, failures at warn.
func LogSink(logger *slog.Logger) Sink {
	return SinkFunc(func(ctx context.Context, n Notification) {
		level := slog.LevelInfo
		if n.Level == LevelError {
			level = slog.LevelWarn
		}
		logger.Log(ctx, level, n.Title, "description", n.Description, "op", n.Op)
	})
}

// WriterSink prints one line per notification, e.g.
//
//	Success: User added successfully - Added user Ada to database.
func WriterSink(w io.Writer) Sink {
	var mu sync.Mutex
	return SinkFunc(func(_ context.Context, n Notification) {
		mu.Lock()
		defer mu.Unlock()
		prefix := "Success"
		if n.Level == LevelError {
			prefix = "Error"
		}
		if n.Description != "" {
			_, _ = fmt.Fprintf(w, "%s: %s - %s\n", prefix, n.Title, n.Description)
			return
		}
		_, _ = fmt.Fprintf(w, "%s: %s\n", prefix, n.Title)
	})
}
