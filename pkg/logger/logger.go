// Package logger configures lexishard's process-wide slog default and hands
// out component-tagged child loggers, e.g. the "shard" field every shard
// writer log line carries, or the "request_id" field threaded
// through cmd/search's HTTP middleware chain.
package logger

import (
	"context"
	"log/slog"
	"os"
)

type contextKey struct{}

func Setup(level string, format string) {
	var handler slog.Handler
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	default:
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// Startup logs a single banner line right after Setup, tagging it with the
// binary's own name so multi-process deployments can tell which cmd a log
// line came from without a separate field on every subsequent line. It is
// called by cmd/search ("search") and cmd/apikeys; cmd/indexer, cmd/ingest
// and cmd/loadtest do not emit it.
func Startup(binary, version string) {
	slog.Info("lexishard starting", "binary", binary, "version", version, "pid", os.Getpid())
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKey{}, requestID)
}

func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()
	if requestID, ok := ctx.Value(contextKey{}).(string); ok {
		logger = logger.With("request_id", requestID)
	}
	return logger
}

func WithComponent(component string) *slog.Logger {
	return slog.Default().With("component", component)
}

// WithShard tags a logger with the shard file index, used by
// internal/shard's writer so a multi-shard write can be traced back to the
// exact shard-<index>.txt file a log line concerns.
func WithShard(shardID int) *slog.Logger {
	return slog.Default().With("component", "shard", "shard", shardID)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
