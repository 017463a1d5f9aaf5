// Package logger wraps log/slog with the conventions used across drivebox:
// environment-switched handlers (JSON in production, text in development),
// a per-request logger injected into context by the logging middleware, and
// an optional asynchronous MongoDB sink for log shipping.
//
// Handlers and services log through the context to keep request correlation:
//
//	log := logger.WithCtx(r.Context())
//	log.Info("file uploaded", "file_id", f.ID, "bytes", f.Size)
//	// → level=INFO msg="file uploaded" request_id=4f1a… file_id=9 bytes=1048576
package logger

import (
	"context"
	"log/slog"
	"os"

	"drivebox/config"
)

// L is the process-wide base logger. Request handlers should prefer
// WithCtx so the request_id attribute is attached automatically.
var L *slog.Logger

var mongoSink *MongoHandler

func init() {
	L = slog.New(newBaseHandler())
	slog.SetDefault(L)
}

func newBaseHandler() slog.Handler {
	opts := &slog.HandlerOptions{Level: configuredLevel()}
	switch config.AppEnv() {
	case "production", "prod":
		return slog.NewJSONHandler(os.Stdout, opts)
	default:
		return slog.NewTextHandler(os.Stdout, opts)
	}
}

func configuredLevel() slog.Level {
	switch config.Get("LOG_LEVEL", "") {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "info":
		return slog.LevelInfo
	}
	if env := config.AppEnv(); env == "production" || env == "prod" {
		return slog.LevelInfo
	}
	return slog.LevelDebug
}

// AttachMongo adds an asynchronous MongoDB sink next to the stdout handler.
// Called once at bootstrap when LOG_MONGO_URI is configured.
func AttachMongo(uri, db, collection string) error {
	h, err := NewMongoHandler(uri, db, collection)
	if err != nil {
		return err
	}
	mongoSink = h
	L = slog.New(NewMultiHandler(newBaseHandler(), h))
	slog.SetDefault(L)
	return nil
}

// Shutdown flushes and closes the Mongo sink if one was attached.
func Shutdown() {
	if mongoSink != nil {
		mongoSink.Close()
		mongoSink = nil
	}
}

type ctxKey struct{}

// InjectLogger stores a request-scoped logger in ctx. Called by the logging
// middleware; application code normally only reads via WithCtx.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// WithCtx returns the request-scoped logger stored in ctx, falling back to
// the base logger when the middleware has not run (tests, CLI commands).
func WithCtx(ctx context.Context) *slog.Logger {
	if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return L
}

// Debug logs at DEBUG level on the base logger.
func Debug(msg string, args ...any) { L.Debug(msg, args...) }

// Info logs at INFO level on the base logger.
func Info(msg string, args ...any) { L.Info(msg, args...) }

// Warn logs at WARN level on the base logger.
func Warn(msg string, args ...any) { L.Warn(msg, args...) }

// Error logs at ERROR level on the base logger.
func Error(msg string, args ...any) { L.Error(msg, args...) }
