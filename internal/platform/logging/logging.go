// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package logging builds the process logger.

Records are JSON lines on stdout (log/slog). Two levels are added on top of the
slog defaults:

  - SECURITY: authentication abuse, CSRF failures, rate-limit rejections.
  - CRITICAL: failures that need an operator now.

WARNING and above are additionally handed to a [Sink], which persists them to
the operational log table. A failing sink never affects the request.
*/
package logging

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// Custom severities. SECURITY sits between WARNING and ERROR, CRITICAL above ERROR.
const (
	LevelSecurity = slog.LevelWarn + 2
	LevelCritical = slog.LevelError + 4
)

// LevelName returns the upper-case name stored for level.
func LevelName(level slog.Level) string {
	switch {
	case level >= LevelCritical:
		return "CRITICAL"
	case level >= slog.LevelError:
		return "ERROR"
	case level >= LevelSecurity:
		return "SECURITY"
	case level >= slog.LevelWarn:
		return "WARNING"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

// Options configures [New].
type Options struct {
	Debug bool
	App   string
	Sink  Sink
}

// New builds the JSON logger writing to output.
func New(output io.Writer, options Options) *slog.Logger {
	level := slog.LevelInfo
	if options.Debug {
		level = slog.LevelDebug
	}

	var handler slog.Handler = slog.NewJSONHandler(output, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if len(groups) == 0 && attr.Key == slog.LevelKey {
				if recordLevel, ok := attr.Value.Any().(slog.Level); ok {
					attr.Value = slog.StringValue(LevelName(recordLevel))
				}
			}
			return attr
		},
	})

	if options.Sink != nil {
		handler = &teeHandler{inner: handler, sink: options.Sink}
	}

	logger := slog.New(handler)
	if options.App != "" {
		logger = logger.With(slog.String("app", options.App))
	}
	return logger
}

// Security logs msg at SECURITY level.
func Security(ctx context.Context, logger *slog.Logger, msg string, args ...any) {
	logger.Log(ctx, LevelSecurity, msg, args...)
}

// Critical logs msg at CRITICAL level.
func Critical(ctx context.Context, logger *slog.Logger, msg string, args ...any) {
	logger.Log(ctx, LevelCritical, msg, args...)
}

// # Persistent Sink

// Entry is one persisted log record.
type Entry struct {
	Level     string
	Message   string
	Context   map[string]any
	UserID    string
	IPAddress string
	Time      time.Time
}

// Sink persists WARNING-and-above records.
type Sink interface {
	Write(ctx context.Context, entry Entry) error
}

// Attribute keys lifted out of the context map into dedicated columns.
const (
	AttrUserID    = "user_id"
	AttrIPAddress = "ip_address"
)

// sinkTimeout bounds a single sink write.
const sinkTimeout = 2 * time.Second

type teeHandler struct {
	inner slog.Handler
	sink  Sink
	attrs []slog.Attr
}

func (handler *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return handler.inner.Enabled(ctx, level)
}

func (handler *teeHandler) Handle(ctx context.Context, record slog.Record) error {
	err := handler.inner.Handle(ctx, record)

	if record.Level >= slog.LevelWarn {
		entry := Entry{
			Level:   LevelName(record.Level),
			Message: record.Message,
			Context: make(map[string]any),
			Time:    record.Time,
		}
		collect := func(attr slog.Attr) bool {
			switch attr.Key {
			case AttrUserID:
				entry.UserID = attr.Value.String()
			case AttrIPAddress:
				entry.IPAddress = attr.Value.String()
			default:
				value := attr.Value.Resolve().Any()
				if errValue, ok := value.(error); ok {
					value = errValue.Error()
				}
				entry.Context[attr.Key] = value
			}
			return true
		}
		for _, attr := range handler.attrs {
			collect(attr)
		}
		record.Attrs(collect)

		sinkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sinkTimeout)
		_ = handler.sink.Write(sinkCtx, entry)
		cancel()
	}

	return err
}

func (handler *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(handler.attrs)+len(attrs))
	merged = append(merged, handler.attrs...)
	merged = append(merged, attrs...)
	return &teeHandler{inner: handler.inner.WithAttrs(attrs), sink: handler.sink, attrs: merged}
}

func (handler *teeHandler) WithGroup(name string) slog.Handler {
	return &teeHandler{inner: handler.inner.WithGroup(name), sink: handler.sink, attrs: handler.attrs}
}
