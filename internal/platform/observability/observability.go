package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Config captures observability toggles. Exporter endpoints can be added here
// once an OTel backend is wired in.
type Config struct {
	Enabled bool
}

// ShutdownFunc tears down any observability exporters.
type ShutdownFunc func(context.Context) error

var (
	mu    sync.RWMutex
	log   *slog.Logger
	state Config
)

func current() (*slog.Logger, Config) {
	mu.RLock()
	defer mu.RUnlock()
	return log, state
}

// Setup wires the instrumentation sinks. Spans and metrics are reported
// through the structured logger until a real exporter exists.
func Setup(ctx context.Context, cfg Config, logger *slog.Logger) (ShutdownFunc, error) {
	mu.Lock()
	log = logger
	state = cfg
	mu.Unlock()

	if logger != nil {
		if cfg.Enabled {
			logger.InfoContext(ctx, "[OBSERVABILITY] instrumentation enabled")
		} else {
			logger.InfoContext(ctx, "[OBSERVABILITY] instrumentation disabled")
		}
	}
	return func(context.Context) error { return nil }, nil
}

// Enabled reports whether observability has been toggled on.
func Enabled() bool {
	_, cfg := current()
	return cfg.Enabled
}

// StartSpan records a lightweight span lifecycle around an operation.
func StartSpan(ctx context.Context, component, operation string) (context.Context, func(error)) {
	logger, _ := current()
	if logger == nil {
		return ctx, func(error) {}
	}

	start := time.Now()
	logger.LogAttrs(ctx, slog.LevelDebug, "span start",
		slog.String("component", component),
		slog.String("operation", operation),
	)

	return ctx, func(err error) {
		level := slog.LevelDebug
		if err != nil {
			level = slog.LevelError
		}

		attrs := []slog.Attr{
			slog.String("component", component),
			slog.String("operation", operation),
			slog.Duration("duration", time.Since(start)),
		}
		if err != nil {
			attrs = append(attrs, slog.Any("error", err))
		}

		logger.LogAttrs(ctx, level, "span end", attrs...)
	}
}

// RecordMetric emits a best-effort metric datapoint via the configured logger.
func RecordMetric(ctx context.Context, name string, value float64, labels map[string]string) {
	logger, _ := current()
	if logger == nil {
		return
	}

	attrs := make([]slog.Attr, 0, len(labels)+2)
	attrs = append(attrs,
		slog.String("metric", name),
		slog.Float64("value", value),
	)
	for k, v := range labels {
		attrs = append(attrs, slog.String(k, v))
	}

	logger.LogAttrs(ctx, slog.LevelDebug, "metric", attrs...)
}
