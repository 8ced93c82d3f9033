// Package zaptelemetry records dashboard telemetry events as zap log entries.
package zaptelemetry

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	dashboard "github.com/goliatone/go-dashgrid/components/dashboard"
)

// Telemetry implements dashboard.Telemetry on top of a zap logger.
type Telemetry struct {
	logger *zap.Logger
}

var _ dashboard.Telemetry = (*Telemetry)(nil)

// New wraps logger; a nil logger is replaced by zap.NewNop.
func New(logger *zap.Logger) *Telemetry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Telemetry{logger: logger.Named("dashboard")}
}

// Record logs event with its payload as fields. Events ending in ".error"
// are logged at warn level.
func (t *Telemetry) Record(_ context.Context, event string, payload map[string]any) {
	level := zapcore.InfoLevel
	if strings.HasSuffix(event, ".error") {
		level = zapcore.WarnLevel
	}
	if ce := t.logger.Check(level, event); ce != nil {
		ce.Write(fields(payload)...)
	}
}

func fields(payload map[string]any) []zap.Field {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		if err, ok := payload[k].(error); ok {
			out = append(out, zap.NamedError(k, err))
			continue
		}
		out = append(out, zap.Any(k, payload[k]))
	}
	return out
}
