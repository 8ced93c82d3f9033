package zaptelemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	dashboard "github.com/goliatone/go-dashgrid/components/dashboard"
)

func TestRecordWritesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	tel := New(zap.New(core))

	tel.Record(context.Background(), "dashboard.widget_added", map[string]any{"slug": "ops", "widget_id": int64(3)})
	tel.Record(context.Background(), "dashboard.hook.error", map[string]any{"error": errors.New("down")})

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, "dashboard.widget_added", entries[0].Message)
	assert.Equal(t, "dashboard", entries[0].LoggerName)
	assert.Equal(t, "ops", entries[0].ContextMap()["slug"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "down", entries[1].ContextMap()["error"])
}

func TestServiceEmitsThroughZap(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	svc := dashboard.NewService(dashboard.Options{
		Gateway:   dashboard.NewMemoryGateway(),
		Telemetry: New(zap.New(core)),
	})
	_, err := svc.CreateDashboard(context.Background(), "Ops")
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("dashboard.create").Len())
}

func TestNilLogger(t *testing.T) {
	New(nil).Record(context.Background(), "noop", nil)
}
