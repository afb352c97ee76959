package telemetry

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// memoryLogExporter keeps exported log records for assertions.
type memoryLogExporter struct {
	mu      sync.Mutex
	records []sdklog.Record
}

func (e *memoryLogExporter) Export(_ context.Context, records []sdklog.Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range records {
		e.records = append(e.records, r.Clone())
	}
	return nil
}

func (e *memoryLogExporter) Shutdown(context.Context) error   { return nil }
func (e *memoryLogExporter) ForceFlush(context.Context) error { return nil }

func (e *memoryLogExporter) bodies() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.records))
	for _, r := range e.records {
		out = append(out, r.Body().AsString())
	}
	return out
}

func TestSetup_Disabled(t *testing.T) {
	ctx := context.Background()
	p, err := Setup(ctx, Config{ServiceName: "storesync-test", LogsEnabled: true}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, p.TracingEnabled())
	assert.False(t, p.MetricsEnabled())
	assert.NotNil(t, p.Meter("storesync"))
	assert.NoError(t, p.Shutdown(ctx))
}

func TestProviders_NilSafe(t *testing.T) {
	var p *Providers
	assert.False(t, p.TracingEnabled())
	assert.False(t, p.MetricsEnabled())
	assert.NotNil(t, p.Meter("storesync"))
	assert.NoError(t, p.Shutdown(context.Background()))

	base := zap.NewNop()
	assert.Same(t, base, p.BridgeLogger(base, "storesync", zapcore.InfoLevel))
}

func TestBridgeLogger_ForwardsAtOrAboveLevel(t *testing.T) {
	exporter := &memoryLogExporter{}
	p := &Providers{
		logs:   sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(exporter))),
		logger: zap.NewNop(),
	}
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	observed, local := observer.New(zapcore.DebugLevel)
	log := p.BridgeLogger(zap.New(observed), "storesync-test", zapcore.WarnLevel)

	log.Debug("variant skipped")
	log.Info("reconciliation finished")
	log.With(zap.String("order_id", "1001")).Error("invoice workflow failed")

	assert.Equal(t, 3, local.Len(), "local output keeps every level")
	assert.Equal(t, []string{"invoice workflow failed"}, exporter.bodies())
}
