package log

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// SpanProvider returns the trace/span ID of the ambient tracing-manager span
// active on the calling goroutine, if any. It exists so pkg/log can stamp
// log lines with trace correlation data without importing
// pkg/managers/tracing directly (which itself logs through this package).
type SpanProvider func() (traceID, spanID string, ok bool)

var (
	spanProviderMu sync.RWMutex
	spanProvider   SpanProvider
)

// SetSpanProvider registers the function traceCore uses to look up the
// active span. pkg/managers/tracing.New calls this when constructing a
// tracing manager against a Runtime.
func SetSpanProvider(fn SpanProvider) {
	spanProviderMu.Lock()
	spanProvider = fn
	spanProviderMu.Unlock()
}

func getSpanProvider() SpanProvider {
	spanProviderMu.RLock()
	defer spanProviderMu.RUnlock()
	return spanProvider
}

// traceCore is a zap Core wrapper that stamps the active span's trace/span
// IDs onto every log entry, adapted from the teacher's traceCore which read
// from a goroutine-bucketed context map directly.
type traceCore struct {
	zapcore.Core
}

func (c *traceCore) With(fields []zapcore.Field) zapcore.Core {
	return &traceCore{Core: c.Core.With(fields)}
}

func (c *traceCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	provider := getSpanProvider()
	if provider == nil {
		return c.Core.Write(entry, fields)
	}

	traceID, spanID, ok := provider()
	if !ok {
		return c.Core.Write(entry, fields)
	}

	traceFields := []zapcore.Field{
		zap.String("trace_id", traceID),
		zap.String("span_id", spanID),
	}
	fields = append(traceFields, fields...)

	return c.Core.Write(entry, fields)
}

func (c *traceCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func wrapCoreWithTrace(core zapcore.Core) zapcore.Core {
	return &traceCore{Core: core}
}
