// Package tracing provides the tracing span manager named in §4.2/C11,
// carrying go.opentelemetry.io/otel/trace.SpanContext values nested per
// §4.4, grounded on the teacher's pkg/trace/trace.go (ContextWithSpan,
// StartSpan) and pkg/trace/context/context.go's goroutine-scoped active
// context.
package tracing

import (
	"context"

	"github.com/go-arcade/ctxprop/pkg/ctxmgr"
	"github.com/go-arcade/ctxprop/pkg/log"
	"go.opentelemetry.io/otel/trace"
)

type registerer interface {
	RegisterManager(ctxmgr.Manager)
	ObserverBus() *ctxmgr.ObserverBus
}

// Manager is the tracing span context manager. A nil *Manager's zero value
// methods are never called; use New.
type Manager struct {
	stack *ctxmgr.ObservedStack
}

// New returns a tracing manager registered on rt, and wires it as the
// process-wide span source for pkg/log's trace-stamping core (so log lines
// emitted anywhere under a reactivated snapshot carry trace_id/span_id).
// Activations and deactivations fire through rt's observer bus (§4.5).
func New(rt registerer) *Manager {
	m := &Manager{stack: ctxmgr.NewObservedStack("tracing", rt.ObserverBus())}
	rt.RegisterManager(m)
	log.SetSpanProvider(m.spanProvider)
	return m
}

func (m *Manager) Name() string { return m.stack.Name }

// InitializeNewContext pushes value, which must be a trace.SpanContext, as
// the active span for the calling goroutine.
func (m *Manager) InitializeNewContext(value any) (ctxmgr.Handle, error) {
	return m.stack.Push(value), nil
}

func (m *Manager) ActiveContext() (ctxmgr.Handle, bool) { return m.stack.Active() }

func (m *Manager) ClearActiveContext() { m.stack.Clear() }

// Active returns the active trace.SpanContext for the calling goroutine.
func (m *Manager) Active() (trace.SpanContext, bool) {
	h, ok := m.stack.Active()
	if !ok {
		return trace.SpanContext{}, false
	}
	sc, ok := h.Value().(trace.SpanContext)
	return sc, ok
}

// Activate pushes sc as the active span for the calling goroutine.
func (m *Manager) Activate(sc trace.SpanContext) ctxmgr.Handle {
	return m.stack.Push(sc)
}

// ActivateFromContext extracts the span attached to ctx (if any) via
// trace.SpanFromContext and pushes its SpanContext as active, mirroring the
// teacher's ContextWithSpan propagation shape but for the goroutine-scoped
// stack instead of a context.Context value.
func (m *Manager) ActivateFromContext(ctx context.Context) (ctxmgr.Handle, bool) {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return nil, false
	}
	return m.Activate(span.SpanContext()), true
}

// ContextWithActiveSpan returns ctx augmented with the calling goroutine's
// active span, for handing off to otel APIs that expect a context.Context
// rather than the ambient stack. If no span is active, ctx is returned
// unchanged.
func (m *Manager) ContextWithActiveSpan(ctx context.Context) context.Context {
	sc, ok := m.Active()
	if !ok {
		return ctx
	}
	return trace.ContextWithSpanContext(ctx, sc)
}

func (m *Manager) spanProvider() (traceID, spanID string, ok bool) {
	sc, ok := m.Active()
	if !ok || !sc.IsValid() {
		return "", "", false
	}
	return sc.TraceID().String(), sc.SpanID().String(), true
}
