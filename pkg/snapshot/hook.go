package snapshot

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-arcade/ctxprop/pkg/log"
	gometrics "github.com/hashicorp/go-metrics"
)

// Listener receives one (managerName, op, durationNanos) tuple per capture
// or reactivate measurement, per §6's metrics surface. For a manager, op is
// "capture" or "reactivate"; the pseudo-manager name "snapshot" additionally
// reports the total wall-clock duration of the whole operation, with op
// "capture_total" or "reactivate_total".
type Listener func(managerName, op string, durationNanos int64)

// Hook is the timing/diagnostics component (C7): it times every manager's
// capture/reactivate call, emits the measurement to the context.timing
// logger at debug level (§6), forwards it to an optional hashicorp/go-metrics
// sink (grounded on the teacher's pkg/metrics.PrometheusSink), and fans it out
// to any registered Listener. Emission failures are swallowed — timing must
// never affect context flow.
type Hook struct {
	mu        sync.RWMutex
	listeners []Listener
	sink      gometrics.MetricSink
}

// NewHook returns a Hook with no listeners and no metrics sink attached.
func NewHook() *Hook {
	return &Hook{}
}

// AddListener registers l to receive future timing measurements.
func (h *Hook) AddListener(l Listener) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, l)
}

// SetSink attaches a hashicorp/go-metrics sink (e.g. the teacher's
// pkg/metrics.PrometheusSink) that every measurement is also forwarded to as
// a millisecond-scale sample.
func (h *Hook) SetSink(sink gometrics.MetricSink) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sink = sink
}

func (h *Hook) record(managerName, op string, d time.Duration) {
	durationNanos := d.Nanoseconds()

	log.Timing().Debugw("context timing",
		"manager", managerName, "op", op, "duration_ns", durationNanos)

	h.mu.RLock()
	sink := h.sink
	listeners := make([]Listener, len(h.listeners))
	copy(listeners, h.listeners)
	h.mu.RUnlock()

	if sink != nil {
		h.emitToSink(sink, managerName, op, d)
	}

	for _, l := range listeners {
		h.invoke(l, managerName, op, durationNanos)
	}
}

func (h *Hook) emitToSink(sink gometrics.MetricSink, managerName, op string, d time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			log.Warnw("context timing sink panicked, ignoring", "panic", fmt.Sprintf("%v", r))
		}
	}()
	sink.AddSampleWithLabels(
		[]string{"context", "propagation", op},
		float32(d.Seconds()*1000),
		[]gometrics.Label{{Name: "manager", Value: managerName}},
	)
}

func (h *Hook) invoke(l Listener, managerName, op string, durationNanos int64) {
	defer func() {
		if r := recover(); r != nil {
			log.Warnw("context timing listener panicked, ignoring", "panic", fmt.Sprintf("%v", r))
		}
	}()
	l(managerName, op, durationNanos)
}
