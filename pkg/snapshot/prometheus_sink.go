package snapshot

import (
	"fmt"
	"sync"

	gometrics "github.com/hashicorp/go-metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusSink adapts a prometheus.Registry to gometrics.MetricSink, so a
// Hook can be wired straight to Prometheus without the caller writing an
// adapter themselves. Grounded on the teacher's pkg/metrics.PrometheusSink,
// trimmed to the sink itself — serving /metrics over HTTP is an application
// concern outside this spec's scope.
type PrometheusSink struct {
	registry *prometheus.Registry

	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
	histograms map[string]*prometheus.HistogramVec
}

// NewPrometheusSink returns a sink registered against registry.
func NewPrometheusSink(registry *prometheus.Registry) *PrometheusSink {
	return &PrometheusSink{
		registry:   registry,
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
		histograms: make(map[string]*prometheus.HistogramVec),
	}
}

func (s *PrometheusSink) SetGauge(key []string, val float32) {
	s.SetGaugeWithLabels(key, val, nil)
}

func (s *PrometheusSink) SetGaugeWithLabels(key []string, val float32, labels []gometrics.Label) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := sanitizeMetricName(key)
	gauge, ok := s.gauges[name]
	if !ok {
		gauge = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: name, Help: fmt.Sprintf("Gauge metric for %s", name)},
			extractLabelNames(labels),
		)
		s.registry.MustRegister(gauge)
		s.gauges[name] = gauge
	}
	gauge.With(convertLabels(labels)).Set(float64(val))
}

func (s *PrometheusSink) EmitKey(key []string, val float32) { s.SetGauge(key, val) }

func (s *PrometheusSink) IncrCounter(key []string, val float32) {
	s.IncrCounterWithLabels(key, val, nil)
}

func (s *PrometheusSink) IncrCounterWithLabels(key []string, val float32, labels []gometrics.Label) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := sanitizeMetricName(key)
	counter, ok := s.counters[name]
	if !ok {
		counter = prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: name, Help: fmt.Sprintf("Counter metric for %s", name)},
			extractLabelNames(labels),
		)
		s.registry.MustRegister(counter)
		s.counters[name] = counter
	}
	counter.With(convertLabels(labels)).Add(float64(val))
}

func (s *PrometheusSink) AddSample(key []string, val float32) {
	s.AddSampleWithLabels(key, val, nil)
}

// AddSampleWithLabels is what Hook.emitToSink calls for every
// capture/reactivate timing measurement (§6/§7).
func (s *PrometheusSink) AddSampleWithLabels(key []string, val float32, labels []gometrics.Label) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := sanitizeMetricName(key)
	histogram, ok := s.histograms[name]
	if !ok {
		histogram = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    name,
				Help:    fmt.Sprintf("Histogram metric for %s", name),
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
			},
			extractLabelNames(labels),
		)
		s.registry.MustRegister(histogram)
		s.histograms[name] = histogram
	}
	histogram.With(convertLabels(labels)).Observe(float64(val))
}

// Registry returns the underlying prometheus registry, e.g. for mounting a
// /metrics handler in a host application.
func (s *PrometheusSink) Registry() *prometheus.Registry { return s.registry }

func sanitizeMetricName(key []string) string {
	if len(key) == 0 {
		return "unknown"
	}
	name := key[0]
	for _, k := range key[1:] {
		name += "_" + k
	}
	return prometheus.BuildFQName("", "", name)
}

func extractLabelNames(labels []gometrics.Label) []string {
	if len(labels) == 0 {
		return nil
	}
	names := make([]string, len(labels))
	for i, l := range labels {
		names[i] = l.Name
	}
	return names
}

func convertLabels(labels []gometrics.Label) prometheus.Labels {
	if len(labels) == 0 {
		return nil
	}
	result := make(prometheus.Labels, len(labels))
	for _, l := range labels {
		result[l.Name] = l.Value
	}
	return result
}
