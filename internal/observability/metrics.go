package observability

import (
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// MetricsRegistry holds all registered metrics.
type MetricsRegistry struct {
	mu       sync.RWMutex
	counters map[string]*Counter
	gauges   map[string]*Gauge
	histos   map[string]*Histogram
}

// Counter is a monotonically increasing metric.
type Counter struct {
	name   string
	help   string
	labels map[string]string
	value  float64
	mu     sync.Mutex
}

// Gauge is a metric that can go up or down.
type Gauge struct {
	name   string
	help   string
	labels map[string]string
	value  float64
	mu     sync.Mutex
}

// Histogram tracks distribution of values.
type Histogram struct {
	name    string
	help    string
	labels  map[string]string
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
	mu      sync.Mutex
}

// NewMetricsRegistry creates a new metrics registry.
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		counters: make(map[string]*Counter),
		gauges:   make(map[string]*Gauge),
		histos:   make(map[string]*Histogram),
	}
}

// NewCounter creates and registers a counter.
func (r *MetricsRegistry) NewCounter(name, help string, labels map[string]string) *Counter {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := &Counter{name: name, help: help, labels: labels}
	r.counters[name] = c
	return c
}

// NewGauge creates and registers a gauge.
func (r *MetricsRegistry) NewGauge(name, help string, labels map[string]string) *Gauge {
	r.mu.Lock()
	defer r.mu.Unlock()

	g := &Gauge{name: name, help: help, labels: labels}
	r.gauges[name] = g
	return g
}

// NewHistogram creates and registers a histogram.
func (r *MetricsRegistry) NewHistogram(name, help string, labels map[string]string, buckets []float64) *Histogram {
	r.mu.Lock()
	defer r.mu.Unlock()

	if buckets == nil {
		buckets = DefaultBuckets()
	}
	h := &Histogram{
		name:    name,
		help:    help,
		labels:  labels,
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
	r.histos[name] = h
	return h
}

// DefaultBuckets are latency buckets in seconds, skewed low: a selection
// normally takes microseconds.
func DefaultBuckets() []float64 {
	return []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1}
}

// Inc increments a counter by 1.
func (c *Counter) Inc() { c.Add(1) }

// Add adds a value to the counter.
func (c *Counter) Add(v float64) {
	c.mu.Lock()
	c.value += v
	c.mu.Unlock()
}

// Value returns the counter value.
func (c *Counter) Value() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Set sets the gauge value.
func (g *Gauge) Set(v float64) {
	g.mu.Lock()
	g.value = v
	g.mu.Unlock()
}

// Inc increments the gauge by 1.
func (g *Gauge) Inc() { g.Add(1) }

// Dec decrements the gauge by 1.
func (g *Gauge) Dec() { g.Add(-1) }

// Add adds a value to the gauge.
func (g *Gauge) Add(v float64) {
	g.mu.Lock()
	g.value += v
	g.mu.Unlock()
}

// Value returns the gauge value.
func (g *Gauge) Value() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.value
}

// Observe records a value in the histogram.
func (h *Histogram) Observe(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.sum += v
	h.count++
	for i, bound := range h.buckets {
		if v <= bound {
			h.counts[i]++
		}
	}
}

// ObserveDuration records the time elapsed since start.
func (h *Histogram) ObserveDuration(start time.Time) {
	h.Observe(time.Since(start).Seconds())
}

// Count returns the number of observations.
func (h *Histogram) Count() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

// Handler returns an HTTP handler serving the Prometheus text format.
func (r *MetricsRegistry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		r.WritePrometheus(w)
	})
}

// WritePrometheus writes all metrics in Prometheus text format, sorted by
// name so output is stable.
func (r *MetricsRegistry) WritePrometheus(w io.Writer) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range sortedKeys(r.counters) {
		c := r.counters[name]
		c.mu.Lock()
		writeMetric(w, c.name, "counter", c.help, c.labels, c.value)
		c.mu.Unlock()
	}
	for _, name := range sortedKeys(r.gauges) {
		g := r.gauges[name]
		g.mu.Lock()
		writeMetric(w, g.name, "gauge", g.help, g.labels, g.value)
		g.mu.Unlock()
	}
	for _, name := range sortedKeys(r.histos) {
		h := r.histos[name]
		h.mu.Lock()
		writeHistogram(w, h)
		h.mu.Unlock()
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func writeMetric(w io.Writer, name, metricType, help string, labels map[string]string, value float64) {
	io.WriteString(w, "# HELP "+name+" "+help+"\n")
	io.WriteString(w, "# TYPE "+name+" "+metricType+"\n")
	io.WriteString(w, name+formatLabels(labels)+" "+formatFloat(value)+"\n")
}

func writeHistogram(w io.Writer, h *Histogram) {
	io.WriteString(w, "# HELP "+h.name+" "+h.help+"\n")
	io.WriteString(w, "# TYPE "+h.name+" histogram\n")

	// counts are already cumulative: Observe bumps every bucket >= v.
	for i, bound := range h.buckets {
		labels := withLabel(h.labels, "le", formatFloat(bound))
		io.WriteString(w, h.name+"_bucket"+formatLabels(labels)+" "+strconv.FormatUint(h.counts[i], 10)+"\n")
	}
	labels := withLabel(h.labels, "le", "+Inf")
	io.WriteString(w, h.name+"_bucket"+formatLabels(labels)+" "+strconv.FormatUint(h.count, 10)+"\n")
	io.WriteString(w, h.name+"_sum"+formatLabels(h.labels)+" "+formatFloat(h.sum)+"\n")
	io.WriteString(w, h.name+"_count"+formatLabels(h.labels)+" "+strconv.FormatUint(h.count, 10)+"\n")
}

func formatLabels(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	parts := make([]string, 0, len(labels))
	for _, k := range sortedKeys(labels) {
		parts = append(parts, k+"="+strconv.Quote(labels[k]))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func withLabel(labels map[string]string, k, v string) map[string]string {
	out := make(map[string]string, len(labels)+1)
	for lk, lv := range labels {
		out[lk] = lv
	}
	out[k] = v
	return out
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ProviderMetrics are the metrics the type-definition provider exports.
type ProviderMetrics struct {
	Registry *MetricsRegistry

	RequestsTotal     *Counter
	SuppressedTotal   *Counter
	DeclarationsTotal *Counter
	BytesTotal        *Counter
	SelectDuration    *Histogram

	ConfigChangesTotal *Counter
	MigrationsTotal    *Counter
	ErrorsTotal        *Counter

	HostSessions *Gauge
}

// NewProviderMetrics creates and registers the provider metrics.
func NewProviderMetrics() *ProviderMetrics {
	r := NewMetricsRegistry()
	return &ProviderMetrics{
		Registry: r,

		RequestsTotal:     r.NewCounter("fraytypes_requests_total", "Type definition requests received", nil),
		SuppressedTotal:   r.NewCounter("fraytypes_requests_suppressed_total", "Requests rejected by a filter gate", nil),
		DeclarationsTotal: r.NewCounter("fraytypes_declarations_total", "Declaration files sent to the host", nil),
		BytesTotal:        r.NewCounter("fraytypes_bytes_total", "Declaration bytes emitted", nil),
		SelectDuration:    r.NewHistogram("fraytypes_select_duration_seconds", "Selection duration", nil, nil),

		ConfigChangesTotal: r.NewCounter("fraytypes_config_changes_total", "Settings changes sent to the host", nil),
		MigrationsTotal:    r.NewCounter("fraytypes_migrations_total", "Settings migrations performed", nil),
		ErrorsTotal:        r.NewCounter("fraytypes_errors_total", "Failed host messages", nil),

		HostSessions: r.NewGauge("fraytypes_host_sessions", "Connected host websocket sessions", nil),
	}
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *ProviderMetrics) Handler() http.Handler {
	return m.Registry.Handler()
}

// RecordSelect records one selection.
func (m *ProviderMetrics) RecordSelect(duration time.Duration, declarations, bytes int) {
	m.RequestsTotal.Inc()
	m.SelectDuration.Observe(duration.Seconds())
	if declarations == 0 {
		m.SuppressedTotal.Inc()
		return
	}
	m.DeclarationsTotal.Add(float64(declarations))
	m.BytesTotal.Add(float64(bytes))
}
