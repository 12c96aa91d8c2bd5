package metrics

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ErrNoPath is returned by WriteTextfile when no destination is given.
var ErrNoPath = errors.New("metrics textfile path is empty")

// Drop reasons used as the "reason" label.
const (
	ReasonMissingScore       = "missing_score"
	ReasonMissingPredecessor = "missing_predecessor"
	ReasonBadTime            = "bad_time"
)

// Manager owns the metrics of one process.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         *prometheus.Registry

	recordsRead    *prometheus.CounterVec
	recordsDropped *prometheus.CounterVec
	groups         *prometheus.GaugeVec
	identifiers    *prometheus.GaugeVec
	outputs        *prometheus.CounterVec
	runDuration    *prometheus.HistogramVec
}

var (
	mu            sync.Mutex
	globalManager = NewManager()
)

// NewManager creates a manager on its own registry unless WithRegistry is given.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "setlist",
		subsystem:        "run",
		histogramBuckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		enabled:          true,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.recordsRead = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "records_read_total",
		Help:      "Records read from the input source",
	}, []string{"command"})

	m.recordsDropped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "records_dropped_total",
		Help:      "Records excluded from aggregation, by reason",
	}, []string{"command", "reason"})

	m.groups = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "groups",
		Help:      "Identifier groups produced by the last grouping pass",
	}, []string{"command"})

	m.identifiers = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "identifiers",
		Help:      "Distinct identifiers fed to the last grouping pass",
	}, []string{"command"})

	m.outputs = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "outputs_written_total",
		Help:      "Outputs committed to the sink, by kind",
	}, []string{"command", "kind"})

	m.runDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "duration_seconds",
		Help:      "Wall time of a command run in seconds",
		Buckets:   m.histogramBuckets,
	}, []string{"command"})
}

// Registry returns the registry the manager's metrics live on.
func (m *Manager) Registry() *prometheus.Registry { return m.registry }

func (m *Manager) RecordRecordsRead(command string, n int) {
	if !m.enabled || n <= 0 {
		return
	}
	m.recordsRead.WithLabelValues(command).Add(float64(n))
}

func (m *Manager) RecordDropped(command, reason string, n int) {
	if !m.enabled || n <= 0 {
		return
	}
	m.recordsDropped.WithLabelValues(command, reason).Add(float64(n))
}

func (m *Manager) SetGrouping(command string, identifiers, groups int) {
	if !m.enabled {
		return
	}
	m.identifiers.WithLabelValues(command).Set(float64(identifiers))
	m.groups.WithLabelValues(command).Set(float64(groups))
}

func (m *Manager) RecordOutput(command, kind string) {
	if !m.enabled {
		return
	}
	m.outputs.WithLabelValues(command, kind).Inc()
}

func (m *Manager) ObserveRunDuration(command string, d time.Duration) {
	if !m.enabled {
		return
	}
	m.runDuration.WithLabelValues(command).Observe(d.Seconds())
}

// WriteTextfile writes every gathered metric to path in the text exposition
// format read by the node exporter textfile collector.
func (m *Manager) WriteTextfile(path string) error {
	if path == "" {
		return ErrNoPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// Global returns the process-wide manager.
func Global() *Manager {
	mu.Lock()
	defer mu.Unlock()
	return globalManager
}

// SetGlobal replaces the process-wide manager. Intended for tests.
func SetGlobal(m *Manager) {
	mu.Lock()
	defer mu.Unlock()
	globalManager = m
}

// Convenience functions for the global manager.

func RecordRecordsRead(command string, n int) { Global().RecordRecordsRead(command, n) }

func RecordDropped(command, reason string, n int) { Global().RecordDropped(command, reason, n) }

func SetGrouping(command string, identifiers, groups int) {
	Global().SetGrouping(command, identifiers, groups)
}

func RecordOutput(command, kind string) { Global().RecordOutput(command, kind) }

func ObserveRunDuration(command string, d time.Duration) {
	Global().ObserveRunDuration(command, d)
}

func WriteTextfile(path string) error { return Global().WriteTextfile(path) }
