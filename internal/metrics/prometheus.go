// Package metrics exposes Prometheus instrumentation for the ipconfig engine.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once     sync.Once
	registry *Registry
)

// Result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
	ResultSlave = "slave"
)

// Registry holds all ipconfig metrics.
type Registry struct {
	// Dedup index
	IndexEntries    *prometheus.GaugeVec
	IndexPartitions *prometheus.GaugeVec

	// Platform round trips
	Captures     *prometheus.CounterVec
	Commits      *prometheus.CounterVec
	SyncErrors   *prometheus.CounterVec
	DeviceRoutes *prometheus.CounterVec

	// Aggregate changes
	ReplaceOutcomes *prometheus.CounterVec
	Notifications   *prometheus.CounterVec

	// Provenance adapters
	AutoconfImports *prometheus.CounterVec
}

// Get returns the global metrics registry, creating it if necessary.
func Get() *Registry {
	once.Do(func() {
		registry = newRegistry()
	})
	return registry
}

func newRegistry() *Registry {
	r := &Registry{}

	r.IndexEntries = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "nmipc_index_entries",
		Help: "Objects stored in the shared dedup index",
	}, []string{"family", "kind"})

	r.IndexPartitions = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "nmipc_index_partitions",
		Help: "Live aggregates bound to the shared dedup index",
	}, []string{"family"})

	r.Captures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nmipc_captures_total",
		Help: "Aggregates captured from the platform",
	}, []string{"family", "result"})

	r.Commits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nmipc_commits_total",
		Help: "Aggregates committed to the platform",
	}, []string{"family", "result"})

	r.SyncErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nmipc_sync_errors_total",
		Help: "Failed platform synchronization steps",
	}, []string{"family", "stage"})

	r.DeviceRoutes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nmipc_device_routes_total",
		Help: "Implicit device routes synthesized on commit",
	}, []string{"family"})

	r.ReplaceOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nmipc_replace_total",
		Help: "Replace operations by outcome",
	}, []string{"family", "outcome"})

	r.Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nmipc_change_notifications_total",
		Help: "Change notifications emitted per field group",
	}, []string{"group"})

	r.AutoconfImports = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nmipc_autoconf_imports_total",
		Help: "Aggregates built from autoconfiguration sources",
	}, []string{"source", "result"})

	return r
}

// RecordCapture records the outcome of a capture.
func (r *Registry) RecordCapture(family string, slave bool, err error) {
	switch {
	case err != nil:
		r.Captures.WithLabelValues(family, ResultError).Inc()
	case slave:
		r.Captures.WithLabelValues(family, ResultSlave).Inc()
	default:
		r.Captures.WithLabelValues(family, ResultOK).Inc()
	}
}

// RecordCommit records the outcome of a commit.
func (r *Registry) RecordCommit(family string, err error) {
	r.Commits.WithLabelValues(family, result(err)).Inc()
}

// RecordSyncError records a failed synchronization step ("address",
// "route" or "blacklist").
func (r *Registry) RecordSyncError(family, stage string) {
	r.SyncErrors.WithLabelValues(family, stage).Inc()
}

// RecordReplace records whether a replace changed nothing, only minor
// fields, or user-visible fields.
func (r *Registry) RecordReplace(family string, changed, relevant bool) {
	outcome := "unchanged"
	switch {
	case relevant:
		outcome = "relevant"
	case changed:
		outcome = "minor"
	}
	r.ReplaceOutcomes.WithLabelValues(family, outcome).Inc()
}

// RecordAutoconf records an import from an autoconfiguration source.
func (r *Registry) RecordAutoconf(source string, err error) {
	r.AutoconfImports.WithLabelValues(source, result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}
