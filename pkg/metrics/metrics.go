// Package metrics records what a run converted, dropped and found, and
// writes it in the node-exporter textfile format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/crystal-mush/mushconv/pkg/diag"
	"github.com/crystal-mush/mushconv/pkg/remap"
	"github.com/crystal-mush/mushconv/pkg/validate"
)

// Metrics holds the collectors for one run.
type Metrics struct {
	reg *prometheus.Registry

	objects      *prometheus.CounterVec
	attrs        *prometheus.CounterVec
	locks        *prometheus.CounterVec
	flagsDropped *prometheus.CounterVec
	findings     *prometheus.CounterVec
	logEntries   *prometheus.CounterVec
	duration     *prometheus.GaugeVec
	lastRun      prometheus.Gauge
}

// New creates the collectors on a private registry.
func New() *Metrics {
	pair := []string{"from", "to", "outcome"}
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		objects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mushconv_objects_total",
			Help: "Objects read, written and dropped by conversions.",
		}, pair),
		attrs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mushconv_attributes_total",
			Help: "Attributes carried, renamed, merged, collided and dropped by conversions.",
		}, pair),
		locks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mushconv_locks_total",
			Help: "Locks converted, failed and dropped by conversions.",
		}, pair),
		flagsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mushconv_flags_dropped_total",
			Help: "Object flags and powers with no equivalent in the target.",
		}, []string{"from", "to", "kind"}),
		findings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mushconv_findings_total",
			Help: "Validation findings by category and severity.",
		}, []string{"lineage", "category", "severity"}),
		logEntries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mushconv_log_entries_total",
			Help: "Warnings and errors logged during the run.",
		}, []string{"level"}),
		duration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mushconv_run_duration_seconds",
			Help: "Wall time of the last run of each command.",
		}, []string{"command"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mushconv_last_run_timestamp_seconds",
			Help: "Unix time the last run finished.",
		}),
	}
	m.reg.MustRegister(
		m.objects,
		m.attrs,
		m.locks,
		m.flagsDropped,
		m.findings,
		m.logEntries,
		m.duration,
		m.lastRun,
	)
	return m
}

// Registry exposes the collectors, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// ObserveConversion adds a conversion's counts.
func (m *Metrics) ObserveConversion(from, to string, s remap.Stats) {
	add := func(v *prometheus.CounterVec, outcome string, n int) {
		v.WithLabelValues(from, to, outcome).Add(float64(n))
	}
	add(m.objects, "in", s.ObjectsIn)
	add(m.objects, "out", s.ObjectsOut)
	add(m.objects, "dropped", s.ObjectsDropped)

	add(m.attrs, "carried", s.AttrsCarried)
	add(m.attrs, "renamed", s.AttrsRenamed)
	add(m.attrs, "merged", s.AttrsMerged)
	add(m.attrs, "collided", s.AttrsCollided)
	add(m.attrs, "dropped", s.AttrsDropped)

	add(m.locks, "converted", s.LocksConverted)
	add(m.locks, "failed", s.LocksFailed)
	add(m.locks, "dropped", s.LocksDropped)

	m.flagsDropped.WithLabelValues(from, to, "flag").Add(float64(s.FlagsDropped))
	m.flagsDropped.WithLabelValues(from, to, "power").Add(float64(s.PowersDropped))
}

// ObserveFindings counts validation findings.
func (m *Metrics) ObserveFindings(lineage string, findings []validate.Finding) {
	for _, f := range findings {
		m.findings.WithLabelValues(lineage, f.Category.String(), f.Severity.String()).Inc()
	}
}

// ObserveLog copies the warning and error counts of a tally.
func (m *Metrics) ObserveLog(t *diag.Tally) {
	if t == nil {
		return
	}
	m.logEntries.WithLabelValues("warning").Add(float64(t.Warnings.Load()))
	m.logEntries.WithLabelValues("error").Add(float64(t.Errors.Load()))
}

// Finish records the run time of a command.
func (m *Metrics) Finish(command string, started, now time.Time) {
	m.duration.WithLabelValues(command).Set(now.Sub(started).Seconds())
	m.lastRun.Set(float64(now.Unix()))
}

// WriteFile writes every metric to path for the textfile collector.
func (m *Metrics) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.reg); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}
