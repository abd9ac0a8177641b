// Package metrics exposes Prometheus counters for import runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts import activity. A nil *Metrics disables recording.
type Metrics struct {
	runs           *prometheus.CounterVec
	groupsCreated  prometheus.Counter
	personsCreated prometheus.Counter
	edgesCreated   prometheus.Counter
	recordsSkipped prometheus.Counter
}

// New registers the import metrics on the default registry. Call once
// per process.
func New() *Metrics {
	return &Metrics{
		runs: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rollcall_import_runs_total",
			Help: "Import runs by terminal status.",
		}, []string{"status"}),
		groupsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rollcall_import_groups_created_total",
			Help: "Groups created by import runs.",
		}),
		personsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rollcall_import_persons_created_total",
			Help: "Persons created by import runs.",
		}),
		edgesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rollcall_import_memberships_created_total",
			Help: "Membership edges created by import runs.",
		}),
		recordsSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rollcall_import_records_skipped_total",
			Help: "Records skipped due to per-record errors or unresolved references.",
		}),
	}
}

// RunFinished records a terminal status: completed, cancelled or failed.
func (m *Metrics) RunFinished(status string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(status).Inc()
}

func (m *Metrics) GroupCreated() {
	if m == nil {
		return
	}
	m.groupsCreated.Inc()
}

func (m *Metrics) PersonCreated() {
	if m == nil {
		return
	}
	m.personsCreated.Inc()
}

func (m *Metrics) MembershipCreated() {
	if m == nil {
		return
	}
	m.edgesCreated.Inc()
}

func (m *Metrics) RecordSkipped() {
	if m == nil {
		return
	}
	m.recordsSkipped.Inc()
}
