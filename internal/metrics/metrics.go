// Package metrics holds Prometheus instruments for the workspace SDK.
// All collectors are registered with the global registry, so importing
// this package is enough to expose them on /metrics when the lint
// server is running.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	WorkspaceLoadTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "workspace_load_total",
			Help: "Cumulative number of workspace documents successfully loaded.",
		})

	WorkspaceLoadErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "workspace_load_errors_total",
			Help: "Cumulative number of workspace load failures.",
		})

	ResolveViolationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "workspace_resolve_violations_total",
			Help: "Cumulative number of violations reported by resolution.",
		})
)

func init() {
	prometheus.MustRegister(
		WorkspaceLoadTotal,
		WorkspaceLoadErrorsTotal,
		ResolveViolationsTotal,
	)
}
