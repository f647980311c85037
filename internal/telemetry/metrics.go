// Package telemetry exposes Prometheus metrics for the add-on registry
// server.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// CatalogLoads counts catalog loads from the database, by outcome.
	CatalogLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mhub_addon_catalog_loads_total",
		Help: "Number of add-on catalog loads from the database.",
	}, []string{"outcome"})

	// UpdateChecks counts per-add-on update checks.
	UpdateChecks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mhub_addon_update_checks_total",
		Help: "Number of installed add-ons checked for updates.",
	})

	// UpdatesFound counts update checks that produced an installable update.
	UpdatesFound = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mhub_addon_updates_found_total",
		Help: "Number of update checks that found an installable update.",
	})
)

// Outcome label values for CatalogLoads.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
