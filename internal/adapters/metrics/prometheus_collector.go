package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Every series is exported as warehouse_dock_*
const (
	namespace = "warehouse"
	subsystem = "dock"
)

// Registry holds the dock collectors for the current run; nil while metrics are off
var Registry *prometheus.Registry

// InitRegistry replaces Registry with an empty one. Call it once per run, before Register.
func InitRegistry() {
	Registry = prometheus.NewRegistry()
}

// GetRegistry returns Registry, or nil if InitRegistry was never called
func GetRegistry() *prometheus.Registry {
	return Registry
}

// IsEnabled reports whether InitRegistry has been called
func IsEnabled() bool {
	return Registry != nil
}

// Handler exposes Registry for scraping, or 404s while metrics are off
func Handler() http.Handler {
	if !IsEnabled() {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
