// Package metrics exposes prometheus instrumentation for the surety
// node.
package metrics

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flightsurety/suretynode/log"
)

// RegisterOn mounts the prometheus scrape handler on the given router.
func RegisterOn(router chi.Router, path string) {
	router.Method("GET", path, promhttp.Handler())
	log.Infof("prometheus metrics ready at: %s", path)
}

// Register the provided prometheus collector, ignoring any error
// returned (simply logs a Warn).
func Register(c prometheus.Collector) {
	if err := prometheus.Register(c); err != nil {
		log.Warnf("cannot register metrics: (%s) (%+v)", err, c)
	}
}
