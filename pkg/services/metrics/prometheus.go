package metrics

import (
	"net/http"

	"github.com/nspcc-dev/coinops/pkg/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewPrometheusService creates a new service for exposing prometheus metrics
// gathered by g (the default gatherer is used if it's nil).
func NewPrometheusService(cfg config.BasicService, g prometheus.Gatherer, log *zap.Logger) *Service {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	handler := promhttp.HandlerFor(g, promhttp.HandlerOpts{})
	addrs := cfg.GetAddresses()
	srvs := make([]*http.Server, len(addrs))
	for i, addr := range addrs {
		srvs[i] = &http.Server{
			Addr:    addr,
			Handler: handler, // shared between all listeners
		}
	}
	return NewService("Prometheus", srvs, cfg, log)
}
