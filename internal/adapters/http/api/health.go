package api

import (
	"net/http"
	"strconv"

	"github.com/okian/synaptic/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Health response headers.
const (
	FeedStateHeader = "X-Feed-State"
	ScoreHeader     = "X-Session-Score"
)

// HealthHandler serves the Prometheus registry and reports the simulation
// state in response headers.
type HealthHandler struct {
	sim     Simulation
	metrics http.Handler
}

// NewHealthHandler creates a new health handler. sim may be nil.
func NewHealthHandler(sim Simulation) *HealthHandler {
	return &HealthHandler{
		sim:     sim,
		metrics: promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
	}
}

// HandleHealth handles GET /healthz requests.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if h.sim != nil {
		w.Header().Set(FeedStateHeader, h.sim.FeedStatus())
		w.Header().Set(ScoreHeader, strconv.Itoa(h.sim.Snapshot().Score))
	}
	h.metrics.ServeHTTP(w, r)
}
