package api

import (
	"maps"
	"net/http"
	"time"

	"github.com/okian/synaptic/internal/adapters/export"
)

// StatsProvider defines the interface for getting service statistics.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StatsHandler serves the provider's statistics under "service" next to
// the API's own settings under "api".
type StatsHandler struct {
	statsProvider  StatsProvider
	commandTimeout time.Duration
	exportFormat   export.Format
	startedAt      time.Time
}

// NewStatsHandler creates a new stats handler. statsProvider may be nil.
func NewStatsHandler(statsProvider StatsProvider, commandTimeout time.Duration, format export.Format) *StatsHandler {
	return &StatsHandler{
		statsProvider:  statsProvider,
		commandTimeout: commandTimeout,
		exportFormat:   format,
		startedAt:      time.Now(),
	}
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, _ *http.Request) {
	service := map[string]interface{}{}
	if h.statsProvider != nil {
		maps.Copy(service, h.statsProvider.GetStats())
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": service,
		"api": map[string]interface{}{
			"command_timeout": h.commandTimeout.String(),
			"export_format":   string(h.exportFormat),
			"uptime_seconds":  time.Since(h.startedAt).Seconds(),
		},
	})
}
