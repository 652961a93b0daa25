// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/okian/synaptic/internal/adapters/export"
	"github.com/okian/synaptic/internal/adapters/repository"
	"github.com/okian/synaptic/internal/domain/ability"
	"github.com/okian/synaptic/internal/domain/adversary"
	"github.com/okian/synaptic/internal/domain/cognition"
	"github.com/okian/synaptic/internal/domain/dedupe"
	"github.com/okian/synaptic/internal/domain/model"
	"github.com/okian/synaptic/pkg/logger"
)

// Simulation is the read side of the running session plus the command
// intake of its frame loop. Reads return copies of the last published
// frame; handlers never touch the loop directly.
type Simulation interface {
	// Enqueue submits a command for the next frame. Returns false on
	// backpressure.
	Enqueue(ctx context.Context, cmd model.Command) bool

	Snapshot() cognition.Snapshot
	Report() cognition.Report
	Adversaries() []adversary.Adversary
	Abilities() []ability.Status
	FeedStatus() string
}

// ReportStore reads persisted session reports.
type ReportStore interface {
	ListReports(ctx context.Context, sessionID string, limit int) ([]model.Record, error)
	Sessions(ctx context.Context) ([]repository.SessionInfo, error)
}

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Simulation
	dedupe.Deduper[model.CommandResult]
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	sessionHandler   *SessionHandler
	abilitiesHandler *AbilitiesHandler
	feedHandler      *FeedHandler
	reportsHandler   *ReportsHandler

	commandTimeout time.Duration
	exportFormat   export.Format
	maxReportLimit int
	logger         logger.Logger
}

// NewServer creates a new API server with all handlers. reports may be nil
// when persistence is disabled.
func NewServer(deps Dependencies, reports ReportStore, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		commandTimeout: DefaultCommandTimeout,
		exportFormat:   export.JSON,
		maxReportLimit: DefaultMaxReportLimit,
		logger:         logger.NamedOrNop("api"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.healthHandler = NewHealthHandler(deps)
	s.statsHandler = NewStatsHandler(statsProvider, s.commandTimeout, s.exportFormat)
	s.sessionHandler = NewSessionHandler(deps, s.exportFormat, s.commandTimeout, s.logger)
	s.abilitiesHandler = NewAbilitiesHandler(deps, s.commandTimeout, s.logger)
	s.feedHandler = NewFeedHandler(deps, s.commandTimeout)
	s.reportsHandler = NewReportsHandler(reports, s.exportFormat, s.maxReportLimit, s.logger)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.instrument("healthz", s.healthHandler.HandleHealth))
	mux.HandleFunc("GET /stats", s.instrument("stats", s.statsHandler.HandleStats))

	mux.HandleFunc("GET /snapshot", s.instrument("snapshot", s.sessionHandler.HandleSnapshot))
	mux.HandleFunc("GET /export", s.instrument("export", s.sessionHandler.HandleExport))
	mux.HandleFunc("GET /adversaries", s.instrument("adversaries", s.sessionHandler.HandleListAdversaries))
	mux.HandleFunc("DELETE /adversaries", s.instrument("adversaries", s.sessionHandler.HandleClearAdversaries))

	mux.HandleFunc("GET /abilities", s.instrument("abilities", s.abilitiesHandler.HandleList))
	mux.HandleFunc("POST /abilities/{id}/activate", s.instrument("activate", s.abilitiesHandler.HandleActivate))

	mux.HandleFunc("GET /feed", s.instrument("feed", s.feedHandler.HandleStatus))
	mux.HandleFunc("POST /feed/connect", s.instrument("feed_connect", s.feedHandler.HandleConnect))
	mux.HandleFunc("POST /feed/simulate", s.instrument("feed_simulate", s.feedHandler.HandleSimulate))
	mux.HandleFunc("POST /feed/disconnect", s.instrument("feed_disconnect", s.feedHandler.HandleDisconnect))

	mux.HandleFunc("GET /sessions", s.instrument("sessions", s.reportsHandler.HandleSessions))
	mux.HandleFunc("GET /sessions/{id}/reports", s.instrument("reports", s.reportsHandler.HandleReports))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
