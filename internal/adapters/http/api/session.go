package api

import (
	"net/http"
	"time"

	"github.com/okian/synaptic/internal/adapters/export"
	"github.com/okian/synaptic/internal/domain/model"
	"github.com/okian/synaptic/pkg/logger"
)

// SessionHandler serves the running session's published state.
type SessionHandler struct {
	sim            Simulation
	defaultFormat  export.Format
	commandTimeout time.Duration
	logger         logger.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(sim Simulation, defaultFormat export.Format, commandTimeout time.Duration, l logger.Logger) *SessionHandler {
	return &SessionHandler{sim: sim, defaultFormat: defaultFormat, commandTimeout: commandTimeout, logger: l}
}

// HandleSnapshot handles GET /snapshot requests.
func (h *SessionHandler) HandleSnapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.sim.Snapshot())
}

// HandleExport handles GET /export?format=json|yaml|csv requests.
func (h *SessionHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	const op = "api.export"
	format, err := resolveFormat(r, h.defaultFormat)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	rep := h.sim.Report()
	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(http.StatusOK)
	// The status line is already out, so an encoder failure can only be logged.
	if err := export.Write(w, format, rep); err != nil {
		h.logger.Error(r.Context(), "export write failed", logger.String("format", string(format)), logger.Error(err))
	}
}

// HandleListAdversaries handles GET /adversaries requests.
func (h *SessionHandler) HandleListAdversaries(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.sim.Adversaries())
}

type clearResponse struct {
	Cleared int `json:"cleared"`
}

// HandleClearAdversaries handles DELETE /adversaries requests.
func (h *SessionHandler) HandleClearAdversaries(w http.ResponseWriter, r *http.Request) {
	cmd := model.NewCommand(commandID(""), model.CommandClear, "")
	res, err := submit(r.Context(), h.sim, cmd, h.commandTimeout)
	if err != nil {
		writeSubmitError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, clearResponse{Cleared: res.Cleared})
}

// resolveFormat reads the format query parameter, falling back to def.
func resolveFormat(r *http.Request, def export.Format) (export.Format, error) {
	name := r.URL.Query().Get("format")
	if name == "" {
		return def, nil
	}
	return export.ParseFormat(name)
}
