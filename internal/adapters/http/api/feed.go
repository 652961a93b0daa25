package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/okian/synaptic/internal/domain/biosignal"
	"github.com/okian/synaptic/internal/domain/model"
)

// FeedHandler controls the biosignal feed.
type FeedHandler struct {
	sim            Simulation
	commandTimeout time.Duration
}

// NewFeedHandler creates a new feed handler.
func NewFeedHandler(sim Simulation, commandTimeout time.Duration) *FeedHandler {
	return &FeedHandler{sim: sim, commandTimeout: commandTimeout}
}

type feedResponse struct {
	State string `json:"state"`
}

// HandleStatus handles GET /feed requests.
func (h *FeedHandler) HandleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, feedResponse{State: h.sim.FeedStatus()})
}

// HandleConnect handles POST /feed/connect requests. The connection
// completes asynchronously, so success is 202 Accepted.
func (h *FeedHandler) HandleConnect(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, model.CommandConnect, http.StatusAccepted)
}

// HandleSimulate handles POST /feed/simulate requests.
func (h *FeedHandler) HandleSimulate(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, model.CommandSimulate, http.StatusOK)
}

// HandleDisconnect handles POST /feed/disconnect requests.
func (h *FeedHandler) HandleDisconnect(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, model.CommandDisconnect, http.StatusOK)
}

func (h *FeedHandler) handle(w http.ResponseWriter, r *http.Request, kind model.CommandKind, okStatus int) {
	cmd := model.NewCommand(commandID(""), kind, "")
	res, err := submit(r.Context(), h.sim, cmd, h.commandTimeout)
	if err != nil {
		writeSubmitError(w, err)
		return
	}
	switch {
	case res.Err == nil:
		writeJSON(w, okStatus, feedResponse{State: res.FeedState})
	case errors.Is(res.Err, biosignal.ErrAlreadyConnected):
		writeError(w, http.StatusConflict, "already_connected", res.Err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", res.Err)
	}
}
