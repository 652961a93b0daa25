package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/okian/synaptic/internal/domain/ability"
	"github.com/okian/synaptic/internal/domain/model"
	"github.com/okian/synaptic/pkg/logger"
)

// IdempotencyKeyHeader names the header that deduplicates activations.
const IdempotencyKeyHeader = "Idempotency-Key"

// AbilitiesHandler handles ability listing and activation.
type AbilitiesHandler struct {
	deps           Dependencies
	commandTimeout time.Duration
	logger         logger.Logger
}

// NewAbilitiesHandler creates a new abilities handler.
func NewAbilitiesHandler(deps Dependencies, commandTimeout time.Duration, l logger.Logger) *AbilitiesHandler {
	return &AbilitiesHandler{deps: deps, commandTimeout: commandTimeout, logger: l}
}

// HandleList handles GET /abilities requests.
func (h *AbilitiesHandler) HandleList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Abilities())
}

type activationResponse struct {
	Status    string `json:"status"`
	Ability   string `json:"ability"`
	Affected  int    `json:"affected"`
	Kills     int    `json:"kills"`
	Duplicate bool   `json:"duplicate"`
}

// HandleActivate handles POST /abilities/{id}/activate requests. A request
// carrying an Idempotency-Key already answered is replayed from the first
// answer instead of activating again.
func (h *AbilitiesHandler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	const op = "api.activate"
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	ctx := r.Context()
	key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))

	if key != "" && h.deps.SeenAndRecord(ctx, key) {
		if res, ok := h.deps.Lookup(ctx, key); ok {
			writeActivation(w, res, true)
			return
		}
		writeError(w, http.StatusConflict, "in_progress", NewKind(op, ErrInProgress))
		return
	}

	cmd := model.NewCommand(commandID(key), model.CommandActivate, id)
	cmd.Key = key
	res, err := submit(ctx, h.deps, cmd, h.commandTimeout)
	if err != nil {
		// A rejected command never reached the loop, so the key is free
		// again. A timed out one is still queued and the frame that runs
		// it completes the key.
		if key != "" && errors.Is(err, ErrBackpressure) {
			h.deps.Unrecord(ctx, key)
		}
		h.logger.Warn(ctx, "activation not answered", logger.String("ability", id), logger.Error(err))
		writeSubmitError(w, err)
		return
	}
	if key != "" {
		h.deps.Complete(ctx, key, res)
	}
	writeActivation(w, res, false)
}

func writeActivation(w http.ResponseWriter, res model.CommandResult, duplicate bool) {
	switch {
	case res.Err == nil:
		writeJSON(w, http.StatusOK, activationResponse{
			Status:    "activated",
			Ability:   res.AbilityID,
			Affected:  res.Affected,
			Kills:     res.Kills,
			Duplicate: duplicate,
		})
	case errors.Is(res.Err, ability.ErrNotReady):
		writeError(w, http.StatusConflict, "not_ready", res.Err)
	case errors.Is(res.Err, ability.ErrUnknownAbility):
		writeError(w, http.StatusNotFound, "unknown_ability", res.Err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", res.Err)
	}
}
