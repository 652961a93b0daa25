package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/okian/synaptic/internal/domain/model"
)

// submit enqueues cmd and waits up to timeout for the frame loop's reply.
func submit(ctx context.Context, sim Simulation, cmd model.Command, timeout time.Duration) (model.CommandResult, error) {
	const op = "api.submit"
	if !sim.Enqueue(ctx, cmd) {
		return model.CommandResult{}, NewKind(op, ErrBackpressure)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	select {
	case res := <-cmd.Reply:
		return res, nil
	case <-ctx.Done():
		return model.CommandResult{}, WrapKind(op, ErrTimeout, ctx.Err())
	}
}

// commandID returns key, or a fresh id when key is empty.
func commandID(key string) string {
	if key != "" {
		return key
	}
	return uuid.NewString()
}

// writeSubmitError reports a command that never got a reply.
func writeSubmitError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", err)
	case errors.Is(err, ErrTimeout):
		writeError(w, http.StatusGatewayTimeout, "timeout", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
