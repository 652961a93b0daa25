package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/synaptic/internal/adapters/export"
	"github.com/okian/synaptic/internal/adapters/repository"
	"github.com/okian/synaptic/internal/domain/cognition"
	"github.com/okian/synaptic/pkg/logger"
)

// ReportsHandler serves persisted session reports.
type ReportsHandler struct {
	store         ReportStore
	defaultFormat export.Format
	maxLimit      int
	logger        logger.Logger
}

// NewReportsHandler creates a new reports handler. A nil store answers 503.
func NewReportsHandler(store ReportStore, defaultFormat export.Format, maxLimit int, l logger.Logger) *ReportsHandler {
	return &ReportsHandler{store: store, defaultFormat: defaultFormat, maxLimit: maxLimit, logger: l}
}

// HandleSessions handles GET /sessions requests.
func (h *ReportsHandler) HandleSessions(w http.ResponseWriter, r *http.Request) {
	const op = "api.sessions"
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", NewKind(op, ErrUnavailable))
		return
	}
	sessions, err := h.store.Sessions(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

// HandleReports handles GET /sessions/{id}/reports?limit=N&format=F
// requests. Without a limit the newest maxLimit reports are returned.
func (h *ReportsHandler) HandleReports(w http.ResponseWriter, r *http.Request) {
	const op = "api.reports"
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", NewKind(op, ErrUnavailable))
		return
	}
	format, err := resolveFormat(r, h.defaultFormat)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	limit, err := h.parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	records, err := h.store.ListReports(r.Context(), r.PathValue("id"), limit)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
		return
	case errors.Is(err, repository.ErrInvalidLimit):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}

	reports := make([]cognition.Report, len(records))
	for i, rec := range records {
		reports[i] = rec.Report
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(http.StatusOK)
	if err := export.WriteAll(w, format, reports); err != nil {
		h.logger.Error(r.Context(), "report export write failed", logger.String("format", string(format)), logger.Error(err))
	}
}

func (h *ReportsHandler) parseLimit(raw string) (int, error) {
	if raw == "" {
		return h.maxLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("limit must be a positive integer, got %q", raw)
	}
	if n > h.maxLimit {
		n = h.maxLimit
	}
	return n, nil
}
