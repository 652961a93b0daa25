package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/okian/synaptic/pkg/logger"
	"github.com/okian/synaptic/pkg/metrics"
)

// instrument records request counts, latency and error classes for
// endpoint. Server errors are also logged.
func (s *Server) instrument(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)

		elapsed := time.Since(start)
		code := strconv.Itoa(rec.status)
		metrics.RecordHTTPRequest(endpoint, r.Method, code)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, code, float64(elapsed.Microseconds())/1000)

		class, failed := errorClass(rec.status)
		if !failed {
			return
		}
		metrics.RecordErrorByEndpoint(endpoint, r.Method, class)
		metrics.RecordErrorByComponent("http", class)
		if rec.status >= http.StatusInternalServerError {
			s.logger.Error(r.Context(), "request failed",
				logger.String("endpoint", endpoint),
				logger.String("method", r.Method),
				logger.Int("status", rec.status),
				logger.Duration("elapsed", elapsed),
			)
		}
	}
}

// errorClass maps a status code onto the error label used by the metrics.
func errorClass(status int) (string, bool) {
	switch {
	case status < http.StatusBadRequest:
		return "", false
	case status == http.StatusGatewayTimeout:
		return "timeout", true
	case status == http.StatusServiceUnavailable:
		return "unavailable", true
	case status >= http.StatusInternalServerError:
		return "server_error", true
	case status == http.StatusTooManyRequests:
		return "backpressure", true
	case status == http.StatusNotFound:
		return "not_found", true
	case status == http.StatusConflict:
		return "conflict", true
	default:
		return "client_error", true
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (rw *statusRecorder) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.status = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}
