// Package repository persists session reports.
package repository

import (
	"context"

	"github.com/okian/synaptic/internal/domain/model"
)

// SessionInfo summarizes the reports stored for one session.
type SessionInfo struct {
	SessionID string `json:"session_id"`
	Reports   int    `json:"reports"`
	LastScore int    `json:"last_score"`
}

// Store provides read/write access to persisted session reports.
type Store interface {
	// SaveReport appends one report.
	SaveReport(ctx context.Context, rec model.Record) error

	// ListReports returns the reports of a session oldest first. A limit of
	// zero returns all of them; otherwise the newest limit reports are kept.
	// Returns ErrNotFound if the session has no reports.
	ListReports(ctx context.Context, sessionID string, limit int) ([]model.Record, error)

	// Sessions lists every session with stored reports, newest first.
	Sessions(ctx context.Context) ([]SessionInfo, error)

	// Count returns the number of stored reports.
	Count(ctx context.Context) (int, error)

	Close() error
}
