package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/okian/synaptic/internal/domain/cognition"
	"github.com/okian/synaptic/internal/domain/model"
	"github.com/okian/synaptic/pkg/logger"
	"github.com/okian/synaptic/pkg/metrics"
)

const (
	defaultMetricsUpdateInterval = 5 * time.Second
	defaultBusyTimeout           = 5 * time.Second
)

const schema = `
CREATE TABLE IF NOT EXISTS reports (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id  TEXT NOT NULL,
	recorded_at TEXT NOT NULL,
	score       INTEGER NOT NULL,
	bdnf        REAL NOT NULL,
	payload     TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS reports_session_idx ON reports (session_id, id);
`

// SQLiteStore is a Store backed by a sqlite database file. Use ":memory:"
// for a throwaway database.
type SQLiteStore struct {
	db   *sql.DB
	path string

	metricsUpdateInterval time.Duration
	busyTimeout           time.Duration

	mu     sync.RWMutex
	closed bool

	stopChan chan struct{}
	wg       sync.WaitGroup

	logger logger.Logger
}

// NewSQLiteStore opens the database at path, creates the schema and starts
// the background metrics updater. The updater stops when ctx is canceled or
// the store is closed.
func NewSQLiteStore(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	if path == "" {
		return nil, ErrInvalidPath
	}
	s := &SQLiteStore{
		path:                  path,
		metricsUpdateInterval: defaultMetricsUpdateInterval,
		busyTimeout:           defaultBusyTimeout,
		stopChan:              make(chan struct{}),
		logger:                logger.NamedOrNop("repository"),
	}
	for _, opt := range opts {
		opt(s)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout=%d", s.busyTimeout.Milliseconds()),
		"PRAGMA journal_mode=WAL",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("pragma: %w", err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	s.db = db

	s.startMetricsUpdater(ctx)
	s.logger.Info(ctx, "report store opened", logger.String("path", path))
	return s, nil
}

// SaveReport appends one report.
func (s *SQLiteStore) SaveReport(ctx context.Context, rec model.Record) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	payload, err := json.Marshal(rec.Report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	ts := rec.TS
	if ts.IsZero() {
		ts = rec.Report.Timestamp
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reports (session_id, recorded_at, score, bdnf, payload) VALUES (?, ?, ?, ?, ?)`,
		rec.SessionID,
		ts.UTC().Format(time.RFC3339Nano),
		rec.Report.Session.Score,
		rec.Report.Neuroplasticity.BDNF,
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// ListReports returns the reports of a session oldest first.
func (s *SQLiteStore) ListReports(ctx context.Context, sessionID string, limit int) ([]model.Record, error) {
	if limit < 0 {
		return nil, ErrInvalidLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	sqlLimit := limit
	if sqlLimit == 0 {
		sqlLimit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT recorded_at, payload FROM (
			SELECT id, recorded_at, payload FROM reports
			WHERE session_id = ?
			ORDER BY id DESC
			LIMIT ?
		) ORDER BY id ASC`, sessionID, sqlLimit)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	var out []model.Record
	for rows.Next() {
		var recordedAt, payload string
		if err := rows.Scan(&recordedAt, &payload); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		var rep cognition.Report
		if err := json.Unmarshal([]byte(payload), &rep); err != nil {
			return nil, fmt.Errorf("decode report: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, recordedAt)
		if err != nil {
			return nil, fmt.Errorf("decode timestamp: %w", err)
		}
		out = append(out, model.Record{SessionID: sessionID, Report: rep, TS: ts})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}

// Sessions lists every session with stored reports, newest first.
func (s *SQLiteStore) Sessions(ctx context.Context) ([]SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.session_id, COUNT(*),
			(SELECT score FROM reports l WHERE l.session_id = r.session_id ORDER BY l.id DESC LIMIT 1)
		FROM reports r
		GROUP BY r.session_id
		ORDER BY MAX(r.id) DESC`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	out := []SessionInfo{}
	for rows.Next() {
		var info SessionInfo
		if err := rows.Scan(&info.SessionID, &info.Reports, &info.LastScore); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// Count returns the number of stored reports.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrClosed
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reports`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count reports: %w", err)
	}
	return n, nil
}

// Close stops the metrics updater and closes the database. Calling Close
// more than once is a no-op.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.stopChan)
	s.mu.Unlock()

	s.wg.Wait()
	return s.db.Close()
}

// startMetricsUpdater starts a background goroutine that publishes the
// stored report count.
func (s *SQLiteStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.updateMetrics(ctx)
			}
		}
	}()
}

func (s *SQLiteStore) updateMetrics(ctx context.Context) {
	n, err := s.Count(ctx)
	if err != nil {
		s.logger.Warn(ctx, "failed to count stored reports", logger.Error(err))
		return
	}
	metrics.UpdateStoredReports(n)
}
