// Package jobstore keeps a SQLite record of narration runs and per-item
// outcomes. Only metadata is stored; generated audio never touches disk
// here.
package jobstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/narralabs/narra-core/internal/config"
	_ "modernc.org/sqlite"
)

// Run is one narration run (single document or batch).
type Run struct {
	RunID     string
	Kind      string
	Voice     string
	ItemCount int
	CreatedAt time.Time
}

// ItemRecord is the recorded outcome for one document in a run.
type ItemRecord struct {
	RunID        string
	Position     int
	Name         string
	Status       string
	ErrorKind    string
	ErrorMessage string
	DurationMS   int64
	CreatedAt    time.Time
}

const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Store wraps a SQLite-backed run history.
type Store struct {
	db    *sql.DB
	cfg   config.JobStoreConfig
	log   *slog.Logger
	clock func() time.Time
}

// Open initializes the job store according to config.
func Open(ctx context.Context, cfg config.JobStoreConfig, log *slog.Logger) (*Store, error) {
	if cfg.RetentionMode == "ephemeral" {
		return &Store{cfg: cfg, log: log, clock: time.Now}, nil
	}

	dir := filepath.Dir(cfg.Path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cfg.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{db: db, cfg: cfg, log: log, clock: time.Now}

	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if cfg.VacuumOnStart {
		if err := s.vacuum(ctx); err != nil {
			log.Warn("job store vacuum failed", slog.String("error", err.Error()))
		}
	}

	if err := s.Prune(ctx); err != nil {
		log.Warn("job store prune on start failed", slog.String("error", err.Error()))
	}

	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	ddl := `
CREATE TABLE IF NOT EXISTS runs (
    run_id TEXT PRIMARY KEY,
    kind TEXT,
    voice TEXT,
    item_count INTEGER,
    created_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS run_items (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL,
    position INTEGER,
    name TEXT,
    status TEXT,
    error_kind TEXT,
    error_message TEXT,
    duration_ms INTEGER,
    created_at TIMESTAMP NOT NULL,
    FOREIGN KEY(run_id) REFERENCES runs(run_id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_run_items_run_position ON run_items(run_id, position);
`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

func (s *Store) vacuum(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx, "VACUUM")
	return err
}

// Close releases underlying resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// CreateRun inserts the run header row.
func (s *Store) CreateRun(ctx context.Context, run Run) error {
	if s.cfg.RetentionMode == "ephemeral" || s.db == nil {
		return nil
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = s.clock().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs(run_id, kind, voice, item_count, created_at)
		 VALUES(?, ?, ?, ?, ?)`,
		run.RunID, run.Kind, run.Voice, run.ItemCount, run.CreatedAt)
	return err
}

// RecordItem writes one item outcome into the store.
func (s *Store) RecordItem(ctx context.Context, item ItemRecord) error {
	if s.cfg.RetentionMode == "ephemeral" || s.db == nil {
		return nil
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = s.clock().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO run_items(run_id, position, name, status, error_kind, error_message, duration_ms, created_at)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		item.RunID, item.Position, item.Name, item.Status, item.ErrorKind, item.ErrorMessage, item.DurationMS, item.CreatedAt)
	return err
}

// ListRunItems retrieves a run's item outcomes ordered by position.
func (s *Store) ListRunItems(ctx context.Context, runID string, limit int) ([]ItemRecord, error) {
	if s.cfg.RetentionMode == "ephemeral" || s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, position, name, status, error_kind, error_message, duration_ms, created_at
		 FROM run_items WHERE run_id = ? ORDER BY position ASC LIMIT ?`, runID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ItemRecord
	for rows.Next() {
		var it ItemRecord
		var created string
		if err := rows.Scan(&it.RunID, &it.Position, &it.Name, &it.Status, &it.ErrorKind, &it.ErrorMessage, &it.DurationMS, &created); err != nil {
			return nil, err
		}
		if ts, err := time.Parse(time.RFC3339Nano, created); err == nil {
			it.CreatedAt = ts
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Prune applies configured retention (called on startup and can be scheduled).
func (s *Store) Prune(ctx context.Context) error {
	if s.cfg.RetentionMode == "ephemeral" || s.db == nil {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if s.cfg.RetentionDays > 0 {
		cutoff := s.clock().Add(-time.Duration(s.cfg.RetentionDays) * 24 * time.Hour)
		if _, err = tx.ExecContext(ctx, `DELETE FROM run_items WHERE created_at < ?`, cutoff.UTC()); err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx, `DELETE FROM runs WHERE created_at < ?`, cutoff.UTC()); err != nil {
			return err
		}
	}
	if s.cfg.MaxRuns > 0 {
		_, err = tx.ExecContext(ctx, `DELETE FROM runs WHERE run_id IN (
			SELECT run_id FROM runs ORDER BY created_at DESC LIMIT -1 OFFSET ?
		)`, s.cfg.MaxRuns)
		if err != nil {
			return err
		}
	}
	err = tx.Commit()
	return err
}
