package stores

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	// SQLite driver
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
	cfg  Config
}

// Config holds SQLite store configuration.
type Config struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NewSQLiteStore creates a new SQLite store instance.
func NewSQLiteStore(cfg Config) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = 10
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 2
	}
	if cfg.ConnMaxLifetime == 0 {
		cfg.ConnMaxLifetime = 5 * time.Minute
	}

	return &SQLiteStore{
		path: cfg.Path,
		cfg:  cfg,
	}, nil
}

// Init opens the database connection and enables WAL mode.
func (s *SQLiteStore) Init(ctx context.Context) error {
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_txlock=immediate", s.path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(s.cfg.MaxOpenConns)
	db.SetMaxIdleConns(s.cfg.MaxIdleConns)
	db.SetConnMaxLifetime(s.cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s.db = db
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Migrate runs database migrations.
func (s *SQLiteStore) Migrate(_ context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	driver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// HealthCheck verifies the database is reachable.
func (s *SQLiteStore) HealthCheck(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}
	return s.db.PingContext(ctx)
}

// SaveNetState replaces the persisted current-state document. The table
// holds a single row; saving is an upsert.
func (s *SQLiteStore) SaveNetState(ctx context.Context, document string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO net_state (id, document, updated_at)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at`,
		document, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save net state: %w", err)
	}
	return nil
}

// LoadNetState returns the persisted current-state document, or "" when
// none has been saved yet.
func (s *SQLiteStore) LoadNetState(ctx context.Context) (string, error) {
	var document string
	err := s.db.QueryRowContext(ctx, "SELECT document FROM net_state WHERE id = 1").Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load net state: %w", err)
	}
	return document, nil
}

// CreateCheckpoint journals a new pending transaction.
func (s *SQLiteStore) CreateCheckpoint(ctx context.Context, cp *Checkpoint) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (id, snapshot, timeout_seconds, status, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		cp.ID, cp.Snapshot, cp.TimeoutSeconds, cp.Status, cp.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to create checkpoint %s: %w", cp.ID, err)
	}
	return nil
}

// GetCheckpoint fetches one journal entry.
func (s *SQLiteStore) GetCheckpoint(ctx context.Context, id string) (*Checkpoint, error) {
	cp := &Checkpoint{}
	var resolvedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT id, snapshot, timeout_seconds, status, created_at, resolved_at
		FROM checkpoints WHERE id = ?`, id).
		Scan(&cp.ID, &cp.Snapshot, &cp.TimeoutSeconds, &cp.Status, &cp.CreatedAt, &resolvedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCheckpointNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get checkpoint %s: %w", id, err)
	}
	if resolvedAt.Valid {
		t := resolvedAt.Time
		cp.ResolvedAt = &t
	}
	return cp, nil
}

// ResolveCheckpoint marks a pending entry committed or rolled back. A
// resolved or unknown entry is not updated and reports
// ErrCheckpointNotFound.
func (s *SQLiteStore) ResolveCheckpoint(ctx context.Context, id string, status CheckpointStatus, resolvedAt time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE checkpoints SET status = ?, resolved_at = ?
		WHERE id = ? AND status = ?`,
		status, resolvedAt.UTC(), id, CheckpointStatusPending)
	if err != nil {
		return fmt.Errorf("failed to resolve checkpoint %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to resolve checkpoint %s: %w", id, err)
	}
	if n == 0 {
		return ErrCheckpointNotFound
	}
	return nil
}

// PendingCheckpoints lists unresolved journal entries, oldest first.
func (s *SQLiteStore) PendingCheckpoints(ctx context.Context) ([]*Checkpoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, snapshot, timeout_seconds, status, created_at, resolved_at
		FROM checkpoints WHERE status = ? ORDER BY created_at`, CheckpointStatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending checkpoints: %w", err)
	}
	defer rows.Close()

	var out []*Checkpoint
	for rows.Next() {
		cp := &Checkpoint{}
		var resolvedAt sql.NullTime
		if err := rows.Scan(&cp.ID, &cp.Snapshot, &cp.TimeoutSeconds, &cp.Status, &cp.CreatedAt, &resolvedAt); err != nil {
			return nil, fmt.Errorf("failed to scan checkpoint: %w", err)
		}
		if resolvedAt.Valid {
			t := resolvedAt.Time
			cp.ResolvedAt = &t
		}
		out = append(out, cp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list pending checkpoints: %w", err)
	}
	return out, nil
}
