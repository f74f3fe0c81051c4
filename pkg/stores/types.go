package stores

import (
	"context"
	"errors"
	"time"
)

// ErrCheckpointNotFound is returned when a checkpoint ID is not in the
// journal.
var ErrCheckpointNotFound = errors.New("checkpoint not found")

// CheckpointStatus is the journaled state of a transaction.
type CheckpointStatus string

const (
	CheckpointStatusPending    CheckpointStatus = "pending"
	CheckpointStatusCommitted  CheckpointStatus = "committed"
	CheckpointStatusRolledBack CheckpointStatus = "rolled_back"
)

// Checkpoint is one journaled transaction: the pre-apply snapshot it can
// roll back to and its watchdog bound.
type Checkpoint struct {
	ID             string           `json:"id"`
	Snapshot       string           `json:"snapshot"` // pre-apply state document, JSON
	TimeoutSeconds uint32           `json:"timeout_seconds"`
	Status         CheckpointStatus `json:"status"`
	CreatedAt      time.Time        `json:"created_at"`
	ResolvedAt     *time.Time       `json:"resolved_at,omitempty"`
}

// Store is the persistence interface the engine writes through.
type Store interface {
	// Init opens the underlying database.
	Init(ctx context.Context) error
	// Migrate brings the schema up to date.
	Migrate(ctx context.Context) error
	// Close releases the database.
	Close() error
	// HealthCheck verifies the database is reachable.
	HealthCheck(ctx context.Context) error

	// SaveNetState replaces the persisted current-state document.
	SaveNetState(ctx context.Context, document string) error
	// LoadNetState returns the persisted current-state document, or ""
	// when none has been saved.
	LoadNetState(ctx context.Context) (string, error)

	// CreateCheckpoint journals a new pending transaction.
	CreateCheckpoint(ctx context.Context, cp *Checkpoint) error
	// GetCheckpoint fetches one journal entry.
	GetCheckpoint(ctx context.Context, id string) (*Checkpoint, error)
	// ResolveCheckpoint marks a pending entry committed or rolled back.
	ResolveCheckpoint(ctx context.Context, id string, status CheckpointStatus, resolvedAt time.Time) error
	// PendingCheckpoints lists unresolved journal entries, oldest first.
	PendingCheckpoints(ctx context.Context) ([]*Checkpoint, error)
}
