package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/NetworkManager/nmstate/pkg/policy"
	"github.com/NetworkManager/nmstate/pkg/protocol"
	"github.com/NetworkManager/nmstate/pkg/state"
	"github.com/NetworkManager/nmstate/pkg/stores"
	"github.com/NetworkManager/nmstate/pkg/telemetry"
)

// Error kinds reported on the wire.
const (
	kindVerification    = "VerificationError"
	kindInvalidArgument = "InvalidArgument"
	kindBug             = "Bug"
	kindPluginFailure   = "PluginFailure"
	kindDependency      = "DependencyError"
)

// defaultRollbackTimeout is the watchdog bound, in seconds, applied when
// a no-commit caller requests none.
const defaultRollbackTimeout uint32 = 60

// DefaultMaxRollbackTimeout caps requested rollback timeouts to one hour
// unless the configuration raises it.
const DefaultMaxRollbackTimeout uint32 = 3600

// RealizeFunc computes the state the platform ends up in after applying
// desired on top of current. It must not mutate its inputs.
type RealizeFunc func(current, desired state.Doc) (state.Doc, error)

// RealizeError lets a realize hook choose the error kind reported on
// the wire. Any other error from the hook reports as PluginFailure.
type RealizeError struct {
	Kind    string
	Message string
}

func (e *RealizeError) Error() string { return e.Message }

// Config configures an Engine. The zero value of every optional field
// is usable: no store means nothing survives a restart, no metrics
// means no collection.
type Config struct {
	// Logger is the parent logger; the engine derives component
	// children from it.
	Logger zerolog.Logger

	// Store journals transactions and persists the current state across
	// restarts. Optional; without it every apply behaves memory-only.
	Store stores.Store

	// Metrics receives call and transaction observations. Optional.
	Metrics *telemetry.Metrics

	// InitialState seeds the current state when the store holds none.
	InitialState state.Doc

	// Realize overrides how a desired document becomes platform state.
	// Nil means merge semantics.
	Realize RealizeFunc

	// MaxRollbackTimeout caps, in seconds, the watchdog bound a caller
	// may request. Zero means DefaultMaxRollbackTimeout.
	MaxRollbackTimeout uint32 `validate:"lte=86400"`
}

// Engine is the in-process network state engine.
type Engine struct {
	mu  sync.Mutex
	log zerolog.Logger

	store      stores.Store
	metrics    *telemetry.Metrics
	resolver   *policy.Resolver
	realize    RealizeFunc
	maxTimeout uint32

	current     state.Doc
	checkpoints map[string]*transaction
	closed      bool

	outstanding atomic.Int64

	// afterFunc schedules rollback watchdogs; tests replace it to fire
	// them deterministically.
	afterFunc func(d time.Duration, f func()) *time.Timer
	now       func() time.Time
}

var _ protocol.Engine = (*Engine)(nil)

// New creates an engine. With a store configured it opens and migrates
// the database, loads the persisted state, and re-arms the watchdog of
// every transaction left pending by a previous run.
func New(ctx context.Context, cfg Config) (*Engine, error) {
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}

	e := &Engine{
		log:         cfg.Logger.With().Str("component", "engine").Logger(),
		store:       cfg.Store,
		metrics:     cfg.Metrics,
		resolver:    policy.NewResolver(cfg.Logger),
		realize:     cfg.Realize,
		maxTimeout:  cfg.MaxRollbackTimeout,
		current:     cfg.InitialState.Clone(),
		checkpoints: make(map[string]*transaction),
		afterFunc:   time.AfterFunc,
		now:         time.Now,
	}
	if e.realize == nil {
		e.realize = func(current, desired state.Doc) (state.Doc, error) {
			return state.Merge(current, desired), nil
		}
	}
	if e.maxTimeout == 0 {
		e.maxTimeout = DefaultMaxRollbackTimeout
	}
	if e.current == nil {
		e.current = state.Doc{}
	}

	if e.store != nil {
		if err := e.store.Init(ctx); err != nil {
			return nil, fmt.Errorf("failed to open store: %w", err)
		}
		if err := e.store.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("failed to migrate store: %w", err)
		}
		if err := e.recover(ctx); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// recover restores persisted state and re-arms pending transactions.
func (e *Engine) recover(ctx context.Context) error {
	doc, err := e.store.LoadNetState(ctx)
	if err != nil {
		return fmt.Errorf("failed to load persisted state: %w", err)
	}
	if doc != "" {
		parsed, err := state.ParseJSON([]byte(doc))
		if err != nil {
			return fmt.Errorf("persisted state is corrupt: %w", err)
		}
		e.current = parsed
	}

	pending, err := e.store.PendingCheckpoints(ctx)
	if err != nil {
		return fmt.Errorf("failed to list pending transactions: %w", err)
	}
	for _, cp := range pending {
		snapshot, err := state.ParseJSON([]byte(cp.Snapshot))
		if err != nil {
			return fmt.Errorf("snapshot of checkpoint %s is corrupt: %w", cp.ID, err)
		}
		tx := &transaction{
			id:        cp.ID,
			snapshot:  snapshot,
			status:    stores.CheckpointStatusPending,
			createdAt: cp.CreatedAt,
		}
		e.checkpoints[tx.id] = tx
		remaining := time.Duration(cp.TimeoutSeconds)*time.Second - e.now().Sub(cp.CreatedAt)
		if remaining < 0 {
			remaining = 0
		}
		e.armWatchdog(tx, remaining)
		e.metrics.CheckpointOpened()
		e.log.Info().
			Str("checkpoint", tx.id).
			Dur("remaining", remaining).
			Msg("re-armed watchdog of pending transaction")
	}
	return nil
}

// Close stops every watchdog and releases the store. Pending
// transactions stay journaled; the next engine re-arms them.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	for _, tx := range e.checkpoints {
		if tx.timer != nil {
			tx.timer.Stop()
		}
	}
	if e.store != nil {
		return e.store.Close()
	}
	return nil
}

// OutstandingBuffers reports how many returned buffers have not been
// released yet.
func (e *Engine) OutstandingBuffers() int64 {
	return e.outstanding.Load()
}

// newBuffer allocates an engine-owned output buffer.
func (e *Engine) newBuffer(b []byte) *protocol.Buffer {
	e.outstanding.Add(1)
	return protocol.NewTrackedBuffer(b, func() { e.outstanding.Add(-1) })
}

// errSlots builds the error kind and message buffers of a failed call.
func (e *Engine) errSlots(kind, format string, args ...any) (errKind, errMsg *protocol.Buffer) {
	msg := fmt.Sprintf(format, args...)
	return e.newBuffer([]byte(kind)), e.newBuffer([]byte(msg))
}

// failure records a failed call on the log batch and builds its output
// slots.
func (e *Engine) failure(rec *recorder, kind, format string, args ...any) (logs, errKind, errMsg *protocol.Buffer) {
	msg := fmt.Sprintf(format, args...)
	rec.entry(protocol.LogLevelError, msg)
	return rec.batch(), e.newBuffer([]byte(kind)), e.newBuffer([]byte(msg))
}

// observe records one call outcome on the metrics collector.
func (e *Engine) observe(operation string, start time.Time, rc protocol.Code) {
	status := "success"
	if rc != protocol.Pass {
		status = "failure"
	}
	e.metrics.ObserveCall(operation, status, time.Since(start))
}

// persistLocked writes the current state through the store. Caller
// holds the lock.
func (e *Engine) persistLocked(ctx context.Context) error {
	b, err := e.current.JSON()
	if err != nil {
		return err
	}
	return e.store.SaveNetState(ctx, string(b))
}
