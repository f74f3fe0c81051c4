package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/NetworkManager/nmstate/pkg/protocol"
	"github.com/NetworkManager/nmstate/pkg/state"
	"github.com/NetworkManager/nmstate/pkg/stores"
	"github.com/NetworkManager/nmstate/pkg/telemetry"
)

// transaction is one pending or resolved no-commit apply. Resolved
// transactions stay in the table so a reused checkpoint fails with a
// distinct message instead of "unknown".
type transaction struct {
	id        string
	snapshot  state.Doc
	status    stores.CheckpointStatus
	createdAt time.Time
	timer     *time.Timer
}

// openTransactionLocked journals and arms a new pending transaction.
// Caller holds the lock.
func (e *Engine) openTransactionLocked(ctx context.Context, snapshot state.Doc, timeout uint32) (*transaction, error) {
	tx := &transaction{
		id:        uuid.NewString(),
		snapshot:  snapshot,
		status:    stores.CheckpointStatusPending,
		createdAt: e.now(),
	}
	if e.store != nil {
		b, err := tx.snapshot.JSON()
		if err != nil {
			return nil, err
		}
		cp := &stores.Checkpoint{
			ID:             tx.id,
			Snapshot:       string(b),
			TimeoutSeconds: timeout,
			Status:         stores.CheckpointStatusPending,
			CreatedAt:      tx.createdAt,
		}
		if err := e.store.CreateCheckpoint(ctx, cp); err != nil {
			return nil, err
		}
	}
	e.checkpoints[tx.id] = tx
	e.armWatchdog(tx, time.Duration(timeout)*time.Second)
	e.metrics.CheckpointOpened()
	return tx, nil
}

func (e *Engine) armWatchdog(tx *transaction, d time.Duration) {
	id := tx.id
	tx.timer = e.afterFunc(d, func() { e.watchdogExpired(id) })
}

// watchdogExpired rolls back a transaction still pending when its bound
// elapses.
func (e *Engine) watchdogExpired(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	tx := e.checkpoints[id]
	if tx == nil || tx.status != stores.CheckpointStatusPending || e.closed {
		return
	}
	e.log.Warn().Str("checkpoint", id).Msg("rollback timeout elapsed, rolling back pending transaction")
	e.resolveLocked(context.Background(), tx, stores.CheckpointStatusRolledBack, telemetry.RollbackTriggerWatchdog)
}

// resolveLocked finalizes a pending transaction. Journal and persistence
// failures are logged, not reported: the in-memory resolution has
// already happened. Caller holds the lock.
func (e *Engine) resolveLocked(ctx context.Context, tx *transaction, status stores.CheckpointStatus, trigger telemetry.RollbackTrigger) {
	if tx.timer != nil {
		tx.timer.Stop()
	}
	tx.status = status
	if status == stores.CheckpointStatusRolledBack {
		e.current = tx.snapshot.Clone()
		e.metrics.ObserveRollback(trigger)
	}
	e.metrics.CheckpointResolved()

	if e.store == nil {
		return
	}
	if status == stores.CheckpointStatusRolledBack {
		if err := e.persistLocked(ctx); err != nil {
			e.log.Error().Err(err).Str("checkpoint", tx.id).Msg("failed to persist rolled-back state")
		}
	}
	if err := e.store.ResolveCheckpoint(ctx, tx.id, status, e.now()); err != nil {
		e.log.Error().Err(err).Str("checkpoint", tx.id).Msg("failed to journal transaction resolution")
	}
}

// CommitCheckpoint finalizes the pending transaction identified by
// checkpoint, making its applied state permanent.
func (e *Engine) CommitCheckpoint(ctx context.Context, checkpoint []byte) (logs, errKind, errMsg *protocol.Buffer, rc protocol.Code) {
	return e.finalize(ctx, "commit", checkpoint, stores.CheckpointStatusCommitted)
}

// RollbackCheckpoint undoes the pending transaction identified by
// checkpoint, restoring its pre-apply snapshot.
func (e *Engine) RollbackCheckpoint(ctx context.Context, checkpoint []byte) (logs, errKind, errMsg *protocol.Buffer, rc protocol.Code) {
	return e.finalize(ctx, "rollback", checkpoint, stores.CheckpointStatusRolledBack)
}

func (e *Engine) finalize(ctx context.Context, op string, checkpoint []byte, status stores.CheckpointStatus) (logs, errKind, errMsg *protocol.Buffer, rc protocol.Code) {
	start := time.Now()
	rec := e.newRecorder(op)
	defer func() { e.observe(op, start, rc) }()

	fail := func(kind, format string, args ...any) (*protocol.Buffer, *protocol.Buffer, *protocol.Buffer, protocol.Code) {
		logs, errKind, errMsg := e.failure(rec, kind, format, args...)
		return logs, errKind, errMsg, protocol.Fail
	}

	id := string(checkpoint)
	if id == "" {
		return fail(kindInvalidArgument, "empty checkpoint")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return fail(kindBug, "engine is closed")
	}
	tx := e.checkpoints[id]
	if tx == nil {
		return fail(kindInvalidArgument, "no transaction for checkpoint %q", id)
	}
	if tx.status != stores.CheckpointStatusPending {
		return fail(kindInvalidArgument, "checkpoint %q is already resolved as %s", id, tx.status)
	}

	e.resolveLocked(ctx, tx, status, telemetry.RollbackTriggerCaller)
	if status == stores.CheckpointStatusCommitted {
		rec.Infof("transaction %s committed", id)
	} else {
		rec.Infof("transaction %s rolled back to its pre-apply state", id)
	}
	return rec.batch(), nil, nil, protocol.Pass
}
