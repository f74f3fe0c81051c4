package nmstate

import (
	"context"
	"sync"
)

// CheckpointState is the caller-side lifecycle state of a checkpoint
// handle.
type CheckpointState string

const (
	// CheckpointPending: the transaction is open and must be committed or
	// rolled back.
	CheckpointPending CheckpointState = "pending"
	// CheckpointCommitted: the transaction was finalized. Terminal.
	CheckpointCommitted CheckpointState = "committed"
	// CheckpointRolledBack: the transaction was undone. Terminal.
	CheckpointRolledBack CheckpointState = "rolled_back"
	// CheckpointInvalid: the engine no longer recognizes the handle,
	// typically because its rollback watchdog already resolved the
	// transaction. Terminal.
	CheckpointInvalid CheckpointState = "invalid"
)

// Checkpoint identifies one pending, uncommitted transaction left by an
// apply with NoCommit. The handle must be consumed exactly once, by
// Commit or Rollback; afterwards both operations fail. If the caller
// never resolves it, the engine's watchdog rolls the transaction back and
// the handle becomes invalid as a side effect.
//
// The tracked state is the caller's view. It can lag the engine's: a
// watchdog rollback is only observed when the next Commit or Rollback
// call fails.
type Checkpoint struct {
	mu     sync.Mutex
	client *Client
	token  string
	state  CheckpointState
}

// Token returns the opaque engine token identifying the transaction.
// Callers that outlive the process persist this and resolve it later via
// Client.CommitCheckpoint or Client.RollbackCheckpoint.
func (cp *Checkpoint) Token() string {
	return cp.token
}

// State returns the caller-side lifecycle state of the handle.
func (cp *Checkpoint) State() CheckpointState {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	return cp.state
}

// Commit finalizes the pending transaction. Calling Commit on a handle
// that is no longer pending is an error, not a no-op.
func (cp *Checkpoint) Commit(ctx context.Context) error {
	return cp.resolve(ctx, CheckpointCommitted, cp.client.CommitCheckpoint)
}

// Rollback undoes the pending transaction. Calling Rollback on a handle
// that is no longer pending is an error, not a no-op.
func (cp *Checkpoint) Rollback(ctx context.Context) error {
	return cp.resolve(ctx, CheckpointRolledBack, cp.client.RollbackCheckpoint)
}

func (cp *Checkpoint) resolve(ctx context.Context, terminal CheckpointState, op func(context.Context, string) error) error {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	if cp.state != CheckpointPending {
		return &Error{
			Kind:    KindInvalidArgument,
			Message: "checkpoint " + cp.token + " is " + string(cp.state) + ", not pending",
		}
	}

	if err := op(ctx, cp.token); err != nil {
		// The engine rejected the handle: its watchdog has already
		// resolved the transaction, or the token is unknown. Either way
		// the handle is spent.
		if KindOf(err) == KindInvalidArgument || KindOf(err) == KindBug {
			cp.state = CheckpointInvalid
		}
		return err
	}

	cp.state = terminal
	return nil
}
