package protocol

import "context"

// Engine is the entry-point surface of the network state engine. Every
// method follows the uniform calling convention: the returned buffers are
// engine-owned until released by the caller, unused slots are nil, and a
// Pass code means the error buffers are empty.
//
// GenerateDifferences and Format carry no log buffer: the engine emits no
// log batch for those operations.
type Engine interface {
	// Retrieve reports the current network state as a serialized document.
	Retrieve(ctx context.Context, flags Flags) (state, logs, errKind, errMsg *Buffer, rc Code)

	// Apply submits a desired-state document. With FlagNoCommit set, a
	// successful apply leaves a pending transaction and returns its
	// checkpoint token; rollbackTimeout bounds, in seconds, how long the
	// transaction may stay pending before the engine rolls it back on its
	// own.
	Apply(ctx context.Context, flags Flags, desired []byte, rollbackTimeout uint32) (checkpoint, logs, errKind, errMsg *Buffer, rc Code)

	// CommitCheckpoint finalizes the pending transaction identified by
	// checkpoint.
	CommitCheckpoint(ctx context.Context, checkpoint []byte) (logs, errKind, errMsg *Buffer, rc Code)

	// RollbackCheckpoint undoes the pending transaction identified by
	// checkpoint.
	RollbackCheckpoint(ctx context.Context, checkpoint []byte) (logs, errKind, errMsg *Buffer, rc Code)

	// GenerateConfigurations renders the persistent configuration
	// artifacts that would realize desired, without touching live state.
	// The result maps provider names to ordered (name, content) pairs.
	GenerateConfigurations(ctx context.Context, desired []byte) (configs, logs, errKind, errMsg *Buffer, rc Code)

	// GenerateDifferences computes a state-shaped document holding only
	// the fields of newState that differ from oldState.
	GenerateDifferences(ctx context.Context, newState, oldState []byte) (diff, errKind, errMsg *Buffer, rc Code)

	// Format re-parses a state document (JSON or YAML) and emits it in
	// canonical form.
	Format(ctx context.Context, state []byte) (formatted, errKind, errMsg *Buffer, rc Code)

	// PolicyNetState derives a concrete desired state by resolving policy
	// against current.
	PolicyNetState(ctx context.Context, policy, current []byte) (state, logs, errKind, errMsg *Buffer, rc Code)
}
