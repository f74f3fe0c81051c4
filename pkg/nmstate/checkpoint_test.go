package nmstate

import (
	"context"
	"testing"

	"github.com/NetworkManager/nmstate/pkg/protocol"
)

func pendingCheckpoint(t *testing.T, engine *fakeEngine) *Checkpoint {
	t.Helper()
	engine.result = []byte("cp-1")
	cp, err := newTestClient(engine).ApplyNetState(context.Background(), []byte("{}"), ApplyOptions{NoCommit: true})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if cp == nil {
		t.Fatal("no-commit apply returned no checkpoint")
	}
	return cp
}

func TestCheckpointCommitConsumesHandle(t *testing.T) {
	engine := &fakeEngine{}
	cp := pendingCheckpoint(t, engine)
	ctx := context.Background()

	if err := cp.Commit(ctx); err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if cp.State() != CheckpointCommitted {
		t.Fatalf("state = %s, want committed", cp.State())
	}

	calls := len(engine.calls)
	err := cp.Commit(ctx)
	if KindOf(err) != KindInvalidArgument {
		t.Fatalf("second commit error = %v, want InvalidArgument", err)
	}
	if len(engine.calls) != calls {
		t.Fatal("resolved handle still crossed the boundary")
	}
	if err := cp.Rollback(ctx); KindOf(err) != KindInvalidArgument {
		t.Fatalf("rollback after commit error = %v, want InvalidArgument", err)
	}
}

func TestCheckpointRollbackConsumesHandle(t *testing.T) {
	engine := &fakeEngine{}
	cp := pendingCheckpoint(t, engine)
	ctx := context.Background()

	if err := cp.Rollback(ctx); err != nil {
		t.Fatalf("rollback failed: %v", err)
	}
	if cp.State() != CheckpointRolledBack {
		t.Fatalf("state = %s, want rolled_back", cp.State())
	}
	if err := cp.Rollback(ctx); KindOf(err) != KindInvalidArgument {
		t.Fatalf("second rollback error = %v, want InvalidArgument", err)
	}
}

func TestCheckpointInvalidatedByEngineRejection(t *testing.T) {
	engine := &fakeEngine{}
	cp := pendingCheckpoint(t, engine)

	// The watchdog resolved the transaction behind the caller's back; the
	// engine now rejects the token.
	engine.rc = protocol.Fail
	engine.errKind = "InvalidArgument"
	engine.errMsg = "checkpoint cp-1 is already resolved as rolled_back"

	err := cp.Commit(context.Background())
	if KindOf(err) != KindInvalidArgument {
		t.Fatalf("commit error = %v, want InvalidArgument", err)
	}
	if cp.State() != CheckpointInvalid {
		t.Fatalf("state = %s, want invalid", cp.State())
	}
}

func TestCheckpointStaysPendingOnTransientFailure(t *testing.T) {
	engine := &fakeEngine{}
	cp := pendingCheckpoint(t, engine)

	engine.rc = protocol.Fail
	engine.errKind = "DependencyError"
	engine.errMsg = "journal unavailable"

	err := cp.Commit(context.Background())
	if KindOf(err) != KindDependency {
		t.Fatalf("commit error = %v, want DependencyError", err)
	}
	// The engine did not reject the handle itself; the caller may retry.
	if cp.State() != CheckpointPending {
		t.Fatalf("state = %s, want still pending", cp.State())
	}
}
