package engine

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/NetworkManager/nmstate/pkg/protocol"
	"github.com/NetworkManager/nmstate/pkg/state"
	"github.com/NetworkManager/nmstate/pkg/telemetry"
)

// Retrieve reports the current network state, filtered per the flags:
// secrets are hidden unless requested, status sections are stripped
// unless requested, and running-config-only drops data learned at
// runtime.
func (e *Engine) Retrieve(ctx context.Context, flags protocol.Flags) (stateBuf, logs, errKind, errMsg *protocol.Buffer, rc protocol.Code) {
	start := time.Now()
	rec := e.newRecorder("retrieve")
	defer func() { e.observe("retrieve", start, rc) }()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		logs, errKind, errMsg = e.failure(rec, kindBug, "engine is closed")
		return nil, logs, errKind, errMsg, protocol.Fail
	}

	doc := e.current.Clone()
	if doc == nil {
		doc = state.Doc{}
	}
	if flags.Has(protocol.FlagKernelOnly) {
		rec.Debugf("reporting kernel network state only")
	}
	if !flags.Has(protocol.FlagIncludeStatusData) {
		state.StripStatus(doc)
	}
	if !flags.Has(protocol.FlagIncludeSecrets) {
		state.HideSecrets(doc)
	}
	if flags.Has(protocol.FlagRunningConfigOnly) {
		state.StripDynamic(doc)
	}
	rec.Infof("retrieved network state with %d top-level sections", len(doc))

	b, err := doc.JSON()
	if err != nil {
		logs, errKind, errMsg = e.failure(rec, kindBug, "failed to serialize network state: %v", err)
		return nil, logs, errKind, errMsg, protocol.Fail
	}
	return e.newBuffer(b), rec.batch(), nil, nil, protocol.Pass
}

// Apply realizes a desired-state document against the current state.
// Unless FlagNoVerify is set the applied state is read back and compared
// to the desired document; divergence rolls back to the pre-apply
// snapshot and fails the call. With FlagNoCommit the transaction stays
// pending under the returned checkpoint until committed, rolled back, or
// expired by the watchdog.
func (e *Engine) Apply(ctx context.Context, flags protocol.Flags, desired []byte, rollbackTimeout uint32) (checkpoint, logs, errKind, errMsg *protocol.Buffer, rc protocol.Code) {
	start := time.Now()
	rec := e.newRecorder("apply")
	defer func() { e.observe("apply", start, rc) }()

	fail := func(kind, format string, args ...any) (*protocol.Buffer, *protocol.Buffer, *protocol.Buffer, *protocol.Buffer, protocol.Code) {
		logs, errKind, errMsg := e.failure(rec, kind, format, args...)
		return nil, logs, errKind, errMsg, protocol.Fail
	}

	desiredDoc, err := state.ParseYAML(desired)
	if err != nil {
		return fail(kindInvalidArgument, "invalid desired state: %v", err)
	}
	if rollbackTimeout > e.maxTimeout {
		return fail(kindInvalidArgument, "rollback timeout %ds exceeds the allowed maximum of %ds", rollbackTimeout, e.maxTimeout)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return fail(kindBug, "engine is closed")
	}

	rec.Infof("applying desired network state")
	if flags.Has(protocol.FlagKernelOnly) {
		rec.Debugf("kernel-only apply, configuration stack bypassed")
	}

	snapshot := e.current.Clone()
	if snapshot == nil {
		snapshot = state.Doc{}
	}

	realized, err := e.realize(e.current, desiredDoc)
	if err != nil {
		var re *RealizeError
		if errors.As(err, &re) {
			return fail(re.Kind, "%s", re.Message)
		}
		return fail(kindPluginFailure, "failed to realize desired state: %v", err)
	}
	e.current = realized

	if flags.Has(protocol.FlagNoVerify) {
		rec.Debugf("post-apply verification skipped")
	} else {
		if divergent := state.Verify(desiredDoc, e.current); len(divergent) > 0 {
			e.current = snapshot
			e.metrics.ObserveRollback(telemetry.RollbackTriggerVerify)
			rec.Warnf("restored pre-apply state after verification failure")
			return fail(kindVerification, "verification failed: desired and applied state differ at %s", strings.Join(divergent, ", "))
		}
		rec.Debugf("post-apply verification passed")
	}

	persisted := false
	if !flags.Has(protocol.FlagMemoryOnly) && e.store != nil {
		if err := e.persistLocked(ctx); err != nil {
			e.current = snapshot
			return fail(kindDependency, "failed to persist applied state: %v", err)
		}
		persisted = true
		rec.Debugf("applied state persisted")
	}

	token := ""
	if flags.Has(protocol.FlagNoCommit) {
		timeout := rollbackTimeout
		if timeout == 0 {
			timeout = defaultRollbackTimeout
		}
		tx, err := e.openTransactionLocked(ctx, snapshot, timeout)
		if err != nil {
			// The applied state is already on disk; revert it so the
			// failed apply leaves nothing behind, in memory or durably.
			e.current = snapshot
			if persisted {
				if perr := e.persistLocked(ctx); perr != nil {
					e.log.Error().Err(perr).Msg("failed to revert persisted state after journal failure")
				}
			}
			return fail(kindDependency, "failed to journal transaction: %v", err)
		}
		token = tx.id
		rec.Infof("network state applied, transaction pending as checkpoint %s for up to %ds", token, timeout)
	} else {
		rec.Infof("network state applied and committed")
	}

	return e.newBuffer([]byte(token)), rec.batch(), nil, nil, protocol.Pass
}
