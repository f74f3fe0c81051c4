package engine

import (
	"context"
	"time"

	"github.com/NetworkManager/nmstate/pkg/policy"
	"github.com/NetworkManager/nmstate/pkg/protocol"
	"github.com/NetworkManager/nmstate/pkg/state"
)

// GenerateDifferences computes a state-shaped document holding only the
// fields of newState that differ from oldState. The operation emits no
// log batch.
func (e *Engine) GenerateDifferences(ctx context.Context, newState, oldState []byte) (diff, errKind, errMsg *protocol.Buffer, rc protocol.Code) {
	start := time.Now()
	defer func() { e.observe("diff", start, rc) }()

	fail := func(kind, format string, args ...any) (*protocol.Buffer, *protocol.Buffer, *protocol.Buffer, protocol.Code) {
		errKind, errMsg := e.errSlots(kind, format, args...)
		return nil, errKind, errMsg, protocol.Fail
	}

	newDoc, err := state.ParseYAML(newState)
	if err != nil {
		return fail(kindInvalidArgument, "invalid new state: %v", err)
	}
	oldDoc, err := state.ParseYAML(oldState)
	if err != nil {
		return fail(kindInvalidArgument, "invalid old state: %v", err)
	}

	b, err := state.Diff(newDoc, oldDoc).JSON()
	if err != nil {
		return fail(kindBug, "failed to serialize difference: %v", err)
	}
	return e.newBuffer(b), nil, nil, protocol.Pass
}

// Format re-parses a state document, JSON or YAML, and emits it in
// canonical YAML form. The operation emits no log batch.
func (e *Engine) Format(ctx context.Context, st []byte) (formatted, errKind, errMsg *protocol.Buffer, rc protocol.Code) {
	start := time.Now()
	defer func() { e.observe("format", start, rc) }()

	doc, err := state.ParseYAML(st)
	if err != nil {
		errKind, errMsg = e.errSlots(kindInvalidArgument, "invalid state document: %v", err)
		return nil, errKind, errMsg, protocol.Fail
	}
	b, err := doc.YAML()
	if err != nil {
		errKind, errMsg = e.errSlots(kindBug, "failed to serialize state document: %v", err)
		return nil, errKind, errMsg, protocol.Fail
	}
	return e.newBuffer(b), nil, nil, protocol.Pass
}

// PolicyNetState resolves a policy document into a concrete desired
// state. An empty current document resolves against the engine's own
// current state.
func (e *Engine) PolicyNetState(ctx context.Context, policyText, current []byte) (stateBuf, logs, errKind, errMsg *protocol.Buffer, rc protocol.Code) {
	start := time.Now()
	rec := e.newRecorder("policy")
	defer func() { e.observe("policy", start, rc) }()

	fail := func(kind, format string, args ...any) (*protocol.Buffer, *protocol.Buffer, *protocol.Buffer, *protocol.Buffer, protocol.Code) {
		logs, errKind, errMsg := e.failure(rec, kind, format, args...)
		return nil, logs, errKind, errMsg, protocol.Fail
	}

	pol, err := policy.Parse(policyText)
	if err != nil {
		return fail(kindInvalidArgument, "invalid policy: %v", err)
	}

	var currentDoc state.Doc
	if len(current) > 0 {
		currentDoc, err = state.ParseYAML(current)
		if err != nil {
			return fail(kindInvalidArgument, "invalid current state: %v", err)
		}
	} else {
		e.mu.Lock()
		currentDoc = e.current.Clone()
		e.mu.Unlock()
		rec.Debugf("resolving policy against the engine's current state")
	}

	resolved, err := e.resolver.Resolve(pol, currentDoc)
	if err != nil {
		return fail(kindInvalidArgument, "failed to resolve policy: %v", err)
	}
	rec.Infof("policy resolved with %d captures", len(pol.Capture))

	b, err := resolved.JSON()
	if err != nil {
		return fail(kindBug, "failed to serialize resolved state: %v", err)
	}
	return e.newBuffer(b), rec.batch(), nil, nil, protocol.Pass
}
