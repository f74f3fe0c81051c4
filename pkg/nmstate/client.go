package nmstate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/yaml.v3"

	"github.com/NetworkManager/nmstate/pkg/protocol"
)

// Client issues calls against a network state engine. Calls are
// synchronous and block for the duration of the underlying operation; a
// single Client issues one call at a time per engine handle, though the
// Client itself is safe for concurrent use when the engine is.
type Client struct {
	engine protocol.Engine
	log    zerolog.Logger
	tracer trace.Tracer
}

// New creates a client around an engine handle. Bridged engine logs and
// the client's own records go through logger.
func New(engine protocol.Engine, logger zerolog.Logger) *Client {
	return &Client{
		engine: engine,
		log:    logger.With().Str("component", "nmstate-client").Logger(),
		tracer: otel.Tracer("github.com/NetworkManager/nmstate/pkg/nmstate"),
	}
}

// releaseAll releases engine-owned buffers. Deferred by every operation
// so release happens on all exit paths, exactly once per buffer.
func releaseAll(bufs ...*protocol.Buffer) {
	for _, b := range bufs {
		b.Release()
	}
}

// RetrieveNetState reports the current network state as a serialized
// JSON document. Read-only; no transaction semantics.
func (c *Client) RetrieveNetState(ctx context.Context, opts RetrieveOptions) (string, error) {
	ctx, span := c.startSpan(ctx, "nmstate.retrieve", opts.flags())
	defer span.End()

	stateBuf, logsBuf, kindBuf, msgBuf, rc := c.engine.Retrieve(ctx, opts.flags())
	defer releaseAll(stateBuf, logsBuf, kindBuf, msgBuf)

	stateText := string(stateBuf.Bytes())
	c.bridgeLogs(logsBuf.Bytes())
	if rc != protocol.Pass {
		return "", c.fail(span, kindBuf, msgBuf)
	}
	return stateText, nil
}

// ApplyNetState applies a desired-state document. On success with
// NoCommit set, the returned Checkpoint identifies the pending
// transaction; otherwise the checkpoint is nil and the change is final.
// A failed apply leaves no caller-visible pending transaction.
func (c *Client) ApplyNetState(ctx context.Context, desired []byte, opts ApplyOptions) (*Checkpoint, error) {
	ctx, span := c.startSpan(ctx, "nmstate.apply", opts.flags())
	defer span.End()

	cpBuf, logsBuf, kindBuf, msgBuf, rc := c.engine.Apply(ctx, opts.flags(), desired, opts.rollbackTimeout())
	defer releaseAll(cpBuf, logsBuf, kindBuf, msgBuf)

	token := string(cpBuf.Bytes())
	c.bridgeLogs(logsBuf.Bytes())
	if rc != protocol.Pass {
		return nil, c.fail(span, kindBuf, msgBuf)
	}
	if !opts.NoCommit || token == "" {
		return nil, nil
	}
	span.SetAttributes(attribute.String("nmstate.checkpoint", token))
	return &Checkpoint{client: c, token: token, state: CheckpointPending}, nil
}

// CommitCheckpoint finalizes the pending transaction identified by an
// opaque checkpoint token. Committing a resolved or unknown token fails.
func (c *Client) CommitCheckpoint(ctx context.Context, token string) error {
	ctx, span := c.startSpan(ctx, "nmstate.checkpoint_commit", protocol.FlagNone)
	defer span.End()

	logsBuf, kindBuf, msgBuf, rc := c.engine.CommitCheckpoint(ctx, []byte(token))
	defer releaseAll(logsBuf, kindBuf, msgBuf)

	c.bridgeLogs(logsBuf.Bytes())
	if rc != protocol.Pass {
		return c.fail(span, kindBuf, msgBuf)
	}
	return nil
}

// RollbackCheckpoint undoes the pending transaction identified by an
// opaque checkpoint token. Rolling back a resolved or unknown token
// fails.
func (c *Client) RollbackCheckpoint(ctx context.Context, token string) error {
	ctx, span := c.startSpan(ctx, "nmstate.checkpoint_rollback", protocol.FlagNone)
	defer span.End()

	logsBuf, kindBuf, msgBuf, rc := c.engine.RollbackCheckpoint(ctx, []byte(token))
	defer releaseAll(logsBuf, kindBuf, msgBuf)

	c.bridgeLogs(logsBuf.Bytes())
	if rc != protocol.Pass {
		return c.fail(span, kindBuf, msgBuf)
	}
	return nil
}

// ConfigFile is one generated configuration artifact. On the wire it is a
// two-element array of name and content.
type ConfigFile struct {
	Name    string
	Content string
}

// UnmarshalJSON decodes the ["name", "content"] pair form.
func (f *ConfigFile) UnmarshalJSON(b []byte) error {
	var pair []string
	if err := json.Unmarshal(b, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("config file pair has %d elements, want 2", len(pair))
	}
	f.Name, f.Content = pair[0], pair[1]
	return nil
}

// MarshalJSON encodes the ["name", "content"] pair form.
func (f ConfigFile) MarshalJSON() ([]byte, error) {
	return json.Marshal([]string{f.Name, f.Content})
}

// GenerateConfigurations derives the persistent configuration artifacts
// that would realize the desired state, grouped by backend provider and
// ordered as the engine emits them. Live state is not touched; persisting
// the artifacts is the caller's business.
func (c *Client) GenerateConfigurations(ctx context.Context, desired []byte) (map[string][]ConfigFile, error) {
	ctx, span := c.startSpan(ctx, "nmstate.generate_configurations", protocol.FlagNone)
	defer span.End()

	cfgBuf, logsBuf, kindBuf, msgBuf, rc := c.engine.GenerateConfigurations(ctx, desired)
	defer releaseAll(cfgBuf, logsBuf, kindBuf, msgBuf)

	raw := bytes.Clone(cfgBuf.Bytes())
	c.bridgeLogs(logsBuf.Bytes())
	if rc != protocol.Pass {
		return nil, c.fail(span, kindBuf, msgBuf)
	}

	var configs map[string][]ConfigFile
	if err := json.Unmarshal(raw, &configs); err != nil {
		return nil, fmt.Errorf("failed to decode generated configurations: %w", err)
	}
	return configs, nil
}

// GenerateDifferences computes the state-shaped difference between two
// documents: the fields of newState that differ from oldState. Equal
// inputs yield an empty document. The engine emits no log batch for this
// operation.
func (c *Client) GenerateDifferences(ctx context.Context, newState, oldState []byte) ([]byte, error) {
	ctx, span := c.startSpan(ctx, "nmstate.generate_differences", protocol.FlagNone)
	defer span.End()

	diffBuf, kindBuf, msgBuf, rc := c.engine.GenerateDifferences(ctx, newState, oldState)
	defer releaseAll(diffBuf, kindBuf, msgBuf)

	diff := bytes.Clone(diffBuf.Bytes())
	if rc != protocol.Pass {
		return nil, c.fail(span, kindBuf, msgBuf)
	}
	return diff, nil
}

// NetStateFromPolicy derives a concrete desired state by resolving a
// policy document against the current state.
func (c *Client) NetStateFromPolicy(ctx context.Context, policy, current []byte) ([]byte, error) {
	ctx, span := c.startSpan(ctx, "nmstate.policy", protocol.FlagNone)
	defer span.End()

	stateBuf, logsBuf, kindBuf, msgBuf, rc := c.engine.PolicyNetState(ctx, policy, current)
	defer releaseAll(stateBuf, logsBuf, kindBuf, msgBuf)

	derived := bytes.Clone(stateBuf.Bytes())
	c.bridgeLogs(logsBuf.Bytes())
	if rc != protocol.Pass {
		return nil, c.fail(span, kindBuf, msgBuf)
	}
	return derived, nil
}

// FormatNetState renders a state document canonically. The document is
// encoded per encoding before crossing the boundary; the engine re-parses
// it and emits the canonical text. The engine emits no log batch for this
// operation.
func (c *Client) FormatNetState(ctx context.Context, doc any, encoding Encoding) (string, error) {
	ctx, span := c.startSpan(ctx, "nmstate.format", protocol.FlagNone)
	defer span.End()

	var encoded []byte
	var err error
	switch encoding {
	case EncodingYAML:
		encoded, err = yaml.Marshal(doc)
	case EncodingJSON:
		encoded, err = json.Marshal(doc)
	default:
		return "", &Error{Kind: KindInvalidArgument, Message: fmt.Sprintf("unknown encoding %q", encoding)}
	}
	if err != nil {
		return "", fmt.Errorf("failed to encode state document: %w", err)
	}

	fmtBuf, kindBuf, msgBuf, rc := c.engine.Format(ctx, encoded)
	defer releaseAll(fmtBuf, kindBuf, msgBuf)

	formatted := string(fmtBuf.Bytes())
	if rc != protocol.Pass {
		return "", c.fail(span, kindBuf, msgBuf)
	}
	return formatted, nil
}

// startSpan opens the per-call trace span carrying the encoded flag word.
func (c *Client) startSpan(ctx context.Context, name string, flags protocol.Flags) (context.Context, trace.Span) {
	return c.tracer.Start(ctx, name,
		trace.WithAttributes(attribute.Int64("nmstate.flags", int64(flags))))
}

// fail maps the engine's error buffers through the taxonomy and records
// the failure on the span. Callers must invoke it before their deferred
// releases run, which holds because defers run at return.
func (c *Client) fail(span trace.Span, kindBuf, msgBuf *protocol.Buffer) error {
	err := mapError(string(kindBuf.Bytes()), string(msgBuf.Bytes()))
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
