// Package protocol defines the boundary contract between callers and the
// network state engine: the flag word layout, the call status code, the
// engine-owned output buffers, and the structured log batch format.
//
// The contract follows a uniform calling convention: inputs cross the
// boundary as encoded text plus a flags word, outputs come back as a tuple
// of buffers (primary result, log batch, error kind, error message) plus a
// status code where zero means success. Every output buffer is owned by the
// engine until the caller releases it.
package protocol

import (
	"encoding/json"
	"fmt"
)

// Flags is the bitmask of per-call options. Flags are orthogonal and
// additive; an unset flag preserves the engine's default behavior
// (verify, persist, commit, full state, no secrets).
type Flags uint32

const (
	// FlagNone requests the default behavior for every option.
	FlagNone Flags = 0
	// FlagKernelOnly restricts the operation to kernel-level network state,
	// bypassing the configuration-management stack.
	FlagKernelOnly Flags = 1 << 1
	// FlagNoVerify skips the post-apply read-back and comparison against
	// the desired state.
	FlagNoVerify Flags = 1 << 2
	// FlagIncludeStatusData includes runtime status sections in a
	// retrieved state report.
	FlagIncludeStatusData Flags = 1 << 3
	// FlagIncludeSecrets includes secrets (passwords, keys) in a retrieved
	// state report instead of the hidden placeholder.
	FlagIncludeSecrets Flags = 1 << 4
	// FlagNoCommit leaves the applied state as a pending transaction
	// identified by a checkpoint instead of finalizing it.
	FlagNoCommit Flags = 1 << 5
	// FlagMemoryOnly applies changes without persisting them across
	// reboot.
	FlagMemoryOnly Flags = 1 << 6
	// FlagRunningConfigOnly reports only the activated configuration,
	// excluding addresses and resolver data learned via DHCP or IPv6
	// autoconfiguration.
	FlagRunningConfigOnly Flags = 1 << 7
)

// Has reports whether every bit of f2 is set in f.
func (f Flags) Has(f2 Flags) bool {
	return f&f2 == f2
}

// Code is the status code of an engine call.
type Code int32

const (
	// Pass indicates the call succeeded.
	Pass Code = 0
	// Fail indicates the call failed; the error kind and message buffers
	// carry the details.
	Fail Code = 1
)

// LogLevel is the severity of one engine log record.
type LogLevel string

const (
	LogLevelError LogLevel = "ERROR"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelTrace LogLevel = "TRACE"
)

// LogEntry is one structured log record emitted by the engine during a
// call. A log batch is a JSON array of entries scoped to a single call.
type LogEntry struct {
	// Time is the RFC 3339 timestamp of the record.
	Time string `json:"time"`
	// Level is the record severity; unknown levels are treated as debug
	// by bridges.
	Level LogLevel `json:"level"`
	// File names the engine component that produced the record.
	File string `json:"file"`
	// Msg is the record message.
	Msg string `json:"msg"`
}

// EncodeLogBatch serializes a call-scoped sequence of log entries into the
// wire form carried by the log buffer.
func EncodeLogBatch(entries []LogEntry) ([]byte, error) {
	if entries == nil {
		entries = []LogEntry{}
	}
	b, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("failed to encode log batch: %w", err)
	}
	return b, nil
}

// DecodeLogBatch parses a log buffer back into entries. Log delivery is
// best effort: a nil, empty, or malformed payload decodes to no entries
// and no error, so a broken batch can never mask a primary result.
func DecodeLogBatch(b []byte) []LogEntry {
	if len(b) == 0 {
		return nil
	}
	var entries []LogEntry
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil
	}
	return entries
}
