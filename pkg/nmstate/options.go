package nmstate

import "github.com/NetworkManager/nmstate/pkg/protocol"

// DefaultRollbackTimeout is the watchdog bound, in seconds, applied to an
// uncommitted transaction when ApplyOptions leaves RollbackTimeout zero.
const DefaultRollbackTimeout uint32 = 60

// RetrieveOptions selects what a state report contains. The zero value
// requests the default report: full state through the configuration
// management stack, no status data, secrets hidden.
type RetrieveOptions struct {
	// KernelOnly reports kernel-level state only, bypassing the
	// configuration-management stack.
	KernelOnly bool
	// IncludeStatusData includes runtime status sections in the report.
	IncludeStatusData bool
	// IncludeSecrets reports secrets in clear instead of the hidden
	// placeholder.
	IncludeSecrets bool
	// RunningConfigOnly excludes configuration learned at runtime (DHCP
	// addresses, autoconf, running resolver data).
	RunningConfigOnly bool
}

// flags encodes the option set into the wire flag word. Encoding is
// centralized here; flags are orthogonal, so the word is the OR of the
// selected bits and the zero value encodes to zero.
func (o RetrieveOptions) flags() protocol.Flags {
	f := protocol.FlagNone
	if o.KernelOnly {
		f |= protocol.FlagKernelOnly
	}
	if o.IncludeStatusData {
		f |= protocol.FlagIncludeStatusData
	}
	if o.IncludeSecrets {
		f |= protocol.FlagIncludeSecrets
	}
	if o.RunningConfigOnly {
		f |= protocol.FlagRunningConfigOnly
	}
	return f
}

// ApplyOptions controls the durability and safety behavior of an apply.
// Fields are phrased so the zero value gives every default safety
// behavior: verify the change, persist to disk, commit immediately.
type ApplyOptions struct {
	// KernelOnly applies kernel-level state only.
	KernelOnly bool
	// NoVerify skips the post-apply read-back and comparison against the
	// desired state.
	NoVerify bool
	// MemoryOnly applies the change without persisting it across reboot.
	MemoryOnly bool
	// NoCommit leaves the transaction pending; ApplyNetState then returns
	// a Checkpoint the caller must resolve.
	NoCommit bool
	// RollbackTimeout bounds, in seconds, how long the pending
	// transaction may exist before the engine rolls it back on its own.
	// Only meaningful with NoCommit; zero selects
	// DefaultRollbackTimeout. It does not bound the apply call itself.
	RollbackTimeout uint32
}

// flags encodes the option set into the wire flag word.
func (o ApplyOptions) flags() protocol.Flags {
	f := protocol.FlagNone
	if o.KernelOnly {
		f |= protocol.FlagKernelOnly
	}
	if o.NoVerify {
		f |= protocol.FlagNoVerify
	}
	if o.NoCommit {
		f |= protocol.FlagNoCommit
	}
	if o.MemoryOnly {
		f |= protocol.FlagMemoryOnly
	}
	return f
}

// rollbackTimeout returns the effective watchdog bound for this apply.
func (o ApplyOptions) rollbackTimeout() uint32 {
	if o.RollbackTimeout == 0 {
		return DefaultRollbackTimeout
	}
	return o.RollbackTimeout
}

// Encoding selects the text encoding of a state document crossing the
// boundary.
type Encoding string

const (
	// EncodingYAML encodes the document as YAML.
	EncodingYAML Encoding = "yaml"
	// EncodingJSON encodes the document as JSON.
	EncodingJSON Encoding = "json"
)
