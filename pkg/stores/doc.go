// Package stores persists the engine's durable state in SQLite: the
// current network state document (the save-to-disk semantics of an apply)
// and the checkpoint journal of pending transactions, which lets an
// engine restart observe and expire transactions left behind by a crashed
// caller.
package stores
