// Package engine implements the in-process network state engine behind
// the protocol boundary. It keeps the current state document, realizes
// desired-state applies with post-apply verification and snapshot
// rollback, journals no-commit transactions with a rollback-timeout
// watchdog, and serves the read-only operations (retrieve, diff,
// format, configuration generation, policy resolution).
//
// The engine owns every buffer it returns; callers release them through
// protocol.Buffer. OutstandingBuffers exposes the allocation balance so
// tests can assert nothing leaks.
package engine
