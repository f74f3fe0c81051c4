// Package nmstate is the caller-facing client for the network state
// engine. It wraps every engine entry point in a single calling
// convention: encode the request, invoke the engine, copy the outputs,
// release every engine-owned buffer on every exit path, bridge the
// engine's log batch into the caller's logger, and map failures into the
// closed error taxonomy.
//
// The transactional core is ApplyNetState: with ApplyOptions.NoCommit a
// successful apply returns a Checkpoint identifying the pending
// transaction, which the caller must resolve with Commit or Rollback
// before the engine's rollback watchdog resolves it to a rollback on its
// own.
package nmstate
