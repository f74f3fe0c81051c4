package nmstate

import (
	"github.com/rs/zerolog"

	"github.com/NetworkManager/nmstate/pkg/protocol"
)

// bridgeLogs re-emits the engine's call-scoped log batch through the
// client's logger, preserving level, timestamp, and origin. Delivery is
// best effort: a missing or malformed batch bridges as no logs and never
// surfaces as an error, so log decoding can never mask the primary
// result of a call.
func (c *Client) bridgeLogs(batch []byte) {
	for _, entry := range protocol.DecodeLogBatch(batch) {
		c.log.WithLevel(bridgeLevel(entry.Level)).
			Str("origin", entry.File).
			Str("engine_time", entry.Time).
			Msg(entry.Msg)
	}
}

// bridgeLevel classifies an engine log level; anything unrecognized
// bridges as debug.
func bridgeLevel(level protocol.LogLevel) zerolog.Level {
	switch level {
	case protocol.LogLevelError:
		return zerolog.ErrorLevel
	case protocol.LogLevelWarn:
		return zerolog.WarnLevel
	case protocol.LogLevelInfo:
		return zerolog.InfoLevel
	default:
		return zerolog.DebugLevel
	}
}
