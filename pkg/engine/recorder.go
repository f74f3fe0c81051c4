package engine

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/NetworkManager/nmstate/pkg/protocol"
)

// recorder accumulates the call-scoped log batch while teeing every
// record to the engine's structured logger.
type recorder struct {
	engine  *Engine
	origin  string
	log     zerolog.Logger
	entries []protocol.LogEntry
}

// newRecorder starts the log batch of one call. origin names the engine
// component in every record.
func (e *Engine) newRecorder(origin string) *recorder {
	return &recorder{
		engine: e,
		origin: origin,
		log:    e.log.With().Str("operation", origin).Logger(),
	}
}

func (r *recorder) entry(level protocol.LogLevel, msg string) {
	r.entries = append(r.entries, protocol.LogEntry{
		Time:  r.engine.now().UTC().Format(time.RFC3339),
		Level: level,
		File:  r.origin,
		Msg:   msg,
	})
	r.log.WithLevel(teeLevel(level)).Msg(msg)
}

func (r *recorder) Debugf(format string, args ...any) {
	r.entry(protocol.LogLevelDebug, fmt.Sprintf(format, args...))
}

func (r *recorder) Infof(format string, args ...any) {
	r.entry(protocol.LogLevelInfo, fmt.Sprintf(format, args...))
}

func (r *recorder) Warnf(format string, args ...any) {
	r.entry(protocol.LogLevelWarn, fmt.Sprintf(format, args...))
}

// batch encodes the accumulated entries into an engine-owned buffer.
func (r *recorder) batch() *protocol.Buffer {
	b, err := protocol.EncodeLogBatch(r.entries)
	if err != nil {
		return r.engine.newBuffer([]byte("[]"))
	}
	return r.engine.newBuffer(b)
}

func teeLevel(level protocol.LogLevel) zerolog.Level {
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
