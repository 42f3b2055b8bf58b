package utils

// ProgressFunc receives progress notifications from long-running workflow
// stages. Implementations may write to a terminal, a websocket, anywhere.
type ProgressFunc func(level, message string)

// ProgressSink wraps a ProgressFunc so callers can emit without nil checks.
// Sink failures never propagate back into the workflow.
type ProgressSink struct {
	fn ProgressFunc
}

// NewProgressSink returns a sink around fn. A nil fn yields a no-op sink.
func NewProgressSink(fn ProgressFunc) *ProgressSink {
	return &ProgressSink{fn: fn}
}

// Emit delivers a progress message. Panics inside the callback are
// swallowed so a broken sink cannot take down a run.
func (s *ProgressSink) Emit(level, message string) {
	if s == nil || s.fn == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	s.fn(level, message)
}

// Info emits at the info level.
func (s *ProgressSink) Info(message string) { s.Emit("info", message) }

// Warn emits at the warning level.
func (s *ProgressSink) Warn(message string) { s.Emit("warning", message) }
