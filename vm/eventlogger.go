package vm

import "log"

// EventLogger is a hook that writes a human-readable line for every
// outcome the engine emits.
type EventLogger struct {
	Logger *log.Logger
}

// NewEventLogger returns a new EventLogger which will write into the
// given logger.
func NewEventLogger(logger *log.Logger) *EventLogger {
	return &EventLogger{Logger: logger}
}

// Func writes the outcome information into the logger.
func (l *EventLogger) Func(ctx HookCtx) {
	if ctx.Pos != HookPosOutcome {
		return
	}

	evt, ok := ctx.Item.(OutcomeEvent)
	if !ok {
		return
	}

	l.Logger.Printf("%s", evt)
}
