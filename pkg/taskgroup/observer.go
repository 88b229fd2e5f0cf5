package taskgroup

import (
	"github.com/rs/zerolog"
)

// Observer receives task failures. Implementations must be safe for
// concurrent use and should return quickly; they run on the firing path.
type Observer interface {
	TaskFailed(err *TaskExecutionError)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(err *TaskExecutionError)

// TaskFailed implements Observer.
func (f ObserverFunc) TaskFailed(err *TaskExecutionError) {
	f(err)
}

// LogObserver writes task failures to a zerolog logger.
type LogObserver struct {
	Logger zerolog.Logger
}

// TaskFailed implements Observer.
func (o LogObserver) TaskFailed(err *TaskExecutionError) {
	o.Logger.Warn().
		Err(err.Err).
		Str("group", err.Group).
		Str("task", err.Task).
		Int("index", err.Index).
		Bool("panicked", err.Panicked).
		Msg("Task failed")
}
