package taskgroup

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration indicates an invalid or duplicate group definition
	ErrConfiguration = errors.New("taskgroup: configuration error")

	// ErrUnknownGroup indicates an operation on a group that was never defined
	ErrUnknownGroup = errors.New("taskgroup: unknown group")
)

// TaskExecutionError describes one failed task firing. It is handed to the
// Observer and never returned to Start/Stop callers.
type TaskExecutionError struct {
	Group    string
	Task     string
	Index    int
	Err      error
	Panicked bool
}

func (e *TaskExecutionError) Error() string {
	kind := "failed"
	if e.Panicked {
		kind = "panicked"
	}
	name := e.Task
	if name == "" {
		name = fmt.Sprintf("#%d", e.Index)
	}
	return fmt.Sprintf("taskgroup: task %s in group %q %s: %v", name, e.Group, kind, e.Err)
}

func (e *TaskExecutionError) Unwrap() error {
	return e.Err
}
