package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyCommand is reported for a stage with no words, e.g. "a || b".
var ErrEmptyCommand = errors.New("empty command")

// UnknownCommandError is reported when a stage names no registered
// capability.
type UnknownCommandError struct {
	Name string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command: %q", e.Name)
}

// StageError is a validation failure of the stage at Index (zero-based).
type StageError struct {
	Index int
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %d: %v", e.Index+1, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// CommandErrors carries the lines running capabilities reported on the
// shared error channel, in arrival order.
type CommandErrors struct {
	Messages []string
}

func (e *CommandErrors) Error() string {
	return strings.Join(e.Messages, "; ")
}

// Messages flattens a pipeline failure into the lines shown to a user.
func Messages(err error) []string {
	if err == nil {
		return nil
	}
	var ce *CommandErrors
	if errors.As(err, &ce) {
		return ce.Messages
	}
	return []string{err.Error()}
}
