package tools

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownTool indicates a call to a name not in the registry
	ErrUnknownTool = errors.New("unknown tool")

	// ErrInvalidArguments indicates malformed JSON or a schema violation
	ErrInvalidArguments = errors.New("invalid tool arguments")

	// ErrToolFailed indicates the tool function itself returned an error
	ErrToolFailed = errors.New("tool execution failed")
)

// ExecutionError wraps a failed tool call. Kind is one of the sentinels above.
type ExecutionError struct {
	Tool string
	Kind error
	Err  error
}

func (e *ExecutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tool %s: %v: %v", e.Tool, e.Kind, e.Err)
	}
	return fmt.Sprintf("tool %s: %v", e.Tool, e.Kind)
}

func (e *ExecutionError) Unwrap() error {
	return e.Kind
}
