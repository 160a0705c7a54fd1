package runner

import (
	"errors"
	"fmt"
)

var (
	// ErrUpstream marks a failed call to the chat or embedding API.
	ErrUpstream = errors.New("upstream model call failed")

	// ErrLoopLimitExceeded is returned when the model keeps requesting tools
	// past MaxIterations.
	ErrLoopLimitExceeded = errors.New("tool-call loop limit exceeded")

	// ErrWindowOverBudget is returned when no window opening with a user
	// message fits TokenBudget, including when the newest group alone exceeds it.
	ErrWindowOverBudget = errors.New("newest message group exceeds token budget")
)

// InvocationError wraps an upstream failure with the stage it happened in.
type InvocationError struct {
	Stage string
	Err   error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Stage, ErrUpstream, e.Err)
}

func (e *InvocationError) Unwrap() []error {
	return []error{ErrUpstream, e.Err}
}

// LoopLimitError reports how many model calls were made before giving up.
type LoopLimitError struct {
	Limit int
}

func (e *LoopLimitError) Error() string {
	return fmt.Sprintf("%v after %d model calls", ErrLoopLimitExceeded, e.Limit)
}

func (e *LoopLimitError) Unwrap() error {
	return ErrLoopLimitExceeded
}
