package filter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNoOutput is wrapped by an ExecutionError when a filter returns nothing.
var ErrNoOutput = errors.New("filter produced no output")

// UnsupportedInputError is returned when a filter is asked to process input it
// does not support. Multiplexers skip such filters instead of calling them.
type UnsupportedInputError struct {
	FilterID  string
	InputType string
}

func (e *UnsupportedInputError) Error() string {
	return fmt.Sprintf("filter %s does not support input of type %s", e.FilterID, e.InputType)
}

// ExecutionError is returned when a filter ran but failed.
type ExecutionError struct {
	FilterID string
	Err      error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("filter %s failed: %v", e.FilterID, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// TimeoutError is returned when a filter did not finish within its deadline.
type TimeoutError struct {
	FilterID string
	Timeout  time.Duration
}

func (e *TimeoutError) Error() string {
	if e.Timeout > 0 {
		return fmt.Sprintf("filter %s timed out after %s", e.FilterID, e.Timeout)
	}
	return fmt.Sprintf("filter %s timed out", e.FilterID)
}

func (e *TimeoutError) Unwrap() error {
	return context.DeadlineExceeded
}

// NetworkError is returned when a filter could not reach its remote service.
type NetworkError struct {
	FilterID string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("filter %s network error: %v", e.FilterID, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NoCandidateError is returned when a whole stage produced no usable output.
// Errors holds the per-filter failures collected by the stage.
type NoCandidateError struct {
	Stage  string
	Errors Errors
}

func (e *NoCandidateError) Error() string {
	msg := fmt.Sprintf("%s: no candidate produced", e.Stage)
	if len(e.Errors) > 0 {
		msg += " (" + e.Errors.Error() + ")"
	}
	return msg
}

func (e *NoCandidateError) Unwrap() []error {
	return e.Errors
}

// Errors is a list of per-filter errors collected by a stage.
type Errors []error

func (es Errors) Error() string {
	msgs := make([]string, len(es))
	for i, err := range es {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// ForFilter returns the errors attributed to the filter with the given id.
func (es Errors) ForFilter(id string) []error {
	var out []error
	for _, err := range es {
		if FilterIDOf(err) == id {
			out = append(out, err)
		}
	}
	return out
}

// Strings returns the error messages.
func (es Errors) Strings() []string {
	out := make([]string, len(es))
	for i, err := range es {
		out[i] = err.Error()
	}
	return out
}

// FilterIDOf returns the filter an error is attributed to, or "".
func FilterIDOf(err error) string {
	var (
		unsupported *UnsupportedInputError
		execErr     *ExecutionError
		timeout     *TimeoutError
		network     *NetworkError
	)
	switch {
	case errors.As(err, &unsupported):
		return unsupported.FilterID
	case errors.As(err, &timeout):
		return timeout.FilterID
	case errors.As(err, &network):
		return network.FilterID
	case errors.As(err, &execErr):
		return execErr.FilterID
	}
	return ""
}

// Attribute maps err to the filter with the given id. Errors that already
// carry a filter identity, stage errors and context errors are returned
// unchanged; anything else becomes an ExecutionError.
func Attribute(id string, err error) error {
	if err == nil {
		return nil
	}
	var noCandidate *NoCandidateError
	if FilterIDOf(err) != "" || errors.As(err, &noCandidate) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &ExecutionError{FilterID: id, Err: err}
}

// IsTimeout reports whether err is a TimeoutError.
func IsTimeout(err error) bool {
	var t *TimeoutError
	return errors.As(err, &t)
}

// IsNoCandidate reports whether err is a NoCandidateError.
func IsNoCandidate(err error) bool {
	var nc *NoCandidateError
	return errors.As(err, &nc)
}
