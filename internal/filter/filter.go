// Package filter implements a small composition algebra for transformation
// stages: typed filters, sequencers that chain them, multiplexers that fan an
// input out to several filters concurrently, and demultiplexers that reduce
// the surviving candidates to one result.
package filter

import (
	"context"
	"fmt"
	"reflect"
)

// Filter is the atomic transformation unit. Supports must be a pure predicate
// and Execute must not depend on earlier calls.
type Filter interface {
	ID() string
	Supports(input any) bool
	Execute(ctx context.Context, input any) (any, error)
}

// Typed adapts a statically typed function pair to the Filter interface.
type Typed[In, Out any] struct {
	id       string
	supports func(In) bool
	exec     func(context.Context, In) (Out, error)
}

// New creates a typed filter. A nil supports function accepts every input of
// type In.
func New[In, Out any](id string, supports func(In) bool, exec func(context.Context, In) (Out, error)) *Typed[In, Out] {
	return &Typed[In, Out]{id: id, supports: supports, exec: exec}
}

// ID returns the filter identifier.
func (f *Typed[In, Out]) ID() string {
	return f.id
}

// Supports reports whether input has type In and passes the predicate.
func (f *Typed[In, Out]) Supports(input any) bool {
	in, ok := input.(In)
	if !ok {
		return false
	}
	return f.supports == nil || f.supports(in)
}

// Execute runs the filter. Input the filter does not support is rejected with
// an UnsupportedInputError; a nil output is reported as an ExecutionError.
func (f *Typed[In, Out]) Execute(ctx context.Context, input any) (any, error) {
	in, ok := input.(In)
	if !ok || (f.supports != nil && !f.supports(in)) {
		return nil, &UnsupportedInputError{FilterID: f.id, InputType: fmt.Sprintf("%T", input)}
	}

	out, err := f.exec(ctx, in)
	if err != nil {
		return nil, Attribute(f.id, err)
	}
	if isNil(out) {
		return nil, &ExecutionError{FilterID: f.id, Err: ErrNoOutput}
	}
	return out, nil
}

// isNil reports whether v is nil or a typed nil pointer, map, slice or interface.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
