package filter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultTimeout bounds each sub-filter call of a multiplexer.
	DefaultTimeout = 20 * time.Second

	// DefaultConcurrency is the semaphore size for parallel sub-filter calls.
	DefaultConcurrency = 8
)

// Candidate is one successful sub-filter output.
type Candidate struct {
	FilterID string
	Output   any
}

// MuxOutput is the result of a multiplexer run. Candidates are ordered by
// filter registration, not by completion time.
type MuxOutput struct {
	Input      any
	Candidates []Candidate
	Errors     Errors
}

// Multiplexer fans one input out to every registered filter that supports it.
// Sub-filters run concurrently, each under its own timeout; a failing
// sub-filter contributes an error without affecting its siblings.
type Multiplexer struct {
	id          string
	filters     []Filter
	timeout     time.Duration
	concurrency int
	logger      *slog.Logger
}

// MuxOption configures a Multiplexer.
type MuxOption func(*Multiplexer)

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) MuxOption {
	return func(m *Multiplexer) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithConcurrency bounds the number of sub-filters running at once.
func WithConcurrency(n int) MuxOption {
	return func(m *Multiplexer) {
		if n > 0 {
			m.concurrency = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) MuxOption {
	return func(m *Multiplexer) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewMultiplexer creates a multiplexer over filters, in registration order.
func NewMultiplexer(id string, filters []Filter, opts ...MuxOption) *Multiplexer {
	m := &Multiplexer{
		id:          id,
		filters:     append([]Filter(nil), filters...),
		timeout:     DefaultTimeout,
		concurrency: DefaultConcurrency,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ID returns the multiplexer identifier.
func (m *Multiplexer) ID() string {
	return m.id
}

// Filters returns the registered sub-filters.
func (m *Multiplexer) Filters() []Filter {
	return append([]Filter(nil), m.filters...)
}

// Supports reports whether at least one sub-filter supports input.
func (m *Multiplexer) Supports(input any) bool {
	for _, f := range m.filters {
		if f.Supports(input) {
			return true
		}
	}
	return false
}

// callResult holds the outcome of one sub-filter call.
type callResult struct {
	output any
	err    error
}

// Execute runs every supporting sub-filter and returns a *MuxOutput. If ctx
// is cancelled, in-flight calls are cancelled, completed candidates are
// discarded and the context error is returned.
func (m *Multiplexer) Execute(ctx context.Context, input any) (any, error) {
	var active []Filter
	for _, f := range m.filters {
		if f.Supports(input) {
			active = append(active, f)
		} else {
			m.logger.Debug("skipping unsupported filter", "mux", m.id, "filter", f.ID())
		}
	}

	results := make([]callResult, len(active))
	var wg sync.WaitGroup
	sem := make(chan struct{}, m.concurrency)

	for i, f := range active {
		wg.Add(1)
		go func(i int, f Filter) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				results[i] = callResult{err: ctx.Err()}
				return
			}
			defer func() { <-sem }()
			results[i] = m.call(ctx, f, input)
		}(i, f)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("multiplexer %s cancelled: %w", m.id, err)
	}

	out := &MuxOutput{Input: input}
	for i, r := range results {
		if r.err != nil {
			out.Errors = append(out.Errors, r.err)
			continue
		}
		out.Candidates = append(out.Candidates, Candidate{FilterID: active[i].ID(), Output: r.output})
	}
	m.logger.Debug("multiplexer finished", "mux", m.id,
		"candidates", len(out.Candidates), "errors", len(out.Errors), "skipped", len(m.filters)-len(active))
	return out, nil
}

// call runs one sub-filter under its own deadline. The call is abandoned when
// the deadline passes even if the filter ignores its context.
func (m *Multiplexer) call(ctx context.Context, f Filter, input any) callResult {
	callCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	start := time.Now()
	done := make(chan callResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- callResult{err: &ExecutionError{FilterID: f.ID(), Err: fmt.Errorf("panic: %v", r)}}
			}
		}()
		out, err := f.Execute(callCtx, input)
		done <- callResult{output: out, err: err}
	}()

	var r callResult
	select {
	case r = <-done:
	case <-callCtx.Done():
		r = callResult{err: callCtx.Err()}
	}

	switch {
	case r.err != nil && ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded):
		r.err = &TimeoutError{FilterID: f.ID(), Timeout: m.timeout}
	case r.err != nil:
		r.err = Attribute(f.ID(), r.err)
	case isNil(r.output):
		r.err = &ExecutionError{FilterID: f.ID(), Err: ErrNoOutput}
	}

	if r.err != nil {
		m.logger.Debug("sub-filter failed", "mux", m.id, "filter", f.ID(),
			"elapsed", time.Since(start), "error", r.err)
	} else {
		m.logger.Debug("sub-filter succeeded", "mux", m.id, "filter", f.ID(), "elapsed", time.Since(start))
	}
	return r
}
