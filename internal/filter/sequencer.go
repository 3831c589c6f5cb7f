package filter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// Sequencer chains filters so that each output feeds the next filter. It
// stops at the first failure.
type Sequencer struct {
	id      string
	filters []Filter
	logger  *slog.Logger
}

// NewSequencer creates a sequencer over filters, run in the given order.
func NewSequencer(id string, filters ...Filter) *Sequencer {
	return &Sequencer{
		id:      id,
		filters: filters,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithLogger sets the logger used for step tracing.
func (s *Sequencer) WithLogger(logger *slog.Logger) *Sequencer {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// ID returns the sequencer identifier.
func (s *Sequencer) ID() string {
	return s.id
}

// Filters returns the chained filters in order.
func (s *Sequencer) Filters() []Filter {
	return append([]Filter(nil), s.filters...)
}

// Supports reports whether the first filter supports input.
func (s *Sequencer) Supports(input any) bool {
	return len(s.filters) > 0 && s.filters[0].Supports(input)
}

// Execute runs each filter in turn. A failing step, a nil output or an
// intermediate value the next step does not support ends the sequence, with
// the error attributed to that step's filter.
func (s *Sequencer) Execute(ctx context.Context, input any) (any, error) {
	if len(s.filters) == 0 {
		return nil, &ExecutionError{FilterID: s.id, Err: fmt.Errorf("empty sequence")}
	}

	current := input
	for _, f := range s.filters {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("sequence %s cancelled: %w", s.id, err)
		}
		if !f.Supports(current) {
			return nil, &UnsupportedInputError{FilterID: f.ID(), InputType: fmt.Sprintf("%T", current)}
		}

		out, err := f.Execute(ctx, current)
		if err != nil {
			s.logger.Debug("sequence step failed", "sequence", s.id, "filter", f.ID(), "error", err)
			return nil, Attribute(f.ID(), err)
		}
		if isNil(out) {
			return nil, &ExecutionError{FilterID: f.ID(), Err: ErrNoOutput}
		}
		current = out
	}
	return current, nil
}
