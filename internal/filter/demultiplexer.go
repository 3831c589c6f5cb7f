package filter

import (
	"context"
	"fmt"
)

// Reducer turns the first usable candidate into the stage result. It also
// receives the whole multiplexer output so the result can retain the other
// candidates and the collected errors.
type Reducer func(first Candidate, out *MuxOutput) (any, error)

// Demultiplexer reduces a *MuxOutput to one result. The first candidate in
// registration order wins; candidates are never merged.
type Demultiplexer struct {
	id     string
	stage  string
	reduce Reducer
}

// NewDemultiplexer creates a demultiplexer. stage names the pipeline stage in
// NoCandidateError messages. A nil reducer returns the first output as is.
func NewDemultiplexer(id, stage string, reduce Reducer) *Demultiplexer {
	if reduce == nil {
		reduce = func(first Candidate, _ *MuxOutput) (any, error) {
			return first.Output, nil
		}
	}
	return &Demultiplexer{id: id, stage: stage, reduce: reduce}
}

// ID returns the demultiplexer identifier.
func (d *Demultiplexer) ID() string {
	return d.id
}

// Supports reports whether input is a multiplexer output.
func (d *Demultiplexer) Supports(input any) bool {
	out, ok := input.(*MuxOutput)
	return ok && out != nil
}

// Execute fails with a NoCandidateError carrying the multiplexer errors when
// there is no candidate, and otherwise applies the reducer.
func (d *Demultiplexer) Execute(_ context.Context, input any) (any, error) {
	out, ok := input.(*MuxOutput)
	if !ok || out == nil {
		return nil, &UnsupportedInputError{FilterID: d.id, InputType: fmt.Sprintf("%T", input)}
	}
	if len(out.Candidates) == 0 {
		return nil, &NoCandidateError{Stage: d.stage, Errors: append(Errors(nil), out.Errors...)}
	}

	result, err := d.reduce(out.Candidates[0], out)
	if err != nil {
		return nil, Attribute(d.id, err)
	}
	if isNil(result) {
		return nil, &ExecutionError{FilterID: d.id, Err: ErrNoOutput}
	}
	return result, nil
}

// Network builds the shared stage shape: a sequencer that feeds the
// multiplexer output into the demultiplexer. The result is itself a Filter.
func Network(id string, mux *Multiplexer, demux *Demultiplexer) *Sequencer {
	return NewSequencer(id, mux, demux)
}
