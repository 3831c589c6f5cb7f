package citation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/matsen/citeflow/internal/conflict"
	"github.com/matsen/citeflow/internal/filter"
	"github.com/matsen/citeflow/internal/metadata"
)

// Stage names used in NoCandidateError.
const (
	StageParse  = "parse"
	StageLookup = "lookup"
)

var (
	// ErrAlreadyParsed is returned by Parse for citations at or past Parsed.
	ErrAlreadyParsed = errors.New("citation is already parsed")

	// ErrNoRepository is returned by operations that need persistence when
	// the processor has no repository.
	ErrNoRepository = errors.New("no citation repository configured")

	// ErrUnknownSource is returned when a source description is not found.
	ErrUnknownSource = errors.New("no source description from that filter")
)

// Processor moves citations through the parse and lookup stages.
type Processor struct {
	parsers     []filter.Filter
	lookups     []filter.Filter
	repo        Repository
	timeout     time.Duration
	concurrency int
	logger      *slog.Logger
	newID       func() string
}

// Option configures a Processor.
type Option func(*Processor)

// WithParsers registers the parse stage filters, in priority order.
func WithParsers(filters ...filter.Filter) Option {
	return func(p *Processor) {
		p.parsers = append(p.parsers, filters...)
	}
}

// WithLookups registers the lookup stage filters, in priority order.
func WithLookups(filters ...filter.Filter) Option {
	return func(p *Processor) {
		p.lookups = append(p.lookups, filters...)
	}
}

// WithRepository sets the persistence collaborator.
func WithRepository(repo Repository) Option {
	return func(p *Processor) {
		p.repo = repo
	}
}

// WithTimeout sets the per-filter timeout of both stages.
func WithTimeout(d time.Duration) Option {
	return func(p *Processor) {
		p.timeout = d
	}
}

// WithConcurrency bounds parallel filter calls within a stage.
func WithConcurrency(n int) Option {
	return func(p *Processor) {
		p.concurrency = n
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithIDGenerator overrides the citation id generator used by Import.
func WithIDGenerator(gen func() string) Option {
	return func(p *Processor) {
		if gen != nil {
			p.newID = gen
		}
	}
}

// NewProcessor creates a processor.
func NewProcessor(opts ...Option) *Processor {
	p := &Processor{
		timeout:     filter.DefaultTimeout,
		concurrency: filter.DefaultConcurrency,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Processor) muxOptions() []filter.MuxOption {
	return []filter.MuxOption{
		filter.WithTimeout(p.timeout),
		filter.WithConcurrency(p.concurrency),
		filter.WithLogger(p.logger),
	}
}

// ParseNetwork builds the parse stage for c.
func (p *Processor) ParseNetwork(c Citation) *filter.Sequencer {
	return filter.Network("parse",
		filter.NewMultiplexer("parsers", p.parsers, p.muxOptions()...),
		filter.NewDemultiplexer("parse-demux", StageParse, anchor(c)),
	).WithLogger(p.logger)
}

// LookupNetwork builds the lookup stage for c.
func (p *Processor) LookupNetwork(c Citation) *filter.Sequencer {
	return filter.Network("lookup",
		filter.NewMultiplexer("lookups", p.lookups, p.muxOptions()...),
		filter.NewDemultiplexer("lookup-demux", StageLookup, anchor(c)),
	).WithLogger(p.logger)
}

// anchor returns the reducer shared by both stages: the first candidate
// becomes the working description of a copy of orig, and every candidate is
// retained as a source description. The state is left to the caller.
func anchor(orig Citation) filter.Reducer {
	return func(first filter.Candidate, out *filter.MuxOutput) (any, error) {
		desc, ok := first.Output.(*metadata.Description)
		if !ok {
			return nil, fmt.Errorf("candidate from %s is %T, not a description", first.FilterID, first.Output)
		}

		next := orig.Clone()
		next.Description = desc.Clone()
		next.Description.AssocKind = AssocKind
		next.Description.AssocID = orig.ID

		next.SourceDescriptions = make([]*metadata.Description, 0, len(out.Candidates))
		for _, cand := range out.Candidates {
			d, ok := cand.Output.(*metadata.Description)
			if !ok {
				continue
			}
			src := d.Clone()
			src.AssocKind = SourceAssocKind
			src.AssocID = cand.FilterID
			next.SourceDescriptions = append(next.SourceDescriptions, src)
		}
		next.Errors = out.Errors.Strings()
		return next, nil
	}
}

// Parse runs the parse stage on a citation that has not been parsed yet. On
// success the returned citation is Parsed; otherwise the original is returned
// with error annotations and the stage error.
func (p *Processor) Parse(ctx context.Context, c Citation) (Citation, error) {
	if c.State >= Parsed {
		return c, ErrAlreadyParsed
	}
	text := strings.TrimSpace(c.Text())
	if text == "" {
		return p.fail(c, StageParse, &filter.NoCandidateError{Stage: StageParse})
	}
	return p.runStage(ctx, c, p.ParseNetwork(c), text, StageParse, Parsed)
}

// Lookup runs the lookup stage regardless of the current state. Only lookup
// filters that support the current description take part. On success the
// returned citation is LookedUp and its candidates are persisted; otherwise
// the original is returned with error annotations and the stage error.
func (p *Processor) Lookup(ctx context.Context, c Citation) (Citation, error) {
	input := c.Description.Clone()
	if input == nil {
		input = metadata.NewCitationDescription()
	}

	next, err := p.runStage(ctx, c, p.LookupNetwork(c), input, StageLookup, LookedUp)
	if err != nil {
		return next, err
	}

	if p.repo != nil {
		if perr := p.repo.PersistIntermediateResults(next, next.SourceDescriptions); perr != nil {
			p.logger.Warn("persisting lookup candidates failed", "citation", c.ID, "error", perr)
			next.Errors = append(next.Errors, fmt.Sprintf("persisting candidates: %v", perr))
		}
	}
	return next, nil
}

func (p *Processor) runStage(ctx context.Context, c Citation, net *filter.Sequencer, input any, stage string, to State) (Citation, error) {
	if !net.Supports(input) {
		return p.fail(c, stage, &filter.NoCandidateError{Stage: stage})
	}

	out, err := net.Execute(ctx, input)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return c, ctxErr
		}
		return p.fail(c, stage, err)
	}

	next, ok := out.(Citation)
	if !ok {
		return p.fail(c, stage, fmt.Errorf("%s stage returned %T", stage, out))
	}
	next.State = c.State.Advance(to)
	p.logger.Info("citation stage succeeded", "citation", c.ID, "stage", stage,
		"state", next.State, "candidates", len(next.SourceDescriptions), "errors", len(next.Errors))
	return next, nil
}

// fail returns c unchanged apart from its error annotations.
func (p *Processor) fail(c Citation, stage string, err error) (Citation, error) {
	p.logger.Warn("citation stage failed", "citation", c.ID, "stage", stage, "error", err)

	out := c.Clone()
	var nc *filter.NoCandidateError
	if errors.As(err, &nc) {
		msg := "could not process this citation: no parser produced usable output"
		if stage == StageLookup {
			msg = "could not process this citation: no lookup service returned a match"
		}
		out.Errors = append([]string{msg}, nc.Errors.Strings()...)
	} else {
		out.Errors = []string{err.Error()}
	}
	return out, err
}

// Process parses the citation if needed, then looks it up. A parse failure
// ends processing. The result is saved when a repository is configured.
func (p *Processor) Process(ctx context.Context, c Citation) (Citation, error) {
	var err error
	if c.State < Parsed {
		if c, err = p.Parse(ctx, c); err != nil {
			p.save(c)
			return c, err
		}
	}
	c, err = p.Lookup(ctx, c)
	p.save(c)
	return c, err
}

// Result is the outcome of processing one citation. Err is the stage error
// of the last stage that ran, nil when the citation was looked up.
type Result struct {
	Citation Citation
	Err      error
}

// Failed reports whether the citation needs attention.
func (r Result) Failed() bool {
	return r.Err != nil || r.Citation.State != LookedUp
}

// ProcessOwner runs Process over every citation of an owner. Per-citation
// failures are reported in the results, not as an error.
func (p *Processor) ProcessOwner(ctx context.Context, assocKind, assocID string) ([]Result, error) {
	if p.repo == nil {
		return nil, ErrNoRepository
	}
	citations, err := p.repo.LoadCitationsForOwner(assocKind, assocID)
	if err != nil {
		return nil, fmt.Errorf("loading citations: %w", err)
	}
	out := make([]Result, 0, len(citations))
	for _, c := range citations {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		next, err := p.Process(ctx, c)
		out = append(out, Result{Citation: next, Err: err})
	}
	return out, nil
}

func (p *Processor) save(c Citation) {
	if p.repo == nil {
		return
	}
	if _, err := p.repo.SaveCitation(c); err != nil {
		p.logger.Warn("saving citation failed", "citation", c.ID, "error", err)
	}
}

// Edit is a manual change to a citation.
type Edit struct {
	// EditedText replaces the edited citation text when non-nil.
	EditedText *string
	// Statements are applied to the working description with Mode.
	Statements map[string]any
	Mode       metadata.ReplaceMode
}

// Update applies a manual edit. It bypasses the state machine and never
// lowers the state. A statement batch is applied all-or-nothing: on error
// the original citation is returned.
func (p *Processor) Update(c Citation, edit Edit) (Citation, error) {
	next := c.Clone()
	if edit.EditedText != nil {
		next.EditedText = strings.TrimSpace(*edit.EditedText)
	}
	if len(edit.Statements) > 0 {
		desc := next.Description
		if desc == nil {
			desc = metadata.NewDescription(metadata.CitationSchema, AssocKind, c.ID)
		}
		if err := desc.SetStatements(edit.Statements, edit.Mode); err != nil {
			return c, fmt.Errorf("updating citation %s: %w", c.ID, err)
		}
		next.Description = desc
	}
	return next, nil
}

// Import replaces the owner's citations with one Unparsed citation per entry
// of the raw citation list. The existing citations are kept when the new ones
// cannot be saved.
func (p *Processor) Import(assocKind, assocID, rawList string) ([]Citation, error) {
	if p.repo == nil {
		return nil, ErrNoRepository
	}

	entries := Tokenize(rawList)
	out := make([]Citation, 0, len(entries))
	for i, raw := range entries {
		out = append(out, Citation{
			ID:        p.newID(),
			AssocKind: assocKind,
			AssocID:   assocID,
			Seq:       i + 1,
			RawText:   raw,
			State:     Unparsed,
		})
	}

	if r, ok := p.repo.(OwnerReplacer); ok {
		ids, err := r.ReplaceOwnerCitations(assocKind, assocID, out)
		if err != nil {
			return nil, fmt.Errorf("replacing citations: %w", err)
		}
		for i := range out {
			out[i].ID = ids[i]
		}
		p.logger.Info("imported citations", "owner_kind", assocKind, "owner", assocID, "imported", len(out))
		return out, nil
	}

	existing, err := p.repo.LoadCitationsForOwner(assocKind, assocID)
	if err != nil {
		return nil, fmt.Errorf("loading existing citations: %w", err)
	}
	saved := make(map[string]bool, len(out))
	for i := range out {
		id, err := p.repo.SaveCitation(out[i])
		if err != nil {
			p.discard(saved)
			return nil, fmt.Errorf("saving citation %d: %w", i+1, err)
		}
		out[i].ID = id
		saved[id] = true
	}
	for _, c := range existing {
		if saved[c.ID] {
			continue
		}
		if _, err := p.repo.DeleteCitation(c.ID); err != nil {
			return out, fmt.Errorf("deleting citation %s: %w", c.ID, err)
		}
	}
	p.logger.Info("imported citations", "owner_kind", assocKind, "owner", assocID,
		"replaced", len(existing), "imported", len(out))
	return out, nil
}

// discard deletes citations saved by an import that failed partway.
func (p *Processor) discard(ids map[string]bool) {
	for id := range ids {
		if _, err := p.repo.DeleteCitation(id); err != nil {
			p.logger.Warn("removing partial import failed", "citation", id, "error", err)
		}
	}
}

// Conflicts compares every source description with the working description.
func (p *Processor) Conflicts(c Citation) []conflict.ResolutionPlan {
	plans := make([]conflict.ResolutionPlan, 0, len(c.SourceDescriptions))
	for _, src := range c.SourceDescriptions {
		plans = append(plans, conflict.Resolve(src.AssocID, c.Description, src))
	}
	return plans
}

// AcceptMissing fills the working description's empty properties from the
// source description produced by filterID. Existing values are kept.
func (p *Processor) AcceptMissing(c Citation, filterID string) (Citation, []conflict.FieldConflict, error) {
	for _, src := range c.SourceDescriptions {
		if src.AssocID != filterID {
			continue
		}
		merged, conflicts, err := conflict.Merge(c.Description, src)
		if err != nil {
			return c, nil, err
		}
		next := c.Clone()
		next.Description = merged
		next.Description.AssocKind = AssocKind
		next.Description.AssocID = c.ID
		return next, conflicts, nil
	}
	return c, nil, fmt.Errorf("%w: %s", ErrUnknownSource, filterID)
}
