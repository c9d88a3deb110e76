package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"regscan/internal/config"
	"regscan/internal/crawler"
	"regscan/internal/logger"
	"regscan/internal/models"
	"regscan/internal/parsers"
)

// Dispatcher parses a batch of fetched payloads.
type Dispatcher interface {
	Dispatch(ctx context.Context, raw map[string]models.RawContent, sources []config.SourceConfig) []parsers.Result
}

// Observer is notified of phase transitions and completed batches.
type Observer interface {
	OnPhase(ctx context.Context, phase Phase, cursor int)
	OnBatch(ctx context.Context, report BatchReport)
}

// NopObserver ignores all notifications. Embed it to implement part of Observer.
type NopObserver struct{}

// OnPhase implements Observer.
func (NopObserver) OnPhase(context.Context, Phase, int) {}

// OnBatch implements Observer.
func (NopObserver) OnBatch(context.Context, BatchReport) {}

// Orchestrator advances a BatchState one batch at a time.
type Orchestrator struct {
	fetcher    crawler.Fetcher
	dispatcher Dispatcher
	observer   Observer
	logger     *logger.Logger
	now        func() time.Time
	runID      string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithObserver registers an observer.
func WithObserver(o Observer) Option {
	return func(orc *Orchestrator) { orc.observer = o }
}

// WithClock sets the clock used to build dated fan-out queries.
func WithClock(now func() time.Time) Option {
	return func(orc *Orchestrator) { orc.now = now }
}

// WithRunID overrides the generated run id.
func WithRunID(id string) Option {
	return func(orc *Orchestrator) { orc.runID = id }
}

// NewOrchestrator creates an orchestrator. Each instance gets a fresh run id
// attached to its log lines.
func NewOrchestrator(fetcher crawler.Fetcher, dispatcher Dispatcher, log *logger.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		fetcher:    fetcher,
		dispatcher: dispatcher,
		observer:   NopObserver{},
		now:        time.Now,
		runID:      uuid.NewString(),
	}

	for _, opt := range opts {
		opt(o)
	}

	o.logger = log.With("run_id", o.runID)

	return o
}

// RunID returns the id attached to this orchestrator's log lines.
func (o *Orchestrator) RunID() string {
	return o.runID
}

// Run processes all sources in batches of batchSize and returns the final state.
// A cancelled context stops the run between batches.
func (o *Orchestrator) Run(ctx context.Context, sources []config.SourceConfig, batchSize int) (BatchState, error) {
	state, err := NewBatchState(sources, batchSize)
	if err != nil {
		return BatchState{}, err
	}

	o.logger.Info("Run started", "sources", len(sources), "batch_size", batchSize)

	for !state.Done() {
		if err := ctx.Err(); err != nil {
			o.logger.Warn("Run cancelled", "cursor", state.Cursor, "documents", len(state.Documents))
			return state, err
		}

		state, _, err = o.Step(ctx, state)
		if err != nil {
			return state, err
		}
	}

	o.observer.OnPhase(ctx, PhaseDone, state.Cursor)
	o.logger.Info("Run complete", "cursor", state.Cursor, "documents", len(state.Documents))

	return state, nil
}

// Step runs one batch: fetch the window of sources, parse every payload and
// merge the documents. A done state is returned unchanged without fetching.
func (o *Orchestrator) Step(ctx context.Context, state BatchState) (BatchState, BatchReport, error) {
	if err := state.Validate(); err != nil {
		return state, BatchReport{}, err
	}

	if state.Done() {
		return state, BatchReport{Start: state.Cursor, End: state.Cursor, Total: len(state.Documents)}, nil
	}

	start, end := state.Window()
	report := BatchReport{
		Batch: start/state.BatchSize + 1,
		Start: start,
		End:   end,
	}

	o.observer.OnPhase(ctx, PhaseAwaitingFetch, start)

	targets := o.expand(state.Sources[start:end])
	report.Targets = len(targets)

	o.observer.OnPhase(ctx, PhaseFetching, start)
	raw := o.fetch(ctx, targets, state.BatchSize)

	for _, content := range raw {
		if content.IsFetchError() {
			report.FetchErrors++
		} else {
			report.Fetched++
		}
	}

	o.observer.OnPhase(ctx, PhaseParsing, start)
	results := o.dispatcher.Dispatch(ctx, raw, state.Sources)

	var parsed []models.Document

	for _, res := range results {
		if res.Err != nil {
			report.ParseErrors++
			continue
		}

		parsed = append(parsed, res.Documents...)
	}

	report.Parsed = len(parsed)

	o.observer.OnPhase(ctx, PhaseAccumulating, start)

	next := BatchState{
		Sources:    state.Sources,
		BatchSize:  state.BatchSize,
		Cursor:     end,
		RawContent: raw,
		Documents:  MergeDocuments(state.Documents, parsed),
	}

	report.Added = len(next.Documents) - len(state.Documents)
	report.Total = len(next.Documents)

	o.logger.Info("Batch complete",
		"batch", report.Batch,
		"start", report.Start,
		"end", report.End,
		"targets", report.Targets,
		"fetch_errors", report.FetchErrors,
		"parsed", report.Parsed,
		"added", report.Added,
		"total", report.Total,
	)
	o.observer.OnBatch(ctx, report)

	return next, report, nil
}

func (o *Orchestrator) expand(sources []config.SourceConfig) []crawler.Target {
	now := o.now()

	var targets []crawler.Target
	for _, src := range sources {
		targets = append(targets, crawler.Targets(src, now)...)
	}

	return targets
}

// fetch retrieves all targets concurrently, at most limit at a time. Results
// land in per-target slots and the map is built after every fetch returns.
func (o *Orchestrator) fetch(ctx context.Context, targets []crawler.Target, limit int) map[string]models.RawContent {
	contents := make([]models.RawContent, len(targets))

	var g errgroup.Group

	g.SetLimit(limit)

	for i, target := range targets {
		g.Go(func() error {
			contents[i] = crawler.FetchWithFallback(ctx, o.fetcher, target)
			return nil
		})
	}

	_ = g.Wait()

	raw := make(map[string]models.RawContent, len(targets))
	for i, target := range targets {
		raw[target.Source] = contents[i]
	}

	return raw
}
