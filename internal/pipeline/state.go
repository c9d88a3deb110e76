// Package pipeline drives sources through fetch, parse and merge in fixed-size batches.
package pipeline

import (
	"errors"
	"fmt"

	"regscan/internal/config"
	"regscan/internal/models"
)

// Pipeline state errors.
var (
	ErrInvalidBatchSize = errors.New("batch size must be at least 1")
	ErrInvalidCursor    = errors.New("cursor out of range")
)

// Phase is a stage of the batch state machine.
type Phase int

// Phases in the order a batch moves through them.
const (
	PhaseAwaitingFetch Phase = iota
	PhaseFetching
	PhaseParsing
	PhaseAccumulating
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseAwaitingFetch:
		return "awaiting_fetch"
	case PhaseFetching:
		return "fetching"
	case PhaseParsing:
		return "parsing"
	case PhaseAccumulating:
		return "accumulating"
	case PhaseDone:
		return "done"
	}

	return fmt.Sprintf("phase(%d)", int(p))
}

// BatchState is the orchestrator's view of a run. Each Step returns a new value.
type BatchState struct {
	RawContent map[string]models.RawContent
	Sources    []config.SourceConfig
	Documents  []models.Document
	BatchSize  int
	Cursor     int
}

// NewBatchState returns the initial state AwaitingFetch(0).
func NewBatchState(sources []config.SourceConfig, batchSize int) (BatchState, error) {
	state := BatchState{
		Sources:    sources,
		BatchSize:  batchSize,
		RawContent: map[string]models.RawContent{},
	}

	if err := state.Validate(); err != nil {
		return BatchState{}, err
	}

	return state, nil
}

// Validate reports malformed state.
func (s BatchState) Validate() error {
	if s.BatchSize < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidBatchSize, s.BatchSize)
	}

	if s.Cursor < 0 || s.Cursor > len(s.Sources) {
		return fmt.Errorf("%w: %d of %d", ErrInvalidCursor, s.Cursor, len(s.Sources))
	}

	return nil
}

// Done reports whether every source has been processed.
func (s BatchState) Done() bool {
	return s.Cursor >= len(s.Sources)
}

// Phase returns AwaitingFetch while sources remain and Done afterwards.
func (s BatchState) Phase() Phase {
	if s.Done() {
		return PhaseDone
	}

	return PhaseAwaitingFetch
}

// Window returns the [start, end) slice of sources the next batch covers.
func (s BatchState) Window() (int, int) {
	start := s.Cursor
	end := min(start+s.BatchSize, len(s.Sources))

	return start, max(start, end)
}

// BatchReport describes one completed batch.
type BatchReport struct {
	Batch       int
	Start       int
	End         int
	Targets     int
	Fetched     int
	FetchErrors int
	Parsed      int
	ParseErrors int
	Added       int
	Total       int
}
