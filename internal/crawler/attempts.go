package crawler

import (
	"sort"
	"sync"
	"time"
)

// AttemptResult records the result of a URL fetch attempt.
type AttemptResult struct {
	Timestamp  time.Time
	URL        string
	Error      string
	Attempt    int
	Duration   time.Duration
	StatusCode int
	Success    bool
}

// SourceStats summarizes the attempts made for one source.
type SourceStats struct {
	Source    string
	Attempts  int
	Successes int
	Failures  int
	LastError string
	Duration  time.Duration
}

// AttemptLog collects fetch attempts per source. Safe for concurrent use.
type AttemptLog struct {
	mu      sync.Mutex
	entries map[string][]AttemptResult
}

// NewAttemptLog creates an empty log.
func NewAttemptLog() *AttemptLog {
	return &AttemptLog{entries: make(map[string][]AttemptResult)}
}

// Record appends an attempt for source.
func (l *AttemptLog) Record(source string, result AttemptResult) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries[source] = append(l.entries[source], result)
}

// Attempts returns a copy of the attempts recorded for source.
func (l *AttemptLog) Attempts(source string) []AttemptResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]AttemptResult, len(l.entries[source]))
	copy(out, l.entries[source])

	return out
}

// Stats returns per-source statistics sorted by source id.
func (l *AttemptLog) Stats() []SourceStats {
	l.mu.Lock()
	defer l.mu.Unlock()

	stats := make([]SourceStats, 0, len(l.entries))

	for source, attempts := range l.entries {
		s := SourceStats{Source: source, Attempts: len(attempts)}

		for _, a := range attempts {
			s.Duration += a.Duration

			if a.Success {
				s.Successes++
				continue
			}

			s.Failures++
			s.LastError = a.Error
		}

		stats = append(stats, s)
	}

	sort.Slice(stats, func(i, j int) bool { return stats[i].Source < stats[j].Source })

	return stats
}
