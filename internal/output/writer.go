// Package output writes scanned documents to disk.
package output

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"regscan/internal/models"
)

// Supported output formats.
const (
	FormatJSON  = "json"
	FormatJSONL = "jsonl"
)

// ErrUnknownFormat is returned for formats other than json and jsonl.
var ErrUnknownFormat = errors.New("unknown output format")

// Summary describes a written document set.
type Summary struct {
	GeneratedAt string         `json:"generatedAt"`
	RunID       string         `json:"runId,omitempty"`
	BySource    map[string]int `json:"bySource"`
	Total       int            `json:"total"`
}

// SourceCount is one row of a summary, ordered for display.
type SourceCount struct {
	Source string
	Count  int
}

// Rows returns per-source counts, largest first, ties by source id.
func (s Summary) Rows() []SourceCount {
	rows := make([]SourceCount, 0, len(s.BySource))
	for source, count := range s.BySource {
		rows = append(rows, SourceCount{Source: source, Count: count})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}

		return rows[i].Source < rows[j].Source
	})

	return rows
}

// Options controls how documents are written.
type Options struct {
	Path        string
	Format      string
	RunID       string
	PrettyPrint bool
}

// Summarize counts documents per source.
func Summarize(docs []models.Document, runID string, now time.Time) Summary {
	bySource := make(map[string]int)
	for _, doc := range docs {
		bySource[doc.Source]++
	}

	return Summary{
		GeneratedAt: now.UTC().Format(time.RFC3339),
		RunID:       runID,
		BySource:    bySource,
		Total:       len(docs),
	}
}

// Write saves docs to opts.Path, creating parent directories. JSON output is
// one object holding documents and summary; JSONL is one document per line.
func Write(docs []models.Document, opts Options) (Summary, error) {
	summary := Summarize(docs, opts.RunID, time.Now())

	format := strings.ToLower(opts.Format)
	if format == "" {
		format = FormatJSON
	}

	if format != FormatJSON && format != FormatJSONL {
		return summary, fmt.Errorf("%w: %q", ErrUnknownFormat, opts.Format)
	}

	if dir := filepath.Dir(opts.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return summary, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(opts.Path)
	if err != nil {
		return summary, fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)

	if format == FormatJSONL {
		err = writeLines(w, docs)
	} else {
		err = writeDocument(w, docs, summary, opts.PrettyPrint)
	}

	if err != nil {
		return summary, err
	}

	if err := w.Flush(); err != nil {
		return summary, fmt.Errorf("failed to write file: %w", err)
	}

	return summary, f.Close()
}

func writeDocument(w *bufio.Writer, docs []models.Document, summary Summary, pretty bool) error {
	if docs == nil {
		docs = []models.Document{}
	}

	payload := struct {
		Documents []models.Document `json:"documents"`
		Summary   Summary           `json:"summary"`
	}{docs, summary}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if pretty {
		enc.SetIndent("", "  ")
	}

	if err := enc.Encode(payload); err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	return nil
}

func writeLines(w *bufio.Writer, docs []models.Document) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	for i := range docs {
		if err := enc.Encode(&docs[i]); err != nil {
			return fmt.Errorf("failed to marshal document %d: %w", i, err)
		}
	}

	return nil
}
