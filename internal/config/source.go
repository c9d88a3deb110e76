package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"regscan/internal/models"
)

// ParserType selects the format parser for a source.
type ParserType string

// Supported parser types.
const (
	ParserRSS     ParserType = "RSS-PARSER"
	ParserHTML    ParserType = "HTML-PARSER"
	ParserJSONAPI ParserType = "JSON-API-PARSER"
)

var parserAliases = map[string]ParserType{
	"RSS":             ParserRSS,
	"RSS-PARSER":      ParserRSS,
	"HTML":            ParserHTML,
	"HTML-TABLE":      ParserHTML,
	"HTML-PARSER":     ParserHTML,
	"JSON-API":        ParserJSONAPI,
	"JSON-API-PARSER": ParserJSONAPI,
}

// NormalizeParserType maps accepted spellings to the canonical parser type.
// Unrecognized values are returned unchanged so validation can report them.
func NormalizeParserType(t ParserType) ParserType {
	if canonical, ok := parserAliases[strings.ToUpper(strings.TrimSpace(string(t)))]; ok {
		return canonical
	}

	return t
}

// IsKnown reports whether t is a canonical parser type.
func (t ParserType) IsKnown() bool {
	switch t {
	case ParserRSS, ParserHTML, ParserJSONAPI:
		return true
	}

	return false
}

// SourceConfig represents one configured feed.
type SourceConfig struct {
	Defaults   map[string]string `yaml:"defaults"`
	Source     string            `yaml:"source"`
	Title      string            `yaml:"title"`
	URL        string            `yaml:"url"`
	Parser     ParserConfig      `yaml:"parser"`
	BackupURLs []string          `yaml:"backup_urls"`
	Enabled    bool              `yaml:"enabled"`
}

// ParserConfig holds parser selection and type-specific parameters.
type ParserConfig struct {
	Summary       *SummaryConfig    `yaml:"summary"`
	Pagination    *PaginationConfig `yaml:"pagination"`
	Type          ParserType        `yaml:"type"`
	RowSelector   string            `yaml:"row_selector"`
	TableSelector string            `yaml:"table_selector"`
	Columns       []ColumnConfig    `yaml:"columns"`
}

// ColumnConfig maps one HTML table cell to a document field.
type ColumnConfig struct {
	Name      string `yaml:"name"`
	Selector  string `yaml:"selector"`
	Attribute string `yaml:"attribute"`
	IsLink    bool   `yaml:"is_link"`
}

// SummaryConfig enables fetching the linked page to fill the summary.
type SummaryConfig struct {
	Selector string `yaml:"selector"`
}

// PaginationConfig fans a JSON API source out into several queries.
type PaginationConfig struct {
	BaseURL            string   `yaml:"base_url"`
	Agencies           []string `yaml:"agencies"`
	Terms              []string `yaml:"terms"`
	AgenciesPerRequest int      `yaml:"agencies_per_request"`
}

// Rows returns the row selector, accepting table_selector as an alias.
func (p *ParserConfig) Rows() string {
	if p.RowSelector != "" {
		return p.RowSelector
	}

	return p.TableSelector
}

// ChunkSize returns the number of agencies per fan-out query.
func (p *PaginationConfig) ChunkSize() int {
	if p.AgenciesPerRequest <= 0 {
		return DefaultAgenciesPerRequest
	}

	return p.AgenciesPerRequest
}

// IsPaginated reports whether the source fans out into several fetch targets.
func (s *SourceConfig) IsPaginated() bool {
	return s.Parser.Type == ParserJSONAPI && s.Parser.Pagination != nil
}

// GetAllURLs returns all URLs (primary + backups) for a source.
func (s *SourceConfig) GetAllURLs() []string {
	urls := []string{s.URL}
	urls = append(urls, s.BackupURLs...)

	return urls
}

// Validate checks a single source entry.
func (s *SourceConfig) Validate() error {
	if s.Source == "" {
		return ErrSourceMissingID
	}

	if s.URL == "" && !s.IsPaginated() {
		return ErrSourceMissingURL
	}

	if !s.Parser.Type.IsKnown() {
		return fmt.Errorf("%w: %q", ErrUnknownParserType, s.Parser.Type)
	}

	if s.Parser.Type == ParserHTML {
		if s.Parser.Rows() == "" {
			return ErrMissingRowSelector
		}

		if len(s.Parser.Columns) == 0 {
			return ErrMissingColumns
		}

		for _, col := range s.Parser.Columns {
			if !models.IsField(col.Name) {
				return fmt.Errorf("%w: %q", ErrUnknownColumnField, col.Name)
			}
		}
	}

	if s.Parser.Pagination != nil && s.Parser.Pagination.AgenciesPerRequest < 0 {
		return ErrInvalidPagination
	}

	names := make([]string, 0, len(s.Defaults))
	for name := range s.Defaults {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		if !models.IsField(name) {
			return fmt.Errorf("%w: %q", ErrUnknownDefaultField, name)
		}
	}

	return nil
}

// FanOutID names the n-th fetch target of a paginated source (BASE-n).
func FanOutID(base string, n int) string {
	return base + "-" + strconv.Itoa(n)
}

// SplitFanOutID splits BASE-n into its base and suffix.
func SplitFanOutID(id string) (string, int, bool) {
	idx := strings.LastIndex(id, "-")
	if idx <= 0 || idx == len(id)-1 {
		return "", 0, false
	}

	n, err := strconv.Atoi(id[idx+1:])
	if err != nil || n < 0 {
		return "", 0, false
	}

	return id[:idx], n, true
}
