package parsers

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"regscan/internal/config"
	"regscan/internal/logger"
	"regscan/internal/models"
	"regscan/internal/normalizer"
)

// Registry maps parser types to implementations.
type Registry struct {
	parsers map[config.ParserType]Parser
}

// NewRegistry creates a registry holding the given parsers keyed by their type.
func NewRegistry(parsers ...Parser) *Registry {
	r := &Registry{parsers: make(map[config.ParserType]Parser, len(parsers))}
	for _, p := range parsers {
		r.parsers[p.Type()] = p
	}

	return r
}

// DefaultRegistry registers the RSS, HTML table and JSON API parsers.
func DefaultRegistry(log *logger.Logger, pages PageFetcher) *Registry {
	return NewRegistry(
		NewRSSParser(log),
		NewHTMLTableParser(log, pages),
		NewJSONAPIParser(log),
	)
}

// Lookup returns the parser for t, accepting type aliases.
func (r *Registry) Lookup(t config.ParserType) (Parser, error) {
	p, ok := r.parsers[config.NormalizeParserType(t)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownParser, t)
	}

	return p, nil
}

// Types returns the registered parser types, sorted.
func (r *Registry) Types() []config.ParserType {
	types := make([]config.ParserType, 0, len(r.parsers))
	for t := range r.parsers {
		types = append(types, t)
	}

	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	return types
}

// ResolveSource finds the config a fetched source id belongs to: an exact id,
// then the base of a BASE-n id, then the longest configured id that prefixes
// it followed by "-".
func ResolveSource(id string, sources []config.SourceConfig) (config.SourceConfig, bool) {
	for _, src := range sources {
		if src.Source == id {
			return src, true
		}
	}

	if base, _, ok := config.SplitFanOutID(id); ok {
		for _, src := range sources {
			if src.Source == base {
				return src, true
			}
		}
	}

	best := -1
	for i, src := range sources {
		if src.Source == "" || !strings.HasPrefix(id, src.Source+"-") {
			continue
		}

		if best < 0 || len(src.Source) > len(sources[best].Source) {
			best = i
		}
	}

	if best < 0 {
		return config.SourceConfig{}, false
	}

	return sources[best], true
}

// Result is the outcome of parsing one fetched source.
type Result struct {
	Err       error
	Source    string
	Config    string
	Documents []models.Document
}

// Dispatcher routes fetched payloads to parsers, resolves dynamic defaults and
// normalizes the resulting documents.
type Dispatcher struct {
	registry  *Registry
	resolver  *DefaultResolver
	processor *normalizer.Processor
	logger    *logger.Logger
}

// NewDispatcher creates a dispatcher over registry.
func NewDispatcher(registry *Registry, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		registry:  registry,
		resolver:  NewDefaultResolver(log),
		processor: normalizer.NewProcessor(),
		logger:    log,
	}
}

// Dispatch parses every entry of raw concurrently. Results are ordered by
// source id. Failures are reported per result and never stop other entries.
func (d *Dispatcher) Dispatch(ctx context.Context, raw map[string]models.RawContent, sources []config.SourceConfig) []Result {
	ids := make([]string, 0, len(raw))
	for id := range raw {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	results := make([]Result, len(ids))

	// ParseOne never fails the group; errors are carried in each Result.
	var g errgroup.Group

	for i, id := range ids {
		g.Go(func() error {
			results[i] = d.ParseOne(ctx, id, raw[id], sources)
			return nil
		})
	}

	_ = g.Wait()

	return results
}

// ParseOne parses a single fetched payload.
func (d *Dispatcher) ParseOne(ctx context.Context, id string, content models.RawContent, sources []config.SourceConfig) (result Result) {
	result.Source = id

	defer func() {
		if r := recover(); r != nil {
			result.Documents = nil
			result.Err = fmt.Errorf("%w: %v", ErrParserPanic, r)
		}

		if result.Err != nil {
			d.logger.Error("Parsing failed", "source", id, "url", content.URL, "error", result.Err)
		}
	}()

	if content.IsFetchError() {
		result.Err = fmt.Errorf("%w: %s", ErrFetchFailed, content.Payload)
		return result
	}

	src, ok := ResolveSource(id, sources)
	if !ok {
		result.Err = fmt.Errorf("%w: %s", ErrUnresolvedSource, id)
		return result
	}

	result.Config = src.Source

	parser, err := d.registry.Lookup(src.Parser.Type)
	if err != nil {
		result.Err = err
		return result
	}

	docs, err := parser.Parse(ctx, content.Payload, src, content.URL)
	if err != nil {
		result.Err = err
		return result
	}

	for i := range docs {
		docs[i] = d.resolver.Resolve(docs[i])
	}

	docs, unidentified := d.processor.ProcessAll(docs)
	if unidentified > 0 {
		d.logger.Warn("Documents without title, link or identifier", "source", id, "count", unidentified)
	}

	d.logger.Debug("Parsed source", "source", id, "config", src.Source, "parser", parser.Type(),
		"documents", len(docs))
	result.Documents = docs

	return result
}
