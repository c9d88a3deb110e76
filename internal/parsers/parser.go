// Package parsers turns fetched payloads into normalized documents.
package parsers

import (
	"context"
	"errors"

	"regscan/internal/config"
	"regscan/internal/models"
	"regscan/pkg/utils"
)

// Parser errors.
var (
	ErrUnknownParser       = errors.New("no parser registered for type")
	ErrUnresolvedSource    = errors.New("no source config matches fetched source")
	ErrFetchFailed         = errors.New("fetch returned an error payload")
	ErrEmptyPayload        = errors.New("empty payload")
	ErrNoRootElement       = errors.New("xml document has no root element")
	ErrMissingSelector     = errors.New("row selector is required")
	ErrInvalidSelector     = errors.New("invalid css selector")
	ErrParserPanic         = errors.New("parser panicked")
	ErrUnterminatedPattern = errors.New("unterminated placeholder")
	ErrUnknownPlaceholder  = errors.New("placeholder does not name a document field")
)

// Parser converts one payload into documents for the given source.
type Parser interface {
	// Type returns the parser type served by this implementation.
	Type() config.ParserType

	// Parse extracts documents from a payload fetched from baseURL.
	Parse(ctx context.Context, payload string, src config.SourceConfig, baseURL string) ([]models.Document, error)
}

// PageFetcher retrieves auxiliary pages while parsing, such as linked summaries.
type PageFetcher interface {
	Fetch(ctx context.Context, source, url string) models.RawContent
}

var (
	text  = utils.NewStringHelper()
	links = utils.NewHTTPHelper("")
)

// seedDocument starts a document for src: the source id first, then configured defaults.
func seedDocument(src config.SourceConfig) (models.Document, error) {
	doc, err := models.NewDocument(src.Defaults)
	if err != nil {
		return models.Document{}, err
	}

	if _, ok := src.Defaults[models.FieldSource]; !ok {
		doc.Source = src.Source
	}

	return doc, nil
}
