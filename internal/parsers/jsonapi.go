package parsers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"regscan/internal/config"
	"regscan/internal/logger"
	"regscan/internal/models"
)

// apiResponse is one page of a Federal Register style documents query.
type apiResponse struct {
	Results json.RawMessage `json:"results"`
	Count   int             `json:"count"`
}

type apiAgency struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type apiResult struct {
	Title           string      `json:"title"`
	Abstract        string      `json:"abstract"`
	PublicationDate string      `json:"publication_date"`
	FiledAt         string      `json:"filed_at"`
	PDFURL          string      `json:"pdf_url"`
	HTMLURL         string      `json:"html_url"`
	EffectiveOn     string      `json:"effective_on"`
	EnactedOn       string      `json:"enacted_on"`
	DocumentNumber  string      `json:"document_number"`
	Type            string      `json:"type"`
	Citation        string      `json:"citation"`
	Agencies        []apiAgency `json:"agencies"`
}

// JSONAPIParser maps the results of a paginated documents API.
type JSONAPIParser struct {
	logger *logger.Logger
}

// NewJSONAPIParser creates a JSON API parser.
func NewJSONAPIParser(log *logger.Logger) *JSONAPIParser {
	return &JSONAPIParser{logger: log}
}

// Type implements Parser.
func (p *JSONAPIParser) Type() config.ParserType {
	return config.ParserJSONAPI
}

// Parse implements Parser. A missing or malformed results array yields no documents.
func (p *JSONAPIParser) Parse(ctx context.Context, payload string, src config.SourceConfig, baseURL string) ([]models.Document, error) {
	if strings.TrimSpace(payload) == "" {
		return nil, ErrEmptyPayload
	}

	var resp apiResponse
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		return nil, fmt.Errorf("parse json %s: %w", src.Source, err)
	}

	var results []json.RawMessage
	if len(resp.Results) == 0 || json.Unmarshal(resp.Results, &results) != nil {
		p.logger.Debug("No results array", "source", src.Source, "count", resp.Count)
		return nil, nil
	}

	docs := make([]models.Document, 0, len(results))

	for i, raw := range results {
		if err := ctx.Err(); err != nil {
			return docs, err
		}

		var result apiResult
		if err := json.Unmarshal(raw, &result); err != nil {
			p.logger.Warn("Skipping malformed result", "source", src.Source, "index", i, "error", err)
			continue
		}

		doc, err := seedDocument(src)
		if err != nil {
			return docs, err
		}

		applyResult(&doc, result, baseURL)
		docs = append(docs, doc)
	}

	return docs, nil
}

func applyResult(doc *models.Document, r apiResult, baseURL string) {
	set := func(field *string, value string) {
		if v := text.NormalizeWhitespace(value); v != "" {
			*field = v
		}
	}

	set(&doc.Title, r.Title)
	set(&doc.Summary, r.Abstract)
	set(&doc.PublishedOn, firstNonEmpty(r.PublicationDate, r.FiledAt))
	set(&doc.LinkToRegChangeText, links.ResolveURL(baseURL, firstNonEmpty(r.PDFURL, r.HTMLURL)))
	set(&doc.IntroducedOn, r.EffectiveOn)
	set(&doc.FirstEffectiveDate, r.EffectiveOn)
	set(&doc.EnactedDate, r.EnactedOn)
	set(&doc.Identifier, r.DocumentNumber)
	set(&doc.RegType, r.Type)
	set(&doc.CitationID, r.Citation)

	if len(r.Agencies) > 0 {
		set(&doc.IssuingAuthority, r.Agencies[0].Name)
	}

	slugs := make([]string, 0, len(r.Agencies))
	for _, a := range r.Agencies {
		if slug := strings.TrimSpace(a.Slug); slug != "" {
			slugs = append(slugs, slug)
		}
	}

	set(&doc.Source, strings.Join(slugs, ", "))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}

	return ""
}
