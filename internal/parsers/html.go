package parsers

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"regscan/internal/config"
	"regscan/internal/logger"
	"regscan/internal/models"
)

// HTMLTableParser extracts one document per table row using configured selectors.
type HTMLTableParser struct {
	logger *logger.Logger
	pages  PageFetcher
}

// NewHTMLTableParser creates a table parser. pages may be nil, which disables
// remote summary fetching.
func NewHTMLTableParser(log *logger.Logger, pages PageFetcher) *HTMLTableParser {
	return &HTMLTableParser{logger: log, pages: pages}
}

// Type implements Parser.
func (p *HTMLTableParser) Type() config.ParserType {
	return config.ParserHTML
}

// Parse implements Parser.
func (p *HTMLTableParser) Parse(ctx context.Context, payload string, src config.SourceConfig, baseURL string) ([]models.Document, error) {
	rowSelector := src.Parser.Rows()
	if rowSelector == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingSelector, src.Source)
	}

	if err := compileSelectors(rowSelector, src.Parser.Columns); err != nil {
		return nil, fmt.Errorf("%s: %w", src.Source, err)
	}

	page, err := goquery.NewDocumentFromReader(strings.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("parse html %s: %w", src.Source, err)
	}

	rows := page.Find(rowSelector)
	p.logger.Debug("Table rows selected", "source", src.Source, "selector", rowSelector, "rows", rows.Length())

	docs := make([]models.Document, 0, rows.Length())
	skipped := 0

	for i := range rows.Nodes {
		if err := ctx.Err(); err != nil {
			return docs, err
		}

		doc, matched, err := p.parseRow(ctx, rows.Eq(i), src, baseURL)
		if err != nil {
			return docs, err
		}

		if !matched {
			skipped++
			continue
		}

		docs = append(docs, doc)
	}

	if skipped > 0 {
		p.logger.Debug("Skipped rows without column values", "source", src.Source, "rows", skipped)
	}

	return docs, nil
}

func compileSelectors(rowSelector string, columns []config.ColumnConfig) error {
	if _, err := cascadia.Compile(rowSelector); err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidSelector, rowSelector, err)
	}

	for _, col := range columns {
		if col.Selector == "" {
			continue
		}

		if _, err := cascadia.Compile(col.Selector); err != nil {
			return fmt.Errorf("%w %q: %v", ErrInvalidSelector, col.Selector, err)
		}
	}

	return nil
}

// parseRow builds the document for one row. matched is false when columns are
// configured and none of them produced a value, as for a header row.
func (p *HTMLTableParser) parseRow(ctx context.Context, row *goquery.Selection, src config.SourceConfig, baseURL string) (models.Document, bool, error) {
	doc, err := seedDocument(src)
	if err != nil {
		return models.Document{}, false, err
	}

	matched := len(src.Parser.Columns) == 0

	for _, col := range src.Parser.Columns {
		value := columnValue(row, col, baseURL)
		if err := doc.SetIfPresent(col.Name, value); err != nil {
			return models.Document{}, false, err
		}

		matched = matched || value != ""
	}

	if !matched {
		return doc, false, nil
	}

	if src.Parser.Summary != nil && src.Parser.Summary.Selector != "" && doc.LinkToRegChangeText != "" {
		if summary := p.fetchSummary(ctx, src, doc.LinkToRegChangeText); summary != "" {
			doc.Summary = summary
		}
	}

	return doc, true, nil
}

// columnValue extracts a single cell value; a missing element yields "".
func columnValue(row *goquery.Selection, col config.ColumnConfig, baseURL string) string {
	el := row
	if col.Selector != "" {
		el = row.Find(col.Selector).First()
	}

	if el.Length() == 0 {
		return ""
	}

	switch {
	case col.Attribute != "":
		value, _ := el.Attr(col.Attribute)
		return strings.TrimSpace(value)
	case col.IsLink:
		return links.ResolveURL(baseURL, anchorHref(el))
	default:
		return text.NormalizeWhitespace(el.Text())
	}
}

// anchorHref returns the href of el when it is an anchor, else of its first anchor descendant.
func anchorHref(el *goquery.Selection) string {
	if goquery.NodeName(el) != "a" {
		el = el.Find("a").First()
	}

	href, _ := el.Attr("href")

	return strings.TrimSpace(href)
}

func (p *HTMLTableParser) fetchSummary(ctx context.Context, src config.SourceConfig, link string) string {
	if p.pages == nil {
		return ""
	}

	raw := p.pages.Fetch(ctx, src.Source, link)
	if raw.IsFetchError() {
		p.logger.Warn("Summary fetch failed", "source", src.Source, "url", link, "error", raw.Payload)
		return ""
	}

	page, err := goquery.NewDocumentFromReader(strings.NewReader(raw.Payload))
	if err != nil {
		p.logger.Warn("Summary page unparseable", "source", src.Source, "url", link, "error", err)
		return ""
	}

	return text.NormalizeWhitespace(page.Find(src.Parser.Summary.Selector).First().Text())
}
