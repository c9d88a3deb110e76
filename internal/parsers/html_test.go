package parsers

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"regscan/internal/config"
	"regscan/internal/logger"
	"regscan/internal/models"
)

const rulesTable = `<html><body>
<table id="rules">
  <tr><th>Title</th><th>Document</th></tr>
  <tr class="row">
    <td class="title">Final rule
       on capital</td>
    <td class="link"><a href="/rules/a.pdf">PDF</a></td>
    <td class="id" data-id="R-1">one</td>
  </tr>
  <tr class="row">
    <td class="title">Interim rule on liquidity</td>
    <td class="link"><a href="rules/b.pdf">PDF</a></td>
    <td class="id" data-id="R-2">two</td>
  </tr>
</table>
</body></html>`

// pageStub serves fixed pages keyed by URL and records requests.
type pageStub struct {
	mu    sync.Mutex
	pages map[string]string
	calls []string
}

func (p *pageStub) Fetch(_ context.Context, _ string, url string) models.RawContent {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls = append(p.calls, url)

	body, ok := p.pages[url]
	if !ok {
		return models.FetchError(url, errors.New("not found"))
	}

	return models.RawContent{URL: url, Payload: body, ContentType: models.ContentHTML}
}

func tableSource() config.SourceConfig {
	return config.SourceConfig{
		Source: "OCC-RULES",
		Parser: config.ParserConfig{
			Type:        config.ParserHTML,
			RowSelector: "table#rules tr.row",
			Columns: []config.ColumnConfig{
				{Name: "title", Selector: "td.title"},
				{Name: "linkToRegChangeText", Selector: "td.link", IsLink: true},
				{Name: "identifier", Selector: "td.id", Attribute: "data-id"},
				{Name: "pdfContent", Selector: "td.missing"},
			},
		},
		Defaults: map[string]string{"issuingAuthority": "OCC"},
	}
}

func TestHTMLTableParser_TwoRows(t *testing.T) {
	p := NewHTMLTableParser(logger.Discard(), nil)

	docs, err := p.Parse(context.Background(), rulesTable, tableSource(), "https://agency.gov/news/index.html")
	require.NoError(t, err)
	require.Len(t, docs, 2)

	require.Equal(t, "Final rule on capital", docs[0].Title)
	require.Equal(t, "https://agency.gov/rules/a.pdf", docs[0].LinkToRegChangeText)
	require.Equal(t, "R-1", docs[0].Identifier)
	require.Equal(t, "OCC", docs[0].IssuingAuthority)
	require.Equal(t, "OCC-RULES", docs[0].Source)
	require.Empty(t, docs[0].PDFContent)

	require.Equal(t, "Interim rule on liquidity", docs[1].Title)
	require.Equal(t, "https://agency.gov/news/rules/b.pdf", docs[1].LinkToRegChangeText)
	require.Equal(t, "R-2", docs[1].Identifier)
}

func TestHTMLTableParser_AnchorSelectedDirectly(t *testing.T) {
	src := tableSource()
	src.Parser.Columns = []config.ColumnConfig{
		{Name: "linkToRegChangeText", Selector: "td.link a", IsLink: true},
		{Name: "comments", Selector: "td.title", IsLink: true},
	}

	docs, err := NewHTMLTableParser(logger.Discard(), nil).Parse(context.Background(), rulesTable, src, "https://agency.gov/")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.Equal(t, "https://agency.gov/rules/a.pdf", docs[0].LinkToRegChangeText)
	// No anchor in the title cell.
	require.Empty(t, docs[0].Comments)
}

func TestHTMLTableParser_RemoteSummary(t *testing.T) {
	pages := &pageStub{pages: map[string]string{
		"https://agency.gov/rules/a.pdf": `<html><body><div class="summary"> Raises   capital buffers. </div></body></html>`,
	}}

	src := tableSource()
	src.Parser.Summary = &config.SummaryConfig{Selector: "div.summary"}

	docs, err := NewHTMLTableParser(logger.Discard(), pages).Parse(context.Background(), rulesTable, src, "https://agency.gov/news/")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.Equal(t, "Raises capital buffers.", docs[0].Summary)
	// The second fetch fails and leaves the summary unset.
	require.Empty(t, docs[1].Summary)
	require.Len(t, pages.calls, 2)
}

func TestHTMLTableParser_SelectorErrors(t *testing.T) {
	p := NewHTMLTableParser(logger.Discard(), nil)

	src := tableSource()
	src.Parser.RowSelector = ""

	_, err := p.Parse(context.Background(), rulesTable, src, "")
	require.ErrorIs(t, err, ErrMissingSelector)

	src.Parser.RowSelector = "tr["

	_, err = p.Parse(context.Background(), rulesTable, src, "")
	require.ErrorIs(t, err, ErrInvalidSelector)
}

func TestHTMLTableParser_NoRows(t *testing.T) {
	docs, err := NewHTMLTableParser(logger.Discard(), nil).Parse(context.Background(), "<p>maintenance</p>", tableSource(), "")
	require.NoError(t, err)
	require.Empty(t, docs)
}
