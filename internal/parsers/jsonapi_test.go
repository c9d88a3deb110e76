package parsers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"regscan/internal/config"
	"regscan/internal/logger"
)

const federalRegisterPage = `{
  "count": 2,
  "results": [
    {
      "title": "Tobacco Product Standard",
      "abstract": "FDA proposes a standard.",
      "publication_date": "2025-01-15",
      "pdf_url": "https://www.govinfo.gov/content/pkg/FR-2025-01-15/pdf/2025-00001.pdf",
      "html_url": "https://www.federalregister.gov/d/2025-00001",
      "effective_on": "2025-03-01",
      "document_number": "2025-00001",
      "type": "Proposed Rule",
      "citation": "90 FR 1000",
      "agencies": [
        {"name": "Food and Drug Administration", "slug": "food-and-drug-administration"},
        {"name": "Health and Human Services Department", "slug": "health-and-human-services-department"}
      ]
    },
    {
      "title": "Sunshine Act Meeting",
      "filed_at": "2025-01-14 08:45:00 -0500",
      "html_url": "/d/2025-00002",
      "agencies": []
    }
  ]
}`

func TestJSONAPIParser_Mapping(t *testing.T) {
	src := config.SourceConfig{Source: "FEDERAL-REGISTER", Parser: config.ParserConfig{Type: config.ParserJSONAPI}}

	docs, err := NewJSONAPIParser(logger.Discard()).Parse(context.Background(), federalRegisterPage, src, "https://www.federalregister.gov/api/v1/documents.json")
	require.NoError(t, err)
	require.Len(t, docs, 2)

	first := docs[0]
	require.Equal(t, "Tobacco Product Standard", first.Title)
	require.Equal(t, "FDA proposes a standard.", first.Summary)
	require.Equal(t, "2025-01-15", first.PublishedOn)
	require.Equal(t, "https://www.govinfo.gov/content/pkg/FR-2025-01-15/pdf/2025-00001.pdf", first.LinkToRegChangeText)
	require.Equal(t, "2025-03-01", first.IntroducedOn)
	require.Equal(t, "2025-03-01", first.FirstEffectiveDate)
	require.Equal(t, "2025-00001", first.Identifier)
	require.Equal(t, "Proposed Rule", first.RegType)
	require.Equal(t, "90 FR 1000", first.CitationID)
	require.Equal(t, "Food and Drug Administration", first.IssuingAuthority)
	require.Equal(t, "food-and-drug-administration, health-and-human-services-department", first.Source)

	second := docs[1]
	require.Equal(t, "2025-01-14 08:45:00 -0500", second.PublishedOn)
	require.Equal(t, "https://www.federalregister.gov/d/2025-00002", second.LinkToRegChangeText)
	// No agencies keeps the configured id.
	require.Equal(t, "FEDERAL-REGISTER", second.Source)
	require.Empty(t, second.IssuingAuthority)
}

func TestJSONAPIParser_EmptyOrMissingResults(t *testing.T) {
	p := NewJSONAPIParser(logger.Discard())
	src := config.SourceConfig{Source: "FR"}

	for _, payload := range []string{`{"count":0}`, `{"results":[]}`, `{"results":null}`, `{"results":"oops"}`} {
		docs, err := p.Parse(context.Background(), payload, src, "")
		require.NoError(t, err, payload)
		require.Empty(t, docs, payload)
	}

	_, err := p.Parse(context.Background(), `{"results": [`, src, "")
	require.Error(t, err)
}

func TestJSONAPIParser_SkipsMalformedResult(t *testing.T) {
	payload := `{"results":[42, {"title":"Kept"}]}`

	docs, err := NewJSONAPIParser(logger.Discard()).Parse(context.Background(), payload, config.SourceConfig{Source: "FR"}, "")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "Kept", docs[0].Title)
}
