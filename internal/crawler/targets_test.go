package crawler

import (
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"regscan/internal/config"
)

func TestTargets_SingleSource(t *testing.T) {
	src := config.SourceConfig{
		Source:     "SEC",
		URL:        "https://www.sec.gov/news/pressreleases.rss",
		BackupURLs: []string{"https://mirror.sec.gov/rss"},
		Parser:     config.ParserConfig{Type: config.ParserRSS},
	}

	targets := Targets(src, time.Now())
	require.Len(t, targets, 1)
	require.Equal(t, "SEC", targets[0].Source)
	require.Equal(t, []string{src.URL, "https://mirror.sec.gov/rss"}, targets[0].URLs())
}

func TestTargets_FanOut(t *testing.T) {
	agencies := make([]string, 45)
	for i := range agencies {
		agencies[i] = fmt.Sprintf("agency-%02d", i)
	}

	src := config.SourceConfig{
		Source: "FEDERAL-REGISTER",
		Parser: config.ParserConfig{
			Type: config.ParserJSONAPI,
			Pagination: &config.PaginationConfig{
				BaseURL:  "https://www.federalregister.gov/api/v1/documents.json?per_page=100",
				Agencies: agencies,
				Terms:    []string{"RULE", "PRORULE"},
			},
		},
	}

	now := time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)
	targets := Targets(src, now)
	require.Len(t, targets, 3)

	for i, target := range targets {
		require.Equal(t, config.FanOutID("FEDERAL-REGISTER", i+1), target.Source)
	}

	u, err := url.Parse(targets[2].URL)
	require.NoError(t, err)

	q := u.Query()
	require.Equal(t, "100", q.Get("per_page"))
	require.Equal(t, "2025-01-15", q.Get("conditions[publication_date][is]"))
	require.Equal(t, []string{"agency-40", "agency-41", "agency-42", "agency-43", "agency-44"}, q["conditions[agencies][]"])
	require.Equal(t, []string{"RULE", "PRORULE"}, q["conditions[type][]"])

	first, err := url.Parse(targets[0].URL)
	require.NoError(t, err)
	require.Len(t, first.Query()["conditions[agencies][]"], 20)
}

func TestTargets_FanOutWithoutAgencies(t *testing.T) {
	src := config.SourceConfig{
		Source: "FR",
		URL:    "https://www.federalregister.gov/api/v1/documents.json",
		Parser: config.ParserConfig{Type: config.ParserJSONAPI, Pagination: &config.PaginationConfig{}},
	}

	targets := Targets(src, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
	require.Len(t, targets, 1)
	require.Equal(t, "FR-1", targets[0].Source)
	require.Contains(t, targets[0].URL, "conditions%5Bpublication_date%5D%5Bis%5D=2025-02-01")
}

func TestChunkAgencies(t *testing.T) {
	require.Equal(t, [][]string{{"a", "b"}, {"c"}}, ChunkAgencies([]string{"a", "b", "c"}, 2))
	require.Equal(t, [][]string{nil}, ChunkAgencies(nil, 2))
	require.Len(t, ChunkAgencies([]string{"a"}, 0), 1)
}
