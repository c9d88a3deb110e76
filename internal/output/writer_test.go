package output

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"regscan/internal/models"
)

func sampleDocs() []models.Document {
	return []models.Document{
		{Source: "SEC", Title: "Final rule"},
		{Source: "FINRA", Title: "Notice 24-01", Summary: "A & B <updated>"},
		{Source: "SEC", Title: "Proposed rule"},
	}
}

func TestWrite_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "documents.json")

	summary, err := Write(sampleDocs(), Options{Path: path, Format: "json", PrettyPrint: true, RunID: "run-1"})
	require.NoError(t, err)
	require.Equal(t, 3, summary.Total)
	require.Equal(t, map[string]int{"SEC": 2, "FINRA": 1}, summary.BySource)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded struct {
		Documents []map[string]string `json:"documents"`
		Summary   Summary             `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded.Documents, 3)
	require.Equal(t, map[string]string{"source": "SEC", "title": "Final rule"}, decoded.Documents[0])
	require.Equal(t, "run-1", decoded.Summary.RunID)
	require.Contains(t, string(data), "A & B <updated>")
}

func TestWrite_JSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "documents.jsonl")

	_, err := Write(sampleDocs(), Options{Path: path, Format: "JSONL"})
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []string

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	require.NoError(t, scanner.Err())
	require.Len(t, lines, 3)
	require.True(t, strings.HasPrefix(lines[1], `{"source":"FINRA"`))
}

func TestWrite_EmptyAndUnknownFormat(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "empty.json")
	_, err := Write(nil, Options{Path: path})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"documents":[]`)

	_, err = Write(nil, Options{Path: filepath.Join(dir, "x.csv"), Format: "csv"})
	require.ErrorIs(t, err, ErrUnknownFormat)
}

func TestSummary_Rows(t *testing.T) {
	s := Summarize(sampleDocs(), "", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	require.Equal(t, "2025-01-01T00:00:00Z", s.GeneratedAt)
	require.Equal(t, []SourceCount{{"SEC", 2}, {"FINRA", 1}}, s.Rows())
}
