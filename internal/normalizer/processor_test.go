package normalizer

import (
	"errors"
	"testing"

	"regscan/internal/models"
)

func TestNewProcessor(t *testing.T) {
	p := NewProcessor()
	if p == nil {
		t.Fatal("NewProcessor returned nil")
	}
}

func TestProcessor_Process(t *testing.T) {
	p := NewProcessor()

	doc := models.Document{
		Source:      "SEC",
		Title:       "  Final\n rule ",
		HTMLContent: "  <p>Final  rule</p>\n",
		Comments:    "Published\t2024",
	}

	result, err := p.Process(doc)
	if err != nil {
		t.Fatalf("Process returned unexpected error: %v", err)
	}

	if result.Title != "Final rule" {
		t.Errorf("Title = %q, want %q", result.Title, "Final rule")
	}

	if result.HTMLContent != "<p>Final  rule</p>" {
		t.Errorf("HTMLContent = %q, want markup kept", result.HTMLContent)
	}

	if result.Comments != "Published 2024" {
		t.Errorf("Comments = %q, want %q", result.Comments, "Published 2024")
	}
}

func TestProcessor_Process_ValidationError(t *testing.T) {
	p := NewProcessor()

	result, err := p.Process(models.Document{Source: "SEC", IssuingAuthority: "SEC", Title: "   ", Summary: " Notice "})
	if !errors.Is(err, ErrEmptyDocument) {
		t.Errorf("Expected ErrEmptyDocument, got %v", err)
	}

	if result.Summary != "Notice" || result.Source != "SEC" {
		t.Errorf("Expected normalized document alongside the error, got %+v", result)
	}
}

func TestProcessor_ProcessAll(t *testing.T) {
	docs := []models.Document{
		{Title: "A"},
		{Source: "SEC", Summary: "  Only a  summary "},
		{Identifier: "R-1"},
		{LinkToRegChangeText: "https://agency.gov/x"},
	}

	out, invalid := NewProcessor().ProcessAll(docs)
	if len(out) != 4 || invalid != 1 {
		t.Errorf("Expected 4 documents and 1 invalid, got %d and %d", len(out), invalid)
	}

	if out[1].Summary != "Only a summary" {
		t.Errorf("Summary = %q, want %q", out[1].Summary, "Only a summary")
	}

	if docs[1].Summary != "  Only a  summary " {
		t.Error("ProcessAll must not modify its input")
	}
}
