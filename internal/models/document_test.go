package models

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDocument_MarshalSparse(t *testing.T) {
	doc := Document{Source: "SEC", Title: "Final rule"}

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if len(fields) != 2 {
		t.Fatalf("Expected exactly 2 fields, got %d: %s", len(fields), data)
	}

	if fields["source"] != "SEC" || fields["title"] != "Final rule" {
		t.Errorf("Unexpected fields: %s", data)
	}
}

func TestDocument_SetGet(t *testing.T) {
	var doc Document

	for _, name := range FieldNames() {
		if err := doc.Set(name, "v-"+name); err != nil {
			t.Fatalf("Set(%s) failed: %v", name, err)
		}
	}

	for _, name := range FieldNames() {
		got, err := doc.Get(name)
		if err != nil {
			t.Fatalf("Get(%s) failed: %v", name, err)
		}

		if got != "v-"+name {
			t.Errorf("Get(%s) = %q, want %q", name, got, "v-"+name)
		}
	}

	if len(doc.Fields()) != len(FieldNames()) {
		t.Errorf("Expected %d fields, got %d", len(FieldNames()), len(doc.Fields()))
	}
}

func TestDocument_SetUnknownField(t *testing.T) {
	var doc Document

	err := doc.Set("author", "x")
	if !errors.Is(err, ErrUnknownField) {
		t.Errorf("Expected ErrUnknownField, got %v", err)
	}

	err = doc.SetIfPresent("author", "")
	if !errors.Is(err, ErrUnknownField) {
		t.Errorf("Expected ErrUnknownField for empty value, got %v", err)
	}
}

func TestDocument_SetIfPresentKeepsValue(t *testing.T) {
	doc := Document{Title: "Default"}

	if err := doc.SetIfPresent(FieldTitle, ""); err != nil {
		t.Fatalf("SetIfPresent failed: %v", err)
	}

	if doc.Title != "Default" {
		t.Errorf("Expected title to stay Default, got %q", doc.Title)
	}
}

func TestNewDocument_Defaults(t *testing.T) {
	doc, err := NewDocument(map[string]string{
		"issuingAuthority": "FCA",
		"regType":          "Guidance",
	})
	if err != nil {
		t.Fatalf("NewDocument failed: %v", err)
	}

	if doc.IssuingAuthority != "FCA" || doc.RegType != "Guidance" {
		t.Errorf("Defaults not applied: %+v", doc)
	}

	if _, err := NewDocument(map[string]string{"bogus": "x"}); !errors.Is(err, ErrUnknownField) {
		t.Errorf("Expected ErrUnknownField, got %v", err)
	}
}

func TestDocument_Key(t *testing.T) {
	a := Document{Source: "S", Title: "T", PublishedOn: "2024-01-02", Summary: "one"}
	b := Document{Source: "S", Title: "T", PublishedOn: "2024-01-02", Summary: "two"}
	c := Document{Source: "S", Title: "T"}

	if a.Key() != b.Key() {
		t.Error("Expected keys to ignore summary")
	}

	if a.Key() == c.Key() {
		t.Error("Expected missing publishedOn to differ from a set one")
	}
}

func TestRawContent_IsFetchError(t *testing.T) {
	failed := FetchError("http://x", errors.New("timeout"))
	if !failed.IsFetchError() {
		t.Errorf("Expected fetch error sentinel, got %q", failed.Payload)
	}

	ok := RawContent{Payload: "<rss/>", ContentType: ContentXML}
	if ok.IsFetchError() {
		t.Error("Did not expect fetch error")
	}
}
