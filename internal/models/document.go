// Package models defines the canonical records produced by the scanner.
package models

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownField is returned when a field name does not belong to Document.
var ErrUnknownField = errors.New("unknown document field")

// Document is the normalized regulatory-change record.
// Every field is optional; empty fields are omitted when serialized.
type Document struct {
	Source              string `json:"source,omitempty"`
	TypeOfChange        string `json:"typeOfChange,omitempty"`
	EventType           string `json:"eventType,omitempty"`
	Category            string `json:"category,omitempty"`
	IssuingAuthority    string `json:"issuingAuthority,omitempty"`
	Identifier          string `json:"identifier,omitempty"`
	Title               string `json:"title,omitempty"`
	Summary             string `json:"summary,omitempty"`
	LinkToRegChangeText string `json:"linkToRegChangeText,omitempty"`
	PublishedOn         string `json:"publishedOn,omitempty"`
	HTMLContent         string `json:"htmlContent,omitempty"`
	PDFContent          string `json:"pdfContent,omitempty"`
	IntroducedOn        string `json:"introducedOn,omitempty"`
	CitationID          string `json:"citationId,omitempty"`
	BillType            string `json:"billType,omitempty"`
	RegType             string `json:"regType,omitempty"`
	Year                string `json:"year,omitempty"`
	RegulationStatus    string `json:"regulationStatus,omitempty"`
	BillStatus          string `json:"billStatus,omitempty"`
	FirstEffectiveDate  string `json:"firstEffectiveDate,omitempty"`
	Comments            string `json:"comments,omitempty"`
	EnactedDate         string `json:"enactedDate,omitempty"`
	Topic               string `json:"topic,omitempty"`
}

// Field names as they appear on the wire and in configuration.
const (
	FieldSource              = "source"
	FieldTypeOfChange        = "typeOfChange"
	FieldEventType           = "eventType"
	FieldCategory            = "category"
	FieldIssuingAuthority    = "issuingAuthority"
	FieldIdentifier          = "identifier"
	FieldTitle               = "title"
	FieldSummary             = "summary"
	FieldLinkToRegChangeText = "linkToRegChangeText"
	FieldPublishedOn         = "publishedOn"
	FieldHTMLContent         = "htmlContent"
	FieldPDFContent          = "pdfContent"
	FieldIntroducedOn        = "introducedOn"
	FieldCitationID          = "citationId"
	FieldBillType            = "billType"
	FieldRegType             = "regType"
	FieldYear                = "year"
	FieldRegulationStatus    = "regulationStatus"
	FieldBillStatus          = "billStatus"
	FieldFirstEffectiveDate  = "firstEffectiveDate"
	FieldComments            = "comments"
	FieldEnactedDate         = "enactedDate"
	FieldTopic               = "topic"
)

type fieldAccessor func(d *Document) *string

// fieldTable lists every Document field in declaration order.
var fieldTable = []struct {
	name   string
	access fieldAccessor
}{
	{FieldSource, func(d *Document) *string { return &d.Source }},
	{FieldTypeOfChange, func(d *Document) *string { return &d.TypeOfChange }},
	{FieldEventType, func(d *Document) *string { return &d.EventType }},
	{FieldCategory, func(d *Document) *string { return &d.Category }},
	{FieldIssuingAuthority, func(d *Document) *string { return &d.IssuingAuthority }},
	{FieldIdentifier, func(d *Document) *string { return &d.Identifier }},
	{FieldTitle, func(d *Document) *string { return &d.Title }},
	{FieldSummary, func(d *Document) *string { return &d.Summary }},
	{FieldLinkToRegChangeText, func(d *Document) *string { return &d.LinkToRegChangeText }},
	{FieldPublishedOn, func(d *Document) *string { return &d.PublishedOn }},
	{FieldHTMLContent, func(d *Document) *string { return &d.HTMLContent }},
	{FieldPDFContent, func(d *Document) *string { return &d.PDFContent }},
	{FieldIntroducedOn, func(d *Document) *string { return &d.IntroducedOn }},
	{FieldCitationID, func(d *Document) *string { return &d.CitationID }},
	{FieldBillType, func(d *Document) *string { return &d.BillType }},
	{FieldRegType, func(d *Document) *string { return &d.RegType }},
	{FieldYear, func(d *Document) *string { return &d.Year }},
	{FieldRegulationStatus, func(d *Document) *string { return &d.RegulationStatus }},
	{FieldBillStatus, func(d *Document) *string { return &d.BillStatus }},
	{FieldFirstEffectiveDate, func(d *Document) *string { return &d.FirstEffectiveDate }},
	{FieldComments, func(d *Document) *string { return &d.Comments }},
	{FieldEnactedDate, func(d *Document) *string { return &d.EnactedDate }},
	{FieldTopic, func(d *Document) *string { return &d.Topic }},
}

var fieldIndex = func() map[string]fieldAccessor {
	index := make(map[string]fieldAccessor, len(fieldTable))
	for _, f := range fieldTable {
		index[f.name] = f.access
	}

	return index
}()

// Key is the identity used when merging documents.
type Key struct {
	Source      string
	Title       string
	PublishedOn string
}

// NewDocument creates a document seeded with the given default values.
func NewDocument(defaults map[string]string) (Document, error) {
	var doc Document

	// Sorted so the reported error is stable.
	names := make([]string, 0, len(defaults))
	for name := range defaults {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		if err := doc.Set(name, defaults[name]); err != nil {
			return Document{}, fmt.Errorf("invalid default: %w", err)
		}
	}

	return doc, nil
}

// IsField reports whether name is a Document field.
func IsField(name string) bool {
	_, ok := fieldIndex[name]

	return ok
}

// FieldNames returns all field names in declaration order.
func FieldNames() []string {
	names := make([]string, len(fieldTable))
	for i, f := range fieldTable {
		names[i] = f.name
	}

	return names
}

// Get returns the value of the named field.
func (d *Document) Get(name string) (string, error) {
	access, ok := fieldIndex[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownField, name)
	}

	return *access(d), nil
}

// Set assigns the named field.
func (d *Document) Set(name, value string) error {
	access, ok := fieldIndex[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}

	*access(d) = value

	return nil
}

// SetIfPresent assigns the named field only when value is non-empty.
func (d *Document) SetIfPresent(name, value string) error {
	if value == "" {
		if !IsField(name) {
			return fmt.Errorf("%w: %s", ErrUnknownField, name)
		}

		return nil
	}

	return d.Set(name, value)
}

// Fields returns the non-empty fields keyed by name.
func (d *Document) Fields() map[string]string {
	fields := make(map[string]string)

	for _, f := range fieldTable {
		if v := *f.access(d); v != "" {
			fields[f.name] = v
		}
	}

	return fields
}

// Key returns the merge identity of the document.
func (d *Document) Key() Key {
	return Key{
		Source:      d.Source,
		Title:       d.Title,
		PublishedOn: d.PublishedOn,
	}
}
