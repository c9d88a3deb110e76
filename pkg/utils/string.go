// Package utils provides common utility functions.
package utils

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"
)

var markupPattern = regexp.MustCompile(`<[^>]+>`)

// StringHelper provides string utility functions.
type StringHelper struct{}

// NewStringHelper creates a new string helper.
func NewStringHelper() *StringHelper {
	return &StringHelper{}
}

// TrimWhitespace removes leading and trailing whitespace.
func (s *StringHelper) TrimWhitespace(str string) string {
	return strings.TrimSpace(str)
}

// NormalizeWhitespace composes the text to NFC and collapses runs of whitespace to one space.
func (s *StringHelper) NormalizeWhitespace(str string) string {
	return strings.Join(strings.Fields(norm.NFC.String(str)), " ")
}

// HasMarkup reports whether the text contains an HTML tag.
func (s *StringHelper) HasMarkup(str string) bool {
	return markupPattern.MatchString(str)
}

// StripMarkup returns the normalized plain text of an HTML fragment.
// Text without markup is only normalized.
func (s *StringHelper) StripMarkup(str string) string {
	if !s.HasMarkup(str) {
		return s.NormalizeWhitespace(str)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(str))
	if err != nil {
		return s.NormalizeWhitespace(markupPattern.ReplaceAllString(str, " "))
	}

	// Block-level boundaries would otherwise glue words together.
	doc.Find("br, p, div, li, td, th, h1, h2, h3, h4, h5, h6").Each(func(_ int, sel *goquery.Selection) {
		sel.AppendHtml(" ")
	})

	return s.NormalizeWhitespace(doc.Text())
}

// TruncateString truncates string to max length in runes.
func (s *StringHelper) TruncateString(str string, maxLength int) string {
	runes := []rune(str)
	if len(runes) <= maxLength {
		return str
	}

	return string(runes[:maxLength]) + "..."
}
