package models

import "strings"

// ContentType tags a fetched payload.
type ContentType string

// Content type tags reported by the fetcher.
const (
	ContentHTML ContentType = "html"
	ContentXML  ContentType = "xml"
	ContentJSON ContentType = "json"
)

// FetchErrorMarker prefixes payloads of failed fetches.
const FetchErrorMarker = "Error:"

// RawContent is a fetched payload for one source.
type RawContent struct {
	URL         string      `json:"url"`
	Payload     string      `json:"-"`
	ContentType ContentType `json:"contentType"`
}

// IsFetchError reports whether the payload is a fetch failure sentinel.
func (r RawContent) IsFetchError() bool {
	return strings.HasPrefix(r.Payload, FetchErrorMarker)
}

// FetchError builds the sentinel payload for a failed fetch.
func FetchError(url string, err error) RawContent {
	return RawContent{
		URL:         url,
		Payload:     FetchErrorMarker + " " + err.Error(),
		ContentType: ContentHTML,
	}
}
