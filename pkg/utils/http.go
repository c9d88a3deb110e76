package utils

import (
	"net/http"
	"net/url"
)

// DefaultUserAgent identifies the scanner to remote servers.
const DefaultUserAgent = "regscan/1.0 (+regulatory change scanner)"

// HTTPHelper provides HTTP utility functions.
type HTTPHelper struct {
	userAgent string
}

// NewHTTPHelper creates a new HTTP helper. An empty user agent selects DefaultUserAgent.
func NewHTTPHelper(userAgent string) *HTTPHelper {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	return &HTTPHelper{userAgent: userAgent}
}

// IsValidURL reports whether raw is an absolute http(s) URL.
func (h *HTTPHelper) IsValidURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}

	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// ResolveURL resolves ref against base. Unparseable input is returned as given.
func (h *HTTPHelper) ResolveURL(base, ref string) string {
	if ref == "" {
		return ""
	}

	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}

	baseURL, err := url.Parse(base)
	if err != nil || base == "" {
		return refURL.String()
	}

	return baseURL.ResolveReference(refURL).String()
}

// BuildHeaders creates HTTP headers with defaults.
func (h *HTTPHelper) BuildHeaders(customHeaders map[string]string) http.Header {
	headers := http.Header{}

	headers.Set("User-Agent", h.userAgent)
	headers.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, application/json, text/html;q=0.9, */*;q=0.8")

	for key, value := range customHeaders {
		headers.Set(key, value)
	}

	return headers
}
