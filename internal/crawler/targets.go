package crawler

import (
	"net/url"
	"time"

	"regscan/internal/config"
)

// Federal Register style query parameters.
const (
	paramPublicationDate = "conditions[publication_date][is]"
	paramAgencies        = "conditions[agencies][]"
	paramTerms           = "conditions[type][]"
	publicationLayout    = "2006-01-02"
)

// Target is one concrete fetch: a (possibly fanned-out) source id and its URLs.
type Target struct {
	Source     string
	URL        string
	BackupURLs []string
}

// URLs returns the primary URL followed by backups, skipping empty entries.
func (t Target) URLs() []string {
	urls := make([]string, 0, 1+len(t.BackupURLs))

	for _, u := range append([]string{t.URL}, t.BackupURLs...) {
		if u != "" {
			urls = append(urls, u)
		}
	}

	return urls
}

// Targets expands a source into its fetch targets. Paginated JSON sources fan
// out into one query per agency chunk named BASE-1..BASE-n; all other sources
// yield a single target under their own id.
func Targets(src config.SourceConfig, now time.Time) []Target {
	if !src.IsPaginated() {
		return []Target{{Source: src.Source, URL: src.URL, BackupURLs: src.BackupURLs}}
	}

	p := src.Parser.Pagination

	base := p.BaseURL
	if base == "" {
		base = src.URL
	}

	date := now.Format(publicationLayout)
	chunks := ChunkAgencies(p.Agencies, p.ChunkSize())

	targets := make([]Target, 0, len(chunks))
	for i, chunk := range chunks {
		targets = append(targets, Target{
			Source: config.FanOutID(src.Source, i+1),
			URL:    BuildPaginatedURL(base, date, chunk, p.Terms),
		})
	}

	return targets
}

// ChunkAgencies splits agencies into groups of at most size. No agencies
// yields a single empty chunk so the query still runs on date and terms.
func ChunkAgencies(agencies []string, size int) [][]string {
	if len(agencies) == 0 {
		return [][]string{nil}
	}

	if size <= 0 {
		size = config.DefaultAgenciesPerRequest
	}

	chunks := make([][]string, 0, (len(agencies)+size-1)/size)
	for start := 0; start < len(agencies); start += size {
		end := min(start+size, len(agencies))
		chunks = append(chunks, agencies[start:end])
	}

	return chunks
}

// BuildPaginatedURL adds publication date, agency and term conditions to base,
// keeping any query parameters base already carries.
func BuildPaginatedURL(base, date string, agencies, terms []string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}

	q := u.Query()
	q.Set(paramPublicationDate, date)

	for _, a := range agencies {
		q.Add(paramAgencies, a)
	}

	for _, t := range terms {
		q.Add(paramTerms, t)
	}

	u.RawQuery = q.Encode()

	return u.String()
}
