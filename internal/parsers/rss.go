package parsers

import (
	"context"
	"encoding/xml"
	"fmt"
	"sort"
	"strings"

	"regscan/internal/config"
	"regscan/internal/logger"
	"regscan/internal/models"
)

// Feed namespaces.
const (
	NamespaceAtom    = "http://www.w3.org/2005/Atom"
	NamespaceRDF     = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	NamespaceRSS1    = "http://purl.org/rss/1.0/"
	NamespaceDC      = "http://purl.org/dc/elements/1.1/"
	NamespaceMedia   = "http://search.yahoo.com/mrss/"
	NamespaceContent = "http://purl.org/rss/1.0/modules/content/"
)

// dialect maps a feed root element to the way its items are located.
type dialect struct {
	name  string
	root  xml.Name
	items func(root *node) []*node
}

var dialects = []dialect{
	{
		name: "rdf",
		root: xml.Name{Space: NamespaceRDF, Local: "RDF"},
		items: func(root *node) []*node {
			item := xml.Name{Space: NamespaceRSS1, Local: "item"}
			return root.descendants(func(n *node) bool { return n.is(item) })
		},
	},
	{
		name: "rss",
		root: xml.Name{Local: "rss"},
		items: func(root *node) []*node {
			var items []*node
			for _, channel := range root.childrenNamed(xml.Name{Local: "channel"}) {
				items = append(items, channel.childrenNamed(xml.Name{Local: "item"})...)
			}

			return items
		},
	},
	{
		name: "atom",
		root: xml.Name{Space: NamespaceAtom, Local: "feed"},
		items: func(root *node) []*node {
			return root.childrenNamed(xml.Name{Space: NamespaceAtom, Local: "entry"})
		},
	},
}

// fallbackItems finds item or entry elements anywhere, whatever their namespace.
func fallbackItems(root *node) []*node {
	return root.descendants(func(n *node) bool {
		return n.name.Local == "item" || n.name.Local == "entry"
	})
}

// candidate is one element that may carry a field value.
type candidate struct {
	name xml.Name
	// attr reads the value from an attribute instead of element text.
	attr string
	// deep searches all descendants instead of direct children.
	deep bool
	// accept filters matching elements.
	accept func(*node) bool
}

var (
	titleCandidates = []candidate{
		{name: xml.Name{Local: "title"}},
		{name: xml.Name{Space: NamespaceAtom, Local: "title"}},
		{name: xml.Name{Space: NamespaceRSS1, Local: "title"}},
		{name: xml.Name{Space: NamespaceDC, Local: "title"}},
		{name: xml.Name{Space: NamespaceMedia, Local: "title"}, deep: true},
	}

	summaryCandidates = []candidate{
		{name: xml.Name{Local: "description"}},
		{name: xml.Name{Space: NamespaceRSS1, Local: "description"}},
		{name: xml.Name{Space: NamespaceAtom, Local: "summary"}},
		{name: xml.Name{Space: NamespaceAtom, Local: "content"}},
		{name: xml.Name{Space: NamespaceContent, Local: "encoded"}},
		{name: xml.Name{Space: NamespaceDC, Local: "description"}},
		{name: xml.Name{Space: NamespaceMedia, Local: "description"}, deep: true},
	}

	dateCandidates = []candidate{
		{name: xml.Name{Local: "pubDate"}},
		{name: xml.Name{Space: NamespaceDC, Local: "date"}},
		{name: xml.Name{Space: NamespaceAtom, Local: "published"}},
		{name: xml.Name{Space: NamespaceAtom, Local: "updated"}},
	}

	linkCandidates = []candidate{
		{name: xml.Name{Local: "link"}},
		{name: xml.Name{Space: NamespaceRSS1, Local: "link"}},
		{name: xml.Name{Space: NamespaceAtom, Local: "link"}, attr: "href", accept: isAlternateLink},
		{name: xml.Name{Space: NamespaceAtom, Local: "link"}, attr: "href"},
		{name: xml.Name{Local: "guid"}, accept: isPermalink},
	}

	categoryCandidates = []candidate{
		{name: xml.Name{Local: "category"}},
		{name: xml.Name{Space: NamespaceAtom, Local: "category"}, attr: "term"},
		{name: xml.Name{Space: NamespaceDC, Local: "subject"}},
	}
)

func isAlternateLink(n *node) bool {
	rel := n.attr("rel")
	return rel == "" || rel == "alternate"
}

func isPermalink(n *node) bool {
	if strings.EqualFold(n.attr("isPermaLink"), "false") {
		return false
	}

	value := strings.TrimSpace(n.text())

	return strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://")
}

// matches returns the elements under item that satisfy c, in document order.
func (c candidate) matches(item *node) []*node {
	keep := func(n *node) bool {
		return n.is(c.name) && (c.accept == nil || c.accept(n))
	}

	if c.deep {
		return item.descendants(keep)
	}

	var out []*node

	for _, child := range item.children {
		if keep(child) {
			out = append(out, child)
		}
	}

	return out
}

func (c candidate) value(n *node) string {
	if c.attr != "" {
		return strings.TrimSpace(n.attr(c.attr))
	}

	return strings.TrimSpace(n.text())
}

// firstValue returns the first non-empty value across the ordered candidates.
func firstValue(item *node, candidates []candidate) string {
	for _, c := range candidates {
		for _, n := range c.matches(item) {
			if v := c.value(n); v != "" {
				return v
			}
		}
	}

	return ""
}

// allValues returns the distinct non-empty values of every candidate, sorted.
func allValues(item *node, candidates []candidate) []string {
	seen := make(map[string]struct{})

	for _, c := range candidates {
		for _, n := range c.matches(item) {
			if v := text.NormalizeWhitespace(c.value(n)); v != "" {
				seen[v] = struct{}{}
			}
		}
	}

	values := make([]string, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}

	sort.Strings(values)

	return values
}

// RSSParser reads RSS 2.0, RSS 1.0 (RDF) and Atom feeds.
type RSSParser struct {
	logger *logger.Logger
}

// NewRSSParser creates a feed parser.
func NewRSSParser(log *logger.Logger) *RSSParser {
	return &RSSParser{logger: log}
}

// Type implements Parser.
func (p *RSSParser) Type() config.ParserType {
	return config.ParserRSS
}

// Parse implements Parser. Items carrying no recognizable field are skipped.
func (p *RSSParser) Parse(ctx context.Context, payload string, src config.SourceConfig, baseURL string) ([]models.Document, error) {
	if strings.TrimSpace(payload) == "" {
		return nil, ErrEmptyPayload
	}

	root, err := decodeTree(payload)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", src.Source, err)
	}

	dialectName, items := selectItems(root)
	p.logger.Debug("Feed decoded", "source", src.Source, "dialect", dialectName, "items", len(items))

	docs := make([]models.Document, 0, len(items))

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return docs, err
		}

		doc, err := p.parseItem(item, src, baseURL)
		if err != nil {
			return docs, err
		}

		docs = append(docs, doc)
	}

	return docs, nil
}

func selectItems(root *node) (string, []*node) {
	for _, d := range dialects {
		if !root.is(d.root) {
			continue
		}

		if items := d.items(root); len(items) > 0 {
			return d.name, items
		}

		break
	}

	return "fallback", fallbackItems(root)
}

func (p *RSSParser) parseItem(item *node, src config.SourceConfig, baseURL string) (models.Document, error) {
	doc, err := seedDocument(src)
	if err != nil {
		return models.Document{}, err
	}

	title := text.NormalizeWhitespace(firstValue(item, titleCandidates))
	description := firstValue(item, summaryCandidates)
	published := NormalizeDate(firstValue(item, dateCandidates))
	link := links.ResolveURL(baseURL, firstValue(item, linkCandidates))
	categories := allValues(item, categoryCandidates)

	if title != "" {
		doc.Title = title
	}

	if description != "" {
		if text.HasMarkup(description) {
			doc.HTMLContent = description
			doc.Summary = text.StripMarkup(description)
		} else {
			doc.Summary = text.NormalizeWhitespace(description)
		}
	}

	if published != "" {
		doc.PublishedOn = published
	}

	if link != "" {
		doc.LinkToRegChangeText = link
	}

	if len(categories) > 0 {
		doc.Category = strings.Join(categories, ", ")
	}

	return doc, nil
}
