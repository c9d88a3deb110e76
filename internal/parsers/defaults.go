package parsers

import (
	"fmt"
	"strings"

	"regscan/internal/logger"
	"regscan/internal/models"
)

const (
	placeholderOpen  = "${"
	placeholderClose = "}"
)

// HasPlaceholder reports whether value contains a ${field} expression.
func HasPlaceholder(value string) bool {
	return strings.Contains(value, placeholderOpen)
}

// Render substitutes every ${field} in tmpl with the named value from fields.
// Names must be Document fields; fields absent from the map render as "".
func Render(tmpl string, fields map[string]string) (string, error) {
	var b strings.Builder

	rest := tmpl
	for {
		open := strings.Index(rest, placeholderOpen)
		if open < 0 {
			b.WriteString(rest)
			break
		}

		b.WriteString(rest[:open])
		rest = rest[open+len(placeholderOpen):]

		end := strings.Index(rest, placeholderClose)
		if end < 0 {
			return "", fmt.Errorf("%w in %q", ErrUnterminatedPattern, tmpl)
		}

		name := strings.TrimSpace(rest[:end])
		if !models.IsField(name) {
			return "", fmt.Errorf("%w: %q", ErrUnknownPlaceholder, name)
		}

		b.WriteString(fields[name])
		rest = rest[end+len(placeholderClose):]
	}

	return b.String(), nil
}

// DefaultResolver renders placeholder expressions against the document's own fields.
type DefaultResolver struct {
	logger *logger.Logger
}

// NewDefaultResolver creates a resolver.
func NewDefaultResolver(log *logger.Logger) *DefaultResolver {
	return &DefaultResolver{logger: log}
}

// Resolve renders every field holding a placeholder. Values are taken from a
// snapshot taken before rendering, so substitution is single-pass.
func (r *DefaultResolver) Resolve(doc models.Document) models.Document {
	snapshot := doc.Fields()

	for _, name := range models.FieldNames() {
		value := snapshot[name]
		if !HasPlaceholder(value) {
			continue
		}

		rendered, err := Render(value, snapshot)
		if err != nil {
			r.logger.Warn("Default not rendered", "source", doc.Source, "field", name, "error", err)
			continue
		}

		// name comes from the field table.
		_ = doc.Set(name, rendered)
	}

	return doc
}
