package normalizer

import (
	"regscan/internal/models"
	"regscan/pkg/utils"
)

// rawFields keep their original formatting.
var rawFields = map[string]bool{
	models.FieldHTMLContent: true,
	models.FieldPDFContent:  true,
}

// Transformer normalizes document text.
type Transformer struct {
	text *utils.StringHelper
}

// NewTransformer creates a new transformer instance.
func NewTransformer() *Transformer {
	return &Transformer{text: utils.NewStringHelper()}
}

// Transform collapses whitespace and composes unicode in every text field.
// Markup-bearing fields are only trimmed.
func (t *Transformer) Transform(doc models.Document) models.Document {
	for name, value := range doc.Fields() {
		normalized := t.text.NormalizeWhitespace(value)
		if rawFields[name] {
			normalized = t.text.TrimWhitespace(value)
		}

		if normalized != value {
			// Field names come from Fields.
			_ = doc.Set(name, normalized)
		}
	}

	return doc
}
