// Package normalizer cleans parsed documents before they are accumulated.
package normalizer

import (
	"fmt"

	"regscan/internal/models"
)

// Processor transforms and then validates documents.
type Processor struct {
	validator   *Validator
	transformer *Transformer
}

// NewProcessor creates a new processor instance.
func NewProcessor() *Processor {
	return &Processor{
		validator:   NewValidator(),
		transformer: NewTransformer(),
	}
}

// Process normalizes doc. The normalized document is always returned; the
// error reports a validation problem with it.
func (p *Processor) Process(doc models.Document) (models.Document, error) {
	normalized := p.transformer.Transform(doc)

	if err := p.validator.Validate(&normalized); err != nil {
		return normalized, fmt.Errorf("validation failed: %w", err)
	}

	return normalized, nil
}

// ProcessAll normalizes every document into a new slice. No document is
// dropped; the count of documents that failed validation is returned.
func (p *Processor) ProcessAll(docs []models.Document) ([]models.Document, int) {
	out := make([]models.Document, len(docs))
	invalid := 0

	for i, doc := range docs {
		normalized, err := p.Process(doc)
		if err != nil {
			invalid++
		}

		out[i] = normalized
	}

	return out, invalid
}
