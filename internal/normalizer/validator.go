package normalizer

import (
	"errors"

	"regscan/internal/models"
)

// ErrEmptyDocument is reported for documents that carry nothing identifying.
var ErrEmptyDocument = errors.New("document has no title, link or identifier")

// Validator handles document validation.
type Validator struct{}

// NewValidator creates a new validator instance.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks that a document has a title, link or identifier.
func (v *Validator) Validate(doc *models.Document) error {
	if doc.Title == "" && doc.LinkToRegChangeText == "" && doc.Identifier == "" {
		return ErrEmptyDocument
	}

	return nil
}
