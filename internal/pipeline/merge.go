package pipeline

import "regscan/internal/models"

// MergeDocuments appends each incoming document whose (source, title,
// publishedOn) key is not already present. The first document with a key wins.
// current is not modified.
func MergeDocuments(current, incoming []models.Document) []models.Document {
	merged := make([]models.Document, len(current), len(current)+len(incoming))
	copy(merged, current)

	seen := make(map[models.Key]struct{}, len(current)+len(incoming))
	for _, doc := range current {
		seen[doc.Key()] = struct{}{}
	}

	for _, doc := range incoming {
		key := doc.Key()
		if _, ok := seen[key]; ok {
			continue
		}

		seen[key] = struct{}{}
		merged = append(merged, doc)
	}

	return merged
}
