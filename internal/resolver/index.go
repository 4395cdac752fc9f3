package resolver

import "github.com/starford/versedraft/internal/models"

// Key identifies a verse within a book.
type Key struct {
	Chapter int
	Verse   int
}

// Index groups records by verse and resolves them on demand.
type Index struct {
	policy Policy
	groups map[Key][]models.TranslationRecord
}

// NewIndex groups records by (chapter, verse), keeping insertion order
// inside every group.
func NewIndex(policy Policy, records []models.TranslationRecord) *Index {
	groups := make(map[Key][]models.TranslationRecord)
	for _, r := range records {
		k := Key{Chapter: r.Chapter, Verse: r.Verse}
		groups[k] = append(groups[k], r)
	}
	return &Index{policy: policy, groups: groups}
}

// Translation resolves the text for a verse.
func (ix *Index) Translation(chapter, verse int) (string, bool) {
	records, ok := ix.groups[Key{Chapter: chapter, Verse: verse}]
	if !ok {
		return "", false
	}
	return ix.policy.Resolve(records)
}

// Len returns the number of verse keys that have at least one record.
func (ix *Index) Len() int {
	return len(ix.groups)
}

// HasContent reports whether any active record carries non-empty text.
func HasContent(records []models.TranslationRecord) bool {
	for _, r := range records {
		if r.IsActive && r.Text() != "" {
			return true
		}
	}
	return false
}
