// Package resolver picks one authoritative translation per verse when
// several candidate records exist.
package resolver

import (
	"fmt"

	"github.com/starford/versedraft/internal/models"
)

// Policy names accepted by ByName.
const (
	NameLeastCommon   = "least-common"
	NameMostRecent    = "most-recent"
	NameReviewedFirst = "reviewed-first"
)

// Names lists every policy name, default first.
var Names = []string{NameLeastCommon, NameMostRecent, NameReviewedFirst}

// Policy chooses the translated text for records sharing one verse key.
// Records arrive in insertion order. ok is false when no record has text.
type Policy interface {
	Resolve(records []models.TranslationRecord) (text string, ok bool)
}

// ByName returns the policy registered under name. An empty name selects
// LeastCommon.
func ByName(name string) (Policy, error) {
	switch name {
	case "", NameLeastCommon:
		return LeastCommon{}, nil
	case NameMostRecent:
		return MostRecent{}, nil
	case NameReviewedFirst:
		return ReviewedFirst{}, nil
	}
	return nil, fmt.Errorf("resolver: unknown policy %q", name)
}

// LeastCommon picks the distinct text with the fewest occurrences, treating
// the majority value as an accumulated stale duplicate and the rare value
// as a manual correction. Ties go to the value encountered first.
type LeastCommon struct{}

func (LeastCommon) Resolve(records []models.TranslationRecord) (string, bool) {
	counts := make(map[string]int)
	var order []string
	for _, r := range records {
		text := r.Text()
		if text == "" {
			continue
		}
		if counts[text] == 0 {
			order = append(order, text)
		}
		counts[text]++
	}
	if len(order) == 0 {
		return "", false
	}
	best := order[0]
	for _, text := range order[1:] {
		if counts[text] < counts[best] {
			best = text
		}
	}
	return best, true
}

// MostRecent picks the text of the newest record. Equal timestamps go to
// the record encountered last.
type MostRecent struct{}

func (MostRecent) Resolve(records []models.TranslationRecord) (string, bool) {
	var latest *models.TranslationRecord
	for i := range records {
		r := &records[i]
		if r.Text() == "" {
			continue
		}
		if latest == nil || !r.CreatedAt.Before(latest.CreatedAt) {
			latest = r
		}
	}
	if latest == nil {
		return "", false
	}
	return latest.Text(), true
}

// ReviewedFirst lets a reviewed record override everything else; among
// reviewed records the newest wins. Without any reviewed record it falls
// back to LeastCommon.
type ReviewedFirst struct{}

func (ReviewedFirst) Resolve(records []models.TranslationRecord) (string, bool) {
	var reviewed []models.TranslationRecord
	for _, r := range records {
		if r.IsReviewed {
			reviewed = append(reviewed, r)
		}
	}
	if text, ok := (MostRecent{}).Resolve(reviewed); ok {
		return text, true
	}
	return LeastCommon{}.Resolve(records)
}
