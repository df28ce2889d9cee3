// Package moderation screens user-generated text before it is persisted.
package moderation

import (
	"context"
	"strings"

	"github.com/ripple-app/backend/internal/models"
)

// Classifier judges whether a piece of text violates content policy.
type Classifier interface {
	Classify(ctx context.Context, text string) (models.ModerationResult, error)
}

// KeywordClassifier flags text by substring match against per-category
// term lists. Deliberately coarse; it exists so the moderation pipeline
// has a dependency-free default.
type KeywordClassifier struct {
	categories map[string][]string
}

// NewKeywordClassifier builds a classifier with the default term lists.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{
		categories: map[string][]string{
			"hate":     {"hate"},
			"violence": {"violence", "threat", "kill you"},
			"sexual":   {"sexual", "explicit"},
		},
	}
}

// Classify never returns an error; the signature leaves room for remote
// classifiers behind the same interface.
func (k *KeywordClassifier) Classify(_ context.Context, text string) (models.ModerationResult, error) {
	result := models.ModerationResult{}
	lower := strings.ToLower(text)

	for category, terms := range k.categories {
		for _, term := range terms {
			if strings.Contains(lower, term) {
				result.Flagged = true
				if result.Categories == nil {
					result.Categories = make(map[string]bool)
				}
				result.Categories[category] = true
				break
			}
		}
	}

	return result, nil
}
