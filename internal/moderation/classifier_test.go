package moderation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywordClassifierCleanText(t *testing.T) {
	c := NewKeywordClassifier()

	result, err := c.Classify(context.Background(), "hey, want to grab lunch tomorrow?")
	require.NoError(t, err)
	assert.False(t, result.Flagged)
	assert.Empty(t, result.Categories)
}

func TestKeywordClassifierFlagsCategories(t *testing.T) {
	c := NewKeywordClassifier()

	result, err := c.Classify(context.Background(), "I HATE this and will respond with VIOLENCE")
	require.NoError(t, err)
	assert.True(t, result.Flagged)
	assert.True(t, result.Categories["hate"])
	assert.True(t, result.Categories["violence"])
	assert.False(t, result.Categories["sexual"])
}

func TestKeywordClassifierCaseInsensitive(t *testing.T) {
	c := NewKeywordClassifier()

	result, err := c.Classify(context.Background(), "ThReAt")
	require.NoError(t, err)
	assert.True(t, result.Flagged)
	assert.True(t, result.Categories["violence"])
}
