package answer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xaenox/member-qa/internal/models"
)

func msg(id, text string) models.Message {
	return models.Message{
		ID:        id,
		UserName:  "Layla Hassan",
		Text:      text,
		Timestamp: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestKeywordEmptyContext(t *testing.T) {
	got, err := NewKeyword().Answer(context.Background(), "When is the trip?", nil)
	require.NoError(t, err)
	assert.Equal(t, InsufficientAnswer, got)
}

func TestKeywordQuotesMatchingMessages(t *testing.T) {
	msgs := []models.Message{
		msg("1", "Planning my trip to London in June"),
		msg("2", "Dinner reservation for Friday"),
		msg("3", "Trip insurance sorted"),
	}

	got, err := NewKeyword().Answer(context.Background(), "When is the trip to London?", msgs)
	require.NoError(t, err)
	assert.Contains(t, got, "Based on the messages:")
	assert.Contains(t, got, "Planning my trip to London in June")
	assert.Contains(t, got, "Trip insurance sorted")
	assert.NotContains(t, got, "Dinner reservation")
}

func TestKeywordCapsQuotedMessages(t *testing.T) {
	msgs := []models.Message{
		msg("1", "trip one"),
		msg("2", "trip two"),
		msg("3", "trip three"),
		msg("4", "trip four"),
	}

	got, err := NewKeyword().Answer(context.Background(), "Which trip?", msgs)
	require.NoError(t, err)
	assert.Contains(t, got, "trip three")
	assert.NotContains(t, got, "trip four")
}

func TestKeywordNoMatchingKeywords(t *testing.T) {
	msgs := []models.Message{
		msg("1", "Dinner reservation for Friday"),
	}

	got, err := NewKeyword().Answer(context.Background(), "Anything about sailing?", msgs)
	require.NoError(t, err)
	assert.Equal(t, InsufficientAnswer, got)
}

func TestKeywordDeterministic(t *testing.T) {
	msgs := []models.Message{
		msg("1", "Planning my trip to London"),
		msg("2", "London again next week"),
	}

	first, err := NewKeyword().Answer(context.Background(), "trip to London?", msgs)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		got, err := NewKeyword().Answer(context.Background(), "trip to London?", msgs)
		require.NoError(t, err)
		require.Equal(t, first, got)
	}
}
