package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/contoso-travel/chat-agent/server/internal/agent/model"
)

func TestAnalyzeCustomer(t *testing.T) {
	cases := []struct {
		query string
		want  model.CustomerQueryAnalysis
	}{
		{
			query: "I want to book a business class ticket with a window seat, thanks!",
			want:  model.CustomerQueryAnalysis{Emotion: "happy", Intent: "book_flight", Requirements: "business", Preferences: "window"},
		},
		{
			query: "This is unacceptable, cancel my flight now",
			want:  model.CustomerQueryAnalysis{Emotion: "angry", Intent: "cancel_flight", Requirements: "economy", Preferences: "window"},
		},
		{
			query: "Unfortunately I need to change my first class booking, aisle please",
			want:  model.CustomerQueryAnalysis{Emotion: "sad", Intent: "change_flight", Requirements: "first_class", Preferences: "aisle"},
		},
		{
			query: "My bag was lost. I'd like extra legroom next time",
			want:  model.CustomerQueryAnalysis{Emotion: "neutral", Intent: "complaint", Requirements: "economy", Preferences: "extra_legroom"},
		},
		{
			query: "What time does boarding start?",
			want:  model.CustomerQueryAnalysis{Emotion: "neutral", Intent: "inquire", Requirements: "economy", Preferences: "window"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			tc.want.CustomerQuery = tc.query
			assert.Equal(t, tc.want, AnalyzeCustomer(tc.query))
		})
	}
}

func TestAnalyzeCustomerStaysInVocabulary(t *testing.T) {
	for _, q := range []string{"", "???", "cancel book change refund", "ANGRY HAPPY sad"} {
		res := AnalyzeCustomer(q)
		assert.Contains(t, Emotions, res.Emotion)
		assert.Contains(t, Intents, res.Intent)
		assert.Contains(t, Requirements, res.Requirements)
		assert.Contains(t, Preferences, res.Preferences)
	}
}
