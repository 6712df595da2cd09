package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyzeIntent(t *testing.T) {
	cases := map[string]string{
		"Plan a week in Japan":                   IntentTripPlanning,
		"Can you build an ITINERARY":             IntentTripPlanning,
		"recommend a budget plan":                IntentTripPlanning,
		"What do you suggest?":                   IntentRecommendation,
		"Price of a ticket to Spain":             IntentBudget,
		"what is the best time to go to France?": IntentTiming,
		"When is it warm?":                       IntentTiming,
		"Tell me about Morocco":                  IntentGeneral,
		"":                                       IntentGeneral,
	}
	for query, want := range cases {
		assert.Equal(t, want, Analyze(query).Intent, query)
	}
}

func TestAnalyzeEntitiesInFixedOrder(t *testing.T) {
	res := Analyze("Spain, then Japan and finally ICELAND")
	assert.Equal(t, []string{"iceland", "japan", "spain"}, res.Entities)

	res = Analyze("Somewhere warm")
	assert.NotNil(t, res.Entities)
	assert.Empty(t, res.Entities)
}

func TestAnalyzeConfidenceAndRecommendations(t *testing.T) {
	res := Analyze("Trip to Italy")
	assert.Equal(t, "Trip to Italy", res.Query)
	assert.Equal(t, map[string]float32{"intent": 0.92, "entities": 0.87}, res.Confidence)
	assert.Equal(t, []string{
		"Consider booking flights 3-4 months in advance for better prices",
		"Check visa requirements for your destination",
		"Look into travel insurance options",
	}, res.Recommendations)

	res = Analyze("Switzerland on a BUDGET")
	assert.Len(t, res.Recommendations, 5)
	assert.Equal(t, "Use budget-friendly accommodations like hostels or Airbnb", res.Recommendations[3])
	assert.Equal(t, "Consider traveling during off-peak seasons", res.Recommendations[4])
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	assert.Equal(t, Analyze("plan iceland on a budget"), Analyze("plan iceland on a budget"))
}
