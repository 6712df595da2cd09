// Package analysis extracts intent, destinations and advice from free-text
// travel queries with fixed keyword rules.
package analysis

import (
	"strings"

	"github.com/contoso-travel/chat-agent/server/internal/agent/model"
)

const (
	IntentTripPlanning   = "trip_planning"
	IntentRecommendation = "recommendation_request"
	IntentBudget         = "budget_inquiry"
	IntentTiming         = "timing_inquiry"
	IntentGeneral        = "general_inquiry"
)

// The classifier is rule based, so confidence is reported as fixed values.
const (
	intentConfidence   float32 = 0.92
	entitiesConfidence float32 = 0.87
)

type keywordRule struct {
	keywords []string
	label    string
}

var intentRules = []keywordRule{
	{keywords: []string{"plan", "itinerary"}, label: IntentTripPlanning},
	{keywords: []string{"recommend", "suggest"}, label: IntentRecommendation},
	{keywords: []string{"cost", "budget", "price"}, label: IntentBudget},
	{keywords: []string{"when", "best time"}, label: IntentTiming},
}

// Destinations lists the places recognised as entities, in reporting order.
var Destinations = []string{"iceland", "morocco", "japan", "italy", "switzerland", "france", "spain"}

var (
	baseRecommendations = []string{
		"Consider booking flights 3-4 months in advance for better prices",
		"Check visa requirements for your destination",
		"Look into travel insurance options",
	}
	budgetRecommendations = []string{
		"Use budget-friendly accommodations like hostels or Airbnb",
		"Consider traveling during off-peak seasons",
	}
)

// Analyze classifies query. It is pure and safe for concurrent use.
func Analyze(query string) model.AnalysisResult {
	lower := strings.ToLower(query)
	return model.AnalysisResult{
		Query:    query,
		Intent:   Intent(lower),
		Entities: Entities(lower),
		Confidence: map[string]float32{
			"intent":   intentConfidence,
			"entities": entitiesConfidence,
		},
		Recommendations: Recommendations(lower),
	}
}

// Intent returns the first matching intent label for a lower-cased query.
func Intent(lower string) string {
	return firstMatch(lower, intentRules, IntentGeneral)
}

// Entities returns the known destinations mentioned in a lower-cased query.
func Entities(lower string) []string {
	found := []string{}
	for _, d := range Destinations {
		if strings.Contains(lower, d) {
			found = append(found, d)
		}
	}
	return found
}

func Recommendations(lower string) []string {
	recs := append([]string(nil), baseRecommendations...)
	if strings.Contains(lower, "budget") {
		recs = append(recs, budgetRecommendations...)
	}
	return recs
}

func firstMatch(lower string, rules []keywordRule, fallback string) string {
	for _, r := range rules {
		for _, k := range r.keywords {
			if strings.Contains(lower, k) {
				return r.label
			}
		}
	}
	return fallback
}
