package analysis

import (
	"strings"

	"github.com/contoso-travel/chat-agent/server/internal/agent/model"
)

// Vocabularies of the customer query classifier.
var (
	Emotions     = []string{"happy", "sad", "angry", "neutral"}
	Intents      = []string{"book_flight", "cancel_flight", "change_flight", "inquire", "complaint"}
	Requirements = []string{"business", "economy", "first_class"}
	Preferences  = []string{"window", "aisle", "extra_legroom"}
)

var (
	emotionRules = []keywordRule{
		{keywords: []string{"angry", "furious", "unacceptable", "worst", "terrible", "outraged"}, label: "angry"},
		{keywords: []string{"sad", "disappointed", "upset", "unfortunately", "missed"}, label: "sad"},
		{keywords: []string{"happy", "great", "thank", "excited", "love", "wonderful"}, label: "happy"},
	}
	customerIntentRules = []keywordRule{
		{keywords: []string{"cancel"}, label: "cancel_flight"},
		{keywords: []string{"change", "reschedule", "rebook", "move my"}, label: "change_flight"},
		{keywords: []string{"complain", "complaint", "lost", "refund", "delayed", "rude"}, label: "complaint"},
		{keywords: []string{"book", "reserve", "buy", "ticket"}, label: "book_flight"},
	}
	requirementRules = []keywordRule{
		{keywords: []string{"first class", "first-class", "first_class"}, label: "first_class"},
		{keywords: []string{"business"}, label: "business"},
	}
	preferenceRules = []keywordRule{
		{keywords: []string{"legroom", "leg room", "exit row"}, label: "extra_legroom"},
		{keywords: []string{"aisle"}, label: "aisle"},
		{keywords: []string{"window"}, label: "window"},
	}
)

// AnalyzeCustomer classifies a customer's flight query. Every field holds a
// value from its vocabulary; queries without a cue get neutral, inquire,
// economy and window.
func AnalyzeCustomer(query string) model.CustomerQueryAnalysis {
	lower := strings.ToLower(query)
	return model.CustomerQueryAnalysis{
		CustomerQuery: query,
		Emotion:       firstMatch(lower, emotionRules, "neutral"),
		Intent:        firstMatch(lower, customerIntentRules, "inquire"),
		Requirements:  firstMatch(lower, requirementRules, "economy"),
		Preferences:   firstMatch(lower, preferenceRules, "window"),
	}
}
