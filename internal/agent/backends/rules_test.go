package backends

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contoso-travel/chat-agent/server/internal/agent/model"
)

func TestFallbackReplies(t *testing.T) {
	f := NewFallback(nil)
	ctx := context.Background()

	cases := []struct {
		message string
		prefix  string
	}{
		{"Tell me about ICELAND", "Iceland is a fantastic destination!"},
		{"morocco or iceland?", "Iceland is a fantastic destination!"},
		{"Morocco in spring", "Morocco offers an amazing blend"},
		{"japan please", "Japan is a wonderful destination"},
		{"What does it cost?", "I can help you plan a trip within your budget."},
		{"my budget is small", "I can help you plan a trip within your budget."},
		{"Hello there", "Hello! I'm your AI travel assistant."},
		{"is this ok", "Hello! I'm your AI travel assistant."},
		{"Paris", "I understand you're interested in travel planning."},
		{"", "I understand you're interested in travel planning."},
	}
	for _, tc := range cases {
		t.Run(tc.message, func(t *testing.T) {
			reply := f.Respond(ctx, model.Turn{Message: tc.message})
			assert.Equal(t, model.BackendFallback, reply.Backend)
			assert.Contains(t, reply.Text, tc.prefix)
			assert.NotEmpty(t, reply.Suggestions)
		})
	}
}

func TestFallbackReplyTextIsFolded(t *testing.T) {
	reply := NewFallback(nil).Respond(context.Background(), model.Turn{Message: "iceland"})
	assert.Equal(t, "Iceland is a fantastic destination! I can help you plan a trip that includes "+
		"the Golden Circle, Blue Lagoon, and stunning waterfalls. Would you like me to create a detailed itinerary?", reply.Text)
}

func TestSuggest(t *testing.T) {
	assert.Equal(t, []string{
		"Show me a 7-day Iceland itinerary",
		"What's the best time to visit Iceland?",
		"Budget for Iceland trip",
	}, Suggest("Iceland in winter"))
	assert.Equal(t, []string{
		"Create a Morocco travel plan",
		"Best places in Morocco",
		"Morocco travel costs",
	}, Suggest("MOROCCO"))
	assert.Equal(t, []string{
		"Show me popular destinations",
		"Help me plan a trip",
		"What destinations do you recommend?",
	}, Suggest("japan"))

	got := Suggest("iceland")
	got[0] = "changed"
	assert.Equal(t, "Show me a 7-day Iceland itinerary", Suggest("iceland")[0])
}

func TestParseRuleTable(t *testing.T) {
	table, err := ParseRuleTable([]byte(`
replies:
  - keywords: [rome]
    text: Rome it is.
default_reply: Where to?
default_suggestions: [Anywhere]
`))
	require.NoError(t, err)
	assert.Equal(t, "Rome it is.", table.Reply("to ROME"))
	assert.Equal(t, "Where to?", table.Reply("oslo"))
	assert.Equal(t, []string{"Anywhere"}, table.Suggest("rome"))

	_, err = ParseRuleTable([]byte(`default_suggestions: [x]`))
	assert.ErrorContains(t, err, "default_reply")

	_, err = ParseRuleTable([]byte(`default_reply: x`))
	assert.ErrorContains(t, err, "default_suggestions")

	_, err = ParseRuleTable([]byte(`replies: {`))
	assert.Error(t, err)
}
