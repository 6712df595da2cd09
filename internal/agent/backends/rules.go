package backends

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed fallback.yaml
var fallbackYAML []byte

type replyRule struct {
	Keywords []string `yaml:"keywords"`
	Text     string   `yaml:"text"`
}

type suggestionRule struct {
	Keywords []string `yaml:"keywords"`
	Items    []string `yaml:"items"`
}

// RuleTable is the keyword table behind fallback replies and suggestions.
type RuleTable struct {
	Replies            []replyRule      `yaml:"replies"`
	DefaultReply       string           `yaml:"default_reply"`
	Suggestions        []suggestionRule `yaml:"suggestions"`
	DefaultSuggestions []string         `yaml:"default_suggestions"`
}

// ParseRuleTable decodes a rule table and checks that both defaults are set.
func ParseRuleTable(data []byte) (*RuleTable, error) {
	var t RuleTable
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse fallback rules: %w", err)
	}
	if strings.TrimSpace(t.DefaultReply) == "" {
		return nil, fmt.Errorf("parse fallback rules: default_reply is empty")
	}
	if len(t.DefaultSuggestions) == 0 {
		return nil, fmt.Errorf("parse fallback rules: default_suggestions is empty")
	}
	return &t, nil
}

var defaultRules = mustParseRuleTable(fallbackYAML)

func mustParseRuleTable(data []byte) *RuleTable {
	t, err := ParseRuleTable(data)
	if err != nil {
		panic(err)
	}
	return t
}

// Reply returns the text of the first matching rule, or the default reply.
func (t *RuleTable) Reply(message string) string {
	lower := strings.ToLower(message)
	for _, r := range t.Replies {
		if containsAny(lower, r.Keywords) {
			return r.Text
		}
	}
	return t.DefaultReply
}

// Suggest returns the follow-up suggestions for message. The slice is a copy.
func (t *RuleTable) Suggest(message string) []string {
	lower := strings.ToLower(message)
	for _, s := range t.Suggestions {
		if containsAny(lower, s.Keywords) {
			return append([]string(nil), s.Items...)
		}
	}
	return append([]string(nil), t.DefaultSuggestions...)
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// Suggest returns the follow-up suggestions of the built-in table. Both
// backends use it so a session sees the same suggestions whichever answers.
func Suggest(message string) []string {
	return defaultRules.Suggest(message)
}
