package backends

import (
	"context"

	"github.com/contoso-travel/chat-agent/server/internal/agent/model"
)

// Fallback answers from the keyword rule table. It never fails.
type Fallback struct {
	rules *RuleTable
}

// NewFallback uses rules, or the built-in table when rules is nil.
func NewFallback(rules *RuleTable) *Fallback {
	if rules == nil {
		rules = defaultRules
	}
	return &Fallback{rules: rules}
}

var _ Backend = (*Fallback)(nil)

func (f *Fallback) Name() model.BackendTag { return model.BackendFallback }

func (f *Fallback) Respond(_ context.Context, turn model.Turn) model.Reply {
	return model.Reply{
		Text:        f.rules.Reply(turn.Message),
		Backend:     model.BackendFallback,
		Suggestions: f.rules.Suggest(turn.Message),
	}
}
