package prompts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/contoso-travel/chat-agent/server/internal/agent/model"
)

//go:embed template/stream_prompt.txt
var streamSystemPrompt string

const (
	keyHistory = "history"
	keyInput   = "input"
)

// NewStreamTemplate returns the chat template used for streamed live turns.
// Only the system message is a Go template; history and the user's message
// are passed through placeholders so their text is never interpreted.
func NewStreamTemplate() prompt.ChatTemplate {
	return prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(streamSystemPrompt),
		schema.MessagesPlaceholder(keyHistory, true),
		schema.MessagesPlaceholder(keyInput, false),
	)
}

// StreamVariables builds the template variables for one turn.
func StreamVariables(cfg model.PromptConfig, turn model.Turn) map[string]any {
	history := make([]*schema.Message, 0, len(turn.History))
	for _, h := range turn.History {
		history = append(history, schema.UserMessage(h))
	}
	return map[string]any{
		"AssistantName": cfg.AssistantName,
		"BusinessName":  cfg.BusinessName,
		"Context":       turn.Context,
		keyHistory:      history,
		keyInput:        []*schema.Message{schema.UserMessage(turn.Message)},
	}
}

// RenderStream formats the full message list of a turn without calling a model.
func RenderStream(ctx context.Context, cfg model.PromptConfig, turn model.Turn) ([]*schema.Message, error) {
	msgs, err := NewStreamTemplate().Format(ctx, StreamVariables(cfg, turn))
	if err != nil {
		return nil, fmt.Errorf("stream prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return nil, fmt.Errorf("stream prompt render: empty result")
	}
	return msgs, nil
}
