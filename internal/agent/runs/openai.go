package runs

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/contoso-travel/chat-agent/server/internal/agent/model"
)

const (
	assistantVersion = "v2"
	messagePageSize  = 20
	assistantPage    = 100
)

// NewOpenAIClient builds an assistants API client for cfg. Azure endpoints
// get the Azure URL scheme; a tenant id switches to Azure AD bearer auth,
// in which case APIKey must hold a token issued for that tenant.
func NewOpenAIClient(cfg model.AgentConfig) *openai.Client {
	var config openai.ClientConfig
	if isAzureEndpoint(cfg.Endpoint) {
		config = openai.DefaultAzureConfig(cfg.APIKey, cfg.Endpoint)
		config.APIVersion = cfg.APIVersion
		if cfg.TenantID != "" {
			config.APIType = openai.APITypeAzureAD
		}
	} else {
		config = openai.DefaultConfig(cfg.APIKey)
		if cfg.Endpoint != "" {
			config.BaseURL = cfg.Endpoint
		}
	}
	config.AssistantVersion = assistantVersion
	return openai.NewClientWithConfig(config)
}

func isAzureEndpoint(endpoint string) bool {
	e := strings.ToLower(endpoint)
	return strings.Contains(e, ".azure.com") || strings.Contains(e, ".azure-api.net")
}

// OpenAIThreads implements ThreadClient on top of the assistants API.
type OpenAIThreads struct {
	client *openai.Client
}

func NewOpenAIThreads(client *openai.Client) *OpenAIThreads {
	return &OpenAIThreads{client: client}
}

var _ ThreadClient = (*OpenAIThreads)(nil)

func (t *OpenAIThreads) CreateThread(ctx context.Context) (string, error) {
	thread, err := t.client.CreateThread(ctx, openai.ThreadRequest{})
	if err != nil {
		return "", err
	}
	return thread.ID, nil
}

func (t *OpenAIThreads) AddUserMessage(ctx context.Context, threadID, text string) error {
	_, err := t.client.CreateMessage(ctx, threadID, openai.MessageRequest{
		Role:    string(openai.ThreadMessageRoleUser),
		Content: text,
	})
	return err
}

func (t *OpenAIThreads) AddAssistantMessage(ctx context.Context, threadID, text string) error {
	_, err := t.client.CreateMessage(ctx, threadID, openai.MessageRequest{
		Role:    string(openai.ThreadMessageRoleAssistant),
		Content: text,
	})
	return err
}

func (t *OpenAIThreads) StartRun(ctx context.Context, threadID, agentID string) (model.Run, error) {
	run, err := t.client.CreateRun(ctx, threadID, openai.RunRequest{AssistantID: agentID})
	if err != nil {
		return model.Run{}, err
	}
	return toRun(threadID, run), nil
}

func (t *OpenAIThreads) GetRun(ctx context.Context, threadID, runID string) (model.Run, error) {
	run, err := t.client.RetrieveRun(ctx, threadID, runID)
	if err != nil {
		return model.Run{}, err
	}
	return toRun(threadID, run), nil
}

func (t *OpenAIThreads) LatestAssistantText(ctx context.Context, threadID string) (string, bool, error) {
	limit := messagePageSize
	order := "desc"
	list, err := t.client.ListMessage(ctx, threadID, &limit, &order, nil, nil, nil)
	if err != nil {
		return "", false, err
	}
	text, ok := firstAssistantText(list.Messages)
	return text, ok, nil
}

// ResolveAgent verifies connectivity and credentials by fetching the agent.
// With an empty agentID the agent is looked up by name.
func (t *OpenAIThreads) ResolveAgent(ctx context.Context, agentID, agentName string) (openai.Assistant, error) {
	if agentID != "" {
		return t.client.RetrieveAssistant(ctx, agentID)
	}

	limit := assistantPage
	var after *string
	for {
		page, err := t.client.ListAssistants(ctx, &limit, nil, after, nil)
		if err != nil {
			return openai.Assistant{}, err
		}
		for _, a := range page.Assistants {
			if a.Name != nil && *a.Name == agentName {
				return a, nil
			}
		}
		if !page.HasMore || page.LastID == nil {
			return openai.Assistant{}, fmt.Errorf("agent %q not found", agentName)
		}
		after = page.LastID
	}
}

// firstAssistantText scans messages newest first.
func firstAssistantText(messages []openai.Message) (string, bool) {
	for _, m := range messages {
		if m.Role != string(openai.ThreadMessageRoleAssistant) {
			continue
		}
		for _, c := range m.Content {
			if c.Type == "text" && c.Text != nil {
				return c.Text.Value, true
			}
		}
		return "", false
	}
	return "", false
}

func toRun(threadID string, run openai.Run) model.Run {
	out := model.Run{
		ThreadID: threadID,
		RunID:    run.ID,
		Status:   toStatus(run.Status),
		Model:    run.Model,
		Usage: model.TokenUsage{
			PromptTokens:     run.Usage.PromptTokens,
			CompletionTokens: run.Usage.CompletionTokens,
			TotalTokens:      run.Usage.TotalTokens,
		},
	}
	if run.LastError != nil {
		out.LastError = fmt.Sprintf("%s: %s", run.LastError.Code, run.LastError.Message)
	}
	return out
}

// toStatus folds the remote statuses onto the coordinator's state set.
// requires_action counts as failure: no tools are registered for the agent.
func toStatus(s openai.RunStatus) model.RunStatus {
	switch s {
	case openai.RunStatusQueued:
		return model.RunStatusQueued
	case openai.RunStatusInProgress:
		return model.RunStatusInProgress
	case openai.RunStatusCompleted:
		return model.RunStatusCompleted
	default:
		return model.RunStatusFailed
	}
}
