package observers

import (
	"errors"
	"testing"

	einocb "github.com/cloudwego/eino/callbacks"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrainStreamKeepsLastUsage(t *testing.T) {
	sr := schema.StreamReaderFromArray([]*einomodel.CallbackOutput{
		{Message: schema.AssistantMessage("Reyk", nil)},
		nil,
		{Message: schema.AssistantMessage("javik", nil), TokenUsage: &einomodel.TokenUsage{PromptTokens: 1}},
		{TokenUsage: &einomodel.TokenUsage{PromptTokens: 40, CompletionTokens: 12, TotalTokens: 52}},
	})

	chars, usage, err := drainStream(sr)
	require.NoError(t, err)
	assert.Equal(t, len("Reykjavik"), chars)
	assert.Equal(t, 40, usage.PromptTokens)
	assert.Equal(t, 12, usage.CompletionTokens)
	assert.Equal(t, 52, usage.TotalTokens)
}

func TestDrainStreamReportsError(t *testing.T) {
	sr, sw := schema.Pipe[*einomodel.CallbackOutput](2)
	sw.Send(&einomodel.CallbackOutput{Message: schema.AssistantMessage("hi", nil)}, nil)
	sw.Send(nil, errors.New("quota exceeded"))
	sw.Close()

	chars, _, err := drainStream(sr)
	require.EqualError(t, err, "quota exceeded")
	assert.Equal(t, 2, chars)
}

func TestLastUserContent(t *testing.T) {
	msgs := []*schema.Message{
		schema.SystemMessage("sys"),
		schema.UserMessage("  first  "),
		nil,
		schema.UserMessage(" second "),
		schema.AssistantMessage("reply", nil),
	}
	assert.Equal(t, "second", lastUserContent(msgs))
	assert.Empty(t, lastUserContent(nil))
}

func TestComponentName(t *testing.T) {
	assert.Equal(t, "model", componentName(nil))
	assert.Equal(t, "stream_model", componentName(&einocb.RunInfo{Name: "stream_model", Component: "ChatModel"}))
	assert.Equal(t, "ChatModel", componentName(&einocb.RunInfo{Component: "ChatModel"}))
}

func TestNewCallbacks(t *testing.T) {
	assert.NotNil(t, NewCallbacks("gemini-2.5-flash"))
}
