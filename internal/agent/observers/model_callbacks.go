package observers

import (
	"context"
	"errors"
	"io"
	"strings"

	einocb "github.com/cloudwego/eino/callbacks"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"

	"github.com/contoso-travel/chat-agent/server/internal/agent/model"
	logx "github.com/contoso-travel/chat-agent/server/pkg/logger"
)

// newModelHandler logs model calls. modelName selects the pricing row used
// for the usage log line.
func newModelHandler(modelName string) *callbackHelper.ModelCallbackHandler {
	return &callbackHelper.ModelCallbackHandler{
		OnStart: func(ctx context.Context, info *einocb.RunInfo, input *einomodel.CallbackInput) context.Context {
			ev := logx.Debug().Str("component", componentName(info))
			if input != nil {
				ev = ev.Int("messages", len(input.Messages)).Str("user", lastUserContent(input.Messages))
			}
			ev.Msg("model start")
			return ctx
		},
		OnEnd: func(ctx context.Context, info *einocb.RunInfo, output *einomodel.CallbackOutput) context.Context {
			if output == nil {
				return ctx
			}
			var usage model.TokenUsage
			if output.TokenUsage != nil {
				usage = toTokenUsage(output.TokenUsage)
			}
			LogUsage(componentName(info), modelName, usage)
			return ctx
		},
		OnEndWithStreamOutput: func(ctx context.Context, info *einocb.RunInfo, output *schema.StreamReader[*einomodel.CallbackOutput]) context.Context {
			name := componentName(info)
			go func() {
				defer output.Close()
				chars, usage, err := drainStream(output)
				if err != nil {
					logx.Warn().Err(err).Str("component", name).Msg("model stream ended with error")
					return
				}
				logx.Debug().Str("component", name).Int("chars", chars).Msg("model stream end")
				LogUsage(name, modelName, usage)
			}()
			return ctx
		},
		OnError: func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			logx.Error().Err(err).Str("component", componentName(info)).Msg("model error")
			return ctx
		},
	}
}

// drainStream reads a callback stream to the end. Providers report usage on
// the last chunk only, so the last non-nil usage wins.
func drainStream(sr *schema.StreamReader[*einomodel.CallbackOutput]) (chars int, usage model.TokenUsage, err error) {
	for {
		chunk, err := sr.Recv()
		if errors.Is(err, io.EOF) {
			return chars, usage, nil
		}
		if err != nil {
			return chars, usage, err
		}
		if chunk == nil {
			continue
		}
		if chunk.Message != nil {
			chars += len(chunk.Message.Content)
		}
		if chunk.TokenUsage != nil {
			usage = toTokenUsage(chunk.TokenUsage)
		}
	}
}

func toTokenUsage(u *einomodel.TokenUsage) model.TokenUsage {
	return model.TokenUsage{
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
	}
}

// LogUsage writes the token and USD cost line shared by every model call.
func LogUsage(component, modelName string, usage model.TokenUsage) {
	if usage.TotalTokens == 0 {
		return
	}
	inC, outC, totalC := model.ComputeCost(usage, model.ResolvePricing(modelName))
	logx.Debug().
		Str("component", component).
		Str("model", modelName).
		Int("prompt_tokens", usage.PromptTokens).
		Int("completion_tokens", usage.CompletionTokens).
		Int("total_tokens", usage.TotalTokens).
		Float64("input_cost_usd", inC).
		Float64("output_cost_usd", outC).
		Float64("total_cost_usd", totalC).
		Msg("LLM usage")
}

func componentName(info *einocb.RunInfo) string {
	if info == nil {
		return "model"
	}
	if info.Name != "" {
		return info.Name
	}
	return string(info.Component)
}

func lastUserContent(msgs []*schema.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		if m == nil {
			continue
		}
		if m.Role == schema.User {
			return strings.TrimSpace(m.Content)
		}
	}
	return ""
}
