// Package llm wraps chat-completion providers behind one interface so
// the admission-gated chat module never imports a provider SDK
// directly. Anthropic is the primary provider; OpenAI is wired as an
// alternate behind the same interface, selected by configuration.
package llm

import (
	"context"
	"errors"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/openai/openai-go"
	openaioption "github.com/openai/openai-go/option"
)

type ChatRequest struct {
	Model    string
	System   string
	Messages []Message
}

type Message struct {
	Role    string
	Content string
}

type ChatResponse struct {
	Content    string
	StopReason string
}

// Controller completes a chat request against whichever provider it
// was built against. Its caller, the chat handler, is routed behind
// the admission middleware.
type Controller interface {
	Complete(ctx context.Context, req ChatRequest) (ChatResponse, error)
}

var ErrProviderUnconfigured = errors.New("llm: provider not configured")

type anthropicController struct {
	client anthropic.Client
}

func NewAnthropicController(apiKey string) Controller {
	return &anthropicController{
		client: anthropic.NewClient(anthropicoption.WithAPIKey(apiKey)),
	}
}

func (c *anthropicController) Complete(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	messages := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, m := range req.Messages {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == "assistant" {
			messages = append(messages, anthropic.NewAssistantMessage(block))
		} else {
			messages = append(messages, anthropic.NewUserMessage(block))
		}
	}

	model := anthropic.Model(req.Model)
	if model == "" {
		model = anthropic.ModelClaudeSonnet4_5
	}

	params := anthropic.MessageNewParams{
		Model:     model,
		Messages:  messages,
		MaxTokens: 1024,
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return ChatResponse{}, err
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.AsText().Text
		}
	}

	return ChatResponse{Content: text, StopReason: string(resp.StopReason)}, nil
}

type openAIController struct {
	client openai.Client
	model  string
}

func NewOpenAIController(apiKey, model string) Controller {
	if model == "" {
		model = openai.ChatModelGPT4o
	}
	return &openAIController{
		client: openai.NewClient(openaioption.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (c *openAIController) Complete(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	for _, m := range req.Messages {
		if m.Role == "assistant" {
			messages = append(messages, openai.AssistantMessage(m.Content))
		} else {
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		return ChatResponse{}, err
	}
	if len(resp.Choices) == 0 {
		return ChatResponse{}, errors.New("llm: empty completion")
	}

	return ChatResponse{
		Content:    resp.Choices[0].Message.Content,
		StopReason: string(resp.Choices[0].FinishReason),
	}, nil
}

// New selects a Controller by provider name ("anthropic" or "openai").
func New(provider, anthropicKey, openAIKey, model string) (Controller, error) {
	switch provider {
	case "openai":
		if openAIKey == "" {
			return nil, ErrProviderUnconfigured
		}
		return NewOpenAIController(openAIKey, model), nil
	default:
		if anthropicKey == "" {
			return nil, ErrProviderUnconfigured
		}
		return NewAnthropicController(anthropicKey), nil
	}
}
