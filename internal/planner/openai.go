package planner

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"
	"github.com/v0xg/shopagent/internal/agent"
)

// OpenAI implements the Planner interface using OpenAI's chat API.
type OpenAI struct {
	client *openai.Client
	model  string
	system string
}

func NewOpenAI(model, catalog string) (*OpenAI, error) {
	apiKey := os.Getenv("SHOPAGENT_OPENAI_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("SHOPAGENT_OPENAI_KEY or OPENAI_API_KEY environment variable required")
	}

	client := openai.NewClient(apiKey)

	if model == "" {
		model = "gpt-4o"
	}

	return &OpenAI{
		client: client,
		model:  model,
		system: buildSystemPrompt(catalog),
	}, nil
}

// Decide asks the model for the next tool invocation, attaching the
// latest screenshot as an image part when one exists.
func (p *OpenAI) Decide(ctx context.Context, instruction string, history []agent.Step) (agent.Decision, error) {
	parts := []openai.ChatMessagePart{
		{
			Type: openai.ChatMessagePartTypeText,
			Text: buildUserPrompt(instruction, history),
		},
	}
	if shot := latestScreenshot(history); shot != nil {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    "data:image/png;base64," + base64.StdEncoding.EncodeToString(shot),
				Detail: openai.ImageURLDetailAuto,
			},
		})
	}

	resp, err := p.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: p.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: p.system,
				},
				{
					Role:         openai.ChatMessageRoleUser,
					MultiContent: parts,
				},
			},
			MaxTokens: 1024,
		},
	)
	if err != nil {
		return agent.Decision{}, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return agent.Decision{}, fmt.Errorf("empty response from OpenAI")
	}
	responseText := resp.Choices[0].Message.Content

	decision, err := parseDecision(responseText)
	if err != nil {
		return agent.Decision{}, fmt.Errorf("failed to parse OpenAI response: %w\nResponse: %s", err, responseText)
	}
	return decision, nil
}
