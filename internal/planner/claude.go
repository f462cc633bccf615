package planner

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/v0xg/shopagent/internal/agent"
)

// Claude implements the Planner interface using Anthropic's Claude.
type Claude struct {
	client *anthropic.Client
	model  string
	system string
}

func NewClaude(model, catalog string) (*Claude, error) {
	apiKey := os.Getenv("SHOPAGENT_ANTHROPIC_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("SHOPAGENT_ANTHROPIC_KEY or ANTHROPIC_API_KEY environment variable required")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	if model == "" {
		model = string(anthropic.ModelClaudeSonnet4_20250514)
	}

	return &Claude{
		client: &client,
		model:  model,
		system: buildSystemPrompt(catalog),
	}, nil
}

// Decide asks Claude for the next tool invocation, attaching the latest
// screenshot as an image block when one exists.
func (p *Claude) Decide(ctx context.Context, instruction string, history []agent.Step) (agent.Decision, error) {
	blocks := []anthropic.ContentBlockParamUnion{
		anthropic.NewTextBlock(buildUserPrompt(instruction, history)),
	}
	if shot := latestScreenshot(history); shot != nil {
		blocks = append(blocks, anthropic.NewImageBlockBase64(
			"image/png", base64.StdEncoding.EncodeToString(shot)))
	}

	resp, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: p.system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(blocks...),
		},
	})
	if err != nil {
		return agent.Decision{}, fmt.Errorf("Claude API error: %w", err)
	}

	var responseText string
	for _, block := range resp.Content {
		if block.Type == "text" {
			responseText = block.Text
			break
		}
	}
	if responseText == "" {
		return agent.Decision{}, fmt.Errorf("empty response from Claude")
	}

	decision, err := parseDecision(responseText)
	if err != nil {
		return agent.Decision{}, fmt.Errorf("failed to parse Claude response: %w\nResponse: %s", err, responseText)
	}
	return decision, nil
}
