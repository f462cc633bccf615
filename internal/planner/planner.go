// Package planner implements the decision function: given the user's
// instruction and the run history, an LLM picks the next tool to invoke
// or declares the task done with a final answer.
package planner

import (
	"fmt"

	"github.com/v0xg/shopagent/internal/agent"
)

// New creates a planner backed by the named provider. catalog is the
// rendered tool list the planner may choose from.
func New(name, model, catalog string) (agent.Planner, error) {
	switch name {
	case "claude", "anthropic":
		return NewClaude(model, catalog)
	case "openai", "gpt":
		return NewOpenAI(model, catalog)
	default:
		return nil, fmt.Errorf("unknown provider: %s (supported: claude, openai)", name)
	}
}

// latestScreenshot returns the most recent non-empty screenshot in the
// history, or nil. Only the newest one is sent: the page state it shows
// supersedes everything before it.
func latestScreenshot(history []agent.Step) []byte {
	for i := len(history) - 1; i >= 0; i-- {
		if shot := history[i].Observation.Screenshot; len(shot) > 0 {
			return shot
		}
	}
	return nil
}
