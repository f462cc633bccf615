package planner

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/v0xg/shopagent/internal/agent"
	"github.com/v0xg/shopagent/internal/tools"
)

type decisionJSON struct {
	Thought     string            `json:"thought"`
	Tool        string            `json:"tool"`
	Args        map[string]string `json:"args"`
	Done        bool              `json:"done"`
	FinalAnswer string            `json:"final_answer"`
}

// parseDecision extracts and parses the decision object from a model
// response that may wrap it in prose or a markdown fence.
func parseDecision(response string) (agent.Decision, error) {
	var d decisionJSON
	if err := json.Unmarshal([]byte(response), &d); err != nil {
		extracted, exErr := extractObject(response)
		if exErr != nil {
			return agent.Decision{}, exErr
		}
		if err := json.Unmarshal([]byte(extracted), &d); err != nil {
			return agent.Decision{}, fmt.Errorf("failed to parse extracted JSON: %w", err)
		}
	}

	if !d.Done && d.Tool == "" {
		return agent.Decision{}, fmt.Errorf("decision names no tool and is not done")
	}

	decision := agent.Decision{
		Thought:     d.Thought,
		Tool:        d.Tool,
		Done:        d.Done,
		FinalAnswer: d.FinalAnswer,
	}
	if len(d.Args) > 0 {
		decision.Args = tools.Args(d.Args)
	}
	return decision, nil
}

// extractObject finds the first balanced {...} in the response.
func extractObject(response string) (string, error) {
	start := strings.Index(response, "{")
	if start == -1 {
		return "", fmt.Errorf("no JSON object found in response")
	}

	depth := 0
	for i := start; i < len(response); i++ {
		switch response[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return response[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("no matching closing brace found")
}
