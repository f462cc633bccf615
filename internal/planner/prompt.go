package planner

import (
	"fmt"
	"strings"

	"github.com/v0xg/shopagent/internal/agent"
)

const systemPromptFormat = `You are a browser automation planner driving a live grocery storefront. You work one step at a time: each turn you pick exactly one tool to invoke, then you are shown the outcome message, the page URL, and a screenshot of the page after the tool ran.

Available tools:
%s

Respond with a single JSON object:
{"thought": "<brief reasoning>", "tool": "<tool name>", "args": {"<arg>": "<value>"}, "done": false, "final_answer": ""}

Rules:
- Invoke exactly one tool per response. Use only the tools listed above.
- Read the outcome message of the previous step before deciding. A failure message usually means the element was not there yet: retrying the same tool or running close_popups first often helps.
- Omit "args" (or pass {}) for tools that take no arguments.
- When the user's request has been fulfilled, respond with {"thought": "...", "tool": "", "args": {}, "done": true, "final_answer": "<summary of what was accomplished>"}.
- Do NOT invent extra steps once the request is fulfilled.

Respond ONLY with the JSON object, no explanation or markdown.`

func buildSystemPrompt(catalog string) string {
	return fmt.Sprintf(systemPromptFormat, catalog)
}

func buildUserPrompt(instruction string, history []agent.Step) string {
	var b strings.Builder
	b.WriteString("Goal:\n")
	b.WriteString(instruction)
	b.WriteString("\n\nSteps so far:\n")
	if len(history) == 0 {
		b.WriteString("(none yet)\n")
	} else {
		b.WriteString(renderHistory(history))
	}
	b.WriteString("\nDecide the next action. The latest page screenshot is attached.")
	return b.String()
}

// renderHistory flattens steps into the numbered textual form the model
// reads: tool, args, then the observation text (outcome + URL) indented.
func renderHistory(history []agent.Step) string {
	var b strings.Builder
	for _, step := range history {
		b.WriteString(fmt.Sprintf("%d. %s", step.Index, step.Tool))
		if len(step.Args) > 0 {
			var pairs []string
			for k, v := range step.Args {
				pairs = append(pairs, fmt.Sprintf("%s=%q", k, v))
			}
			b.WriteString("(" + strings.Join(pairs, ", ") + ")")
		}
		b.WriteString("\n")
		for _, line := range strings.Split(step.Observation.Text, "\n") {
			b.WriteString("   " + line + "\n")
		}
	}
	return b.String()
}
