package agent

import (
	"time"

	"github.com/v0xg/shopagent/internal/tools"
)

// Step records one decision/action/observation cycle. Steps are immutable
// once appended; History owns them exclusively.
type Step struct {
	Index       int
	Tool        string
	Args        tools.Args
	Outcome     tools.Outcome
	Observation Observation
	At          time.Time
}

// History is the append-only sequence of steps for one run. The planner
// consumes it as context for each next decision.
type History struct {
	steps []Step
}

// Append records a step. The args map is cloned so later mutation by the
// caller cannot change the recorded step.
func (h *History) Append(step Step) {
	if step.Args != nil {
		cloned := make(tools.Args, len(step.Args))
		for k, v := range step.Args {
			cloned[k] = v
		}
		step.Args = cloned
	}
	h.steps = append(h.steps, step)
}

func (h *History) Len() int { return len(h.steps) }

// Steps returns a copy of the recorded steps.
func (h *History) Steps() []Step {
	out := make([]Step, len(h.steps))
	copy(out, h.steps)
	return out
}

// Last returns the most recent step, if any.
func (h *History) Last() (Step, bool) {
	if len(h.steps) == 0 {
		return Step{}, false
	}
	return h.steps[len(h.steps)-1], true
}
