package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/v0xg/shopagent/internal/tools"
)

// Default step budgets: the shopping flow needs more room than the
// single-extraction scraping flow.
const (
	DefaultShoppingSteps = 20
	DefaultScrapingSteps = 10
)

// maxConsecutivePlannerErrors bounds transport-level planner failures
// before the run aborts. The streak resets on any successful decision.
const maxConsecutivePlannerErrors = 3

// Decision is what the planner returns for one step: either the next
// tool invocation, or Done with a final answer.
type Decision struct {
	Thought     string
	Tool        string
	Args        tools.Args
	Done        bool
	FinalAnswer string
}

// Planner chooses the next primitive from the instruction and the full
// run history. It is an external collaborator; the loop treats it as a
// black box.
type Planner interface {
	Decide(ctx context.Context, instruction string, history []Step) (Decision, error)
}

// Result is the terminal state of one run. Terminal=false means the step
// budget ran out and Answer is the last outcome message, best-effort.
type Result struct {
	Answer   string
	Terminal bool
	Steps    int
}

// Loop drives decision/action/observation cycles until the planner
// signals completion or the step budget is exhausted. Strictly
// sequential: one session, one in-flight primitive, no concurrency.
type Loop struct {
	planner  Planner
	registry *tools.Registry
	capturer *Capturer
	maxSteps int
	log      zerolog.Logger
}

func NewLoop(planner Planner, registry *tools.Registry, capturer *Capturer, maxSteps int, log zerolog.Logger) *Loop {
	return &Loop{
		planner:  planner,
		registry: registry,
		capturer: capturer,
		maxSteps: maxSteps,
		log:      log,
	}
}

// Run executes the control loop for one instruction. It returns a non-nil
// error only for fatal failures (dead driver, unusable planner); budget
// exhaustion is a normal Result with Terminal=false.
func (l *Loop) Run(ctx context.Context, instruction string) (Result, *History, error) {
	runID := uuid.New().String()
	log := l.log.With().Str("run_id", runID).Logger()
	log.Info().Int("max_steps", l.maxSteps).Msg("starting run")

	history := &History{}
	errStreak := 0

	for step := 1; step <= l.maxSteps; step++ {
		decision, err := l.planner.Decide(ctx, instruction, history.Steps())
		if err != nil {
			errStreak++
			log.Error().Err(err).Int("step", step).Msg("planner error")
			if errStreak >= maxConsecutivePlannerErrors {
				return Result{}, history, fmt.Errorf("planner failed %d times in a row: %w", errStreak, err)
			}
			continue
		}
		errStreak = 0

		if decision.Done {
			log.Info().Int("steps", history.Len()).Msg("planner signaled completion")
			return Result{Answer: decision.FinalAnswer, Terminal: true, Steps: history.Len()}, history, nil
		}

		outcome, err := l.registry.Invoke(ctx, decision.Tool, decision.Args)
		if err != nil {
			return Result{}, history, fmt.Errorf("step %d: %s: %w", step, decision.Tool, err)
		}

		obs := l.capturer.Capture(outcome.Message)
		history.Append(Step{
			Index:       step,
			Tool:        decision.Tool,
			Args:        decision.Args,
			Outcome:     outcome,
			Observation: obs,
			At:          time.Now(),
		})
		log.Info().
			Int("step", step).
			Str("tool", decision.Tool).
			Bool("success", outcome.Success).
			Str("url", obs.URL).
			Msg(outcome.Message)
	}

	// Budget exhausted: not an error, the last known outcome is still
	// worth returning to the caller.
	answer := ""
	if last, ok := history.Last(); ok {
		answer = last.Outcome.Message
	}
	log.Warn().Int("steps", history.Len()).Msg("step budget exhausted")
	return Result{Answer: answer, Terminal: false, Steps: history.Len()}, history, nil
}
