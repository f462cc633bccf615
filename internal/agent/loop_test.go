package agent

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/v0xg/shopagent/internal/browser"
	"github.com/v0xg/shopagent/internal/browser/browsertest"
	"github.com/v0xg/shopagent/internal/tools"
)

// scriptedPlanner replays a fixed sequence of decisions/errors and
// records the history it was shown at each call.
type scriptedPlanner struct {
	script    []func() (Decision, error)
	calls     int
	histories [][]Step
}

func (p *scriptedPlanner) Decide(_ context.Context, _ string, history []Step) (Decision, error) {
	p.histories = append(p.histories, history)
	i := p.calls
	p.calls++
	if i >= len(p.script) {
		i = len(p.script) - 1
	}
	return p.script[i]()
}

func decide(tool string, args tools.Args) func() (Decision, error) {
	return func() (Decision, error) {
		return Decision{Tool: tool, Args: args}, nil
	}
}

func finish(answer string) func() (Decision, error) {
	return func() (Decision, error) {
		return Decision{Done: true, FinalAnswer: answer}, nil
	}
}

func planFailure(err error) func() (Decision, error) {
	return func() (Decision, error) {
		return Decision{}, err
	}
}

func newTestLoop(planner Planner, registry *tools.Registry, session *browsertest.FakeSession, maxSteps int) *Loop {
	capturer := NewCapturer(session, zerolog.Nop())
	capturer.settle = 0
	return NewLoop(planner, registry, capturer, maxSteps, zerolog.Nop())
}

// fullShoppingSetup wires a real Shop against a fake session where every
// landmark exists, so all five shopping primitives succeed.
func fullShoppingSetup(t *testing.T) (*tools.Registry, *browsertest.FakeSession) {
	t.Helper()
	cfg := tools.DefaultConfig()
	cfg.WaitTimeout = 30 * time.Millisecond
	cfg.PopupSettle = 0

	session := browsertest.NewFakeSession()
	session.Add(browser.Text(cfg.LandmarkText), &browsertest.FakeElement{})
	session.Add(browser.Button(cfg.DetectLocationLabel), &browsertest.FakeElement{})
	session.Add(browser.Link(cfg.SearchEntryLink), &browsertest.FakeElement{})
	session.Add(browser.Text("bread"), &browsertest.FakeElement{})
	session.Add(browser.Selector(cfg.ResultSelector), &browsertest.FakeElement{})
	session.Add(browser.Button(cfg.AddToCartLabel), &browsertest.FakeElement{})

	shop := tools.NewShop(cfg, session, zerolog.Nop())
	shop.Locator().Poll = time.Millisecond
	return shop.ShoppingRegistry(), session
}

func TestRunFullShoppingFlow(t *testing.T) {
	registry, session := fullShoppingSetup(t)
	planner := &scriptedPlanner{script: []func() (Decision, error){
		decide("navigate_to_store", nil),
		decide("handle_location_popup", nil),
		decide("search_product", tools.Args{"product_name": "bread"}),
		decide("select_first_product", nil),
		decide("add_to_cart", nil),
		finish("Added bread to the cart."),
	}}

	loop := newTestLoop(planner, registry, session, DefaultShoppingSteps)
	result, history, err := loop.Run(context.Background(), "buy bread")
	require.NoError(t, err)

	assert.True(t, result.Terminal)
	assert.Equal(t, "Added bread to the cart.", result.Answer)
	assert.Equal(t, 5, result.Steps)
	require.Equal(t, 5, history.Len())

	for i, step := range history.Steps() {
		assert.Equal(t, i+1, step.Index)
		assert.True(t, step.Outcome.Success, "step %d: %s", step.Index, step.Outcome.Message)
		assert.Contains(t, step.Observation.Text, "Current URL:")
		assert.NotEmpty(t, step.Observation.URL)
	}

	// The planner saw the history grow by one step per call.
	require.Equal(t, 6, planner.calls)
	for i, h := range planner.histories {
		assert.Len(t, h, i)
	}
}

func TestRunStopsAtStepBudget(t *testing.T) {
	registry := tools.NewRegistry()
	invocations := 0
	registry.Register(tools.Tool{
		Name: "spin",
		Run: func(context.Context, tools.Args) (tools.Outcome, error) {
			invocations++
			return tools.Okf("spun %d times", invocations), nil
		},
	})
	planner := &scriptedPlanner{script: []func() (Decision, error){decide("spin", nil)}}
	session := browsertest.NewFakeSession()

	loop := newTestLoop(planner, registry, session, 3)
	result, history, err := loop.Run(context.Background(), "never finishes")
	require.NoError(t, err, "budget exhaustion is not an error")

	assert.False(t, result.Terminal)
	assert.Equal(t, 3, result.Steps)
	assert.Equal(t, 3, history.Len())
	assert.Equal(t, 3, invocations, "no tool runs past the budget")
	assert.Equal(t, "spun 3 times", result.Answer, "best-effort answer is the last outcome message")
}

func TestRunAbortsOnDriverError(t *testing.T) {
	registry := tools.NewRegistry()
	registry.Register(tools.Tool{
		Name: "navigate_to_store",
		Run: func(context.Context, tools.Args) (tools.Outcome, error) {
			return tools.Outcome{}, &browser.DriverError{Err: errors.New("browser crashed")}
		},
	})
	planner := &scriptedPlanner{script: []func() (Decision, error){decide("navigate_to_store", nil)}}

	loop := newTestLoop(planner, registry, browsertest.NewFakeSession(), 10)
	_, history, err := loop.Run(context.Background(), "buy bread")
	require.Error(t, err)

	var derr *browser.DriverError
	assert.ErrorAs(t, err, &derr)
	assert.Equal(t, 0, history.Len())
}

func TestRunAbortsAfterConsecutivePlannerErrors(t *testing.T) {
	boom := fmt.Errorf("llm transport down")
	planner := &scriptedPlanner{script: []func() (Decision, error){planFailure(boom)}}

	loop := newTestLoop(planner, tools.NewRegistry(), browsertest.NewFakeSession(), 10)
	_, history, err := loop.Run(context.Background(), "buy bread")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, planner.calls)
	assert.Equal(t, 0, history.Len())
}

func TestRunPlannerErrorStreakResets(t *testing.T) {
	registry := tools.NewRegistry()
	registry.Register(tools.Tool{
		Name: "noop",
		Run: func(context.Context, tools.Args) (tools.Outcome, error) {
			return tools.Okf("ok"), nil
		},
	})
	boom := errors.New("flaky")
	planner := &scriptedPlanner{script: []func() (Decision, error){
		planFailure(boom),
		planFailure(boom),
		decide("noop", nil), // resets the streak
		planFailure(boom),
		planFailure(boom),
		finish("done"),
	}}

	loop := newTestLoop(planner, registry, browsertest.NewFakeSession(), 10)
	result, history, err := loop.Run(context.Background(), "flaky planner")
	require.NoError(t, err)
	assert.True(t, result.Terminal)
	assert.Equal(t, "done", result.Answer)
	assert.Equal(t, 1, history.Len())
}

func TestRunRecordsPlannerMistakesAsFailedSteps(t *testing.T) {
	registry := tools.NewRegistry()
	planner := &scriptedPlanner{script: []func() (Decision, error){
		decide("no_such_tool", nil),
		finish("gave up"),
	}}

	loop := newTestLoop(planner, registry, browsertest.NewFakeSession(), 10)
	result, history, err := loop.Run(context.Background(), "whatever")
	require.NoError(t, err)
	assert.True(t, result.Terminal)
	require.Equal(t, 1, history.Len())
	step := history.Steps()[0]
	assert.False(t, step.Outcome.Success)
	assert.Contains(t, step.Outcome.Message, `Unknown tool "no_such_tool"`)
}
