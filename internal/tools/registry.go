package tools

import (
	"context"
	"fmt"
	"strings"
)

// Outcome is the result of one primitive invocation. Primitives convert
// every internal failure into a failed Outcome with a descriptive
// message; the planner reads messages, not errors.
type Outcome struct {
	Success bool
	Message string
}

func Okf(format string, a ...any) Outcome {
	return Outcome{Success: true, Message: fmt.Sprintf(format, a...)}
}

func Failf(format string, a ...any) Outcome {
	return Outcome{Success: false, Message: fmt.Sprintf(format, a...)}
}

// Args carries a primitive's named string arguments.
type Args map[string]string

// Func executes one primitive. A non-nil error is reserved for fatal
// driver failures and aborts the run; everything else is an Outcome.
type Func func(ctx context.Context, args Args) (Outcome, error)

// ArgSpec documents one required argument of a tool.
type ArgSpec struct {
	Name        string
	Description string
}

// Tool is one named entry in the dispatch table.
type Tool struct {
	Name        string
	Description string
	Args        []ArgSpec
	Run         Func
}

// Registry is the closed dispatch table the planner chooses from. Tools
// are invoked by name with validated argument shapes; there is no other
// way for the planner to reach the browser.
type Registry struct {
	order []string
	tools map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

func (r *Registry) Register(t Tool) {
	if _, exists := r.tools[t.Name]; !exists {
		r.order = append(r.order, t.Name)
	}
	r.tools[t.Name] = t
}

// Names returns tool names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Invoke dispatches by name. Unknown tools and missing arguments are
// planner mistakes, reported as failed outcomes so it can self-correct.
func (r *Registry) Invoke(ctx context.Context, name string, args Args) (Outcome, error) {
	t, ok := r.tools[name]
	if !ok {
		return Failf("Unknown tool %q. Available tools: %s.", name, strings.Join(r.order, ", ")), nil
	}
	for _, spec := range t.Args {
		if strings.TrimSpace(args[spec.Name]) == "" {
			return Failf("Tool %q requires argument %q.", name, spec.Name), nil
		}
	}
	return t.Run(ctx, args)
}

// Catalog renders the tool list for the planner's system prompt.
func (r *Registry) Catalog() string {
	var b strings.Builder
	for _, name := range r.order {
		t := r.tools[name]
		b.WriteString("- ")
		b.WriteString(t.Name)
		if len(t.Args) > 0 {
			b.WriteString("(")
			for i, spec := range t.Args {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(spec.Name)
			}
			b.WriteString(")")
		}
		b.WriteString(": ")
		b.WriteString(t.Description)
		if len(t.Args) > 0 {
			for _, spec := range t.Args {
				b.WriteString(fmt.Sprintf(" Argument %q: %s", spec.Name, spec.Description))
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}
