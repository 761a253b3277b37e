package pipeline

import (
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// Event describes a point of an invocation reported to Hooks.
type Event struct {
	InvocationID uuid.UUID
	Label        string
	Level        int
	// Index is the 1-based position of the valve, Total + 1 at the end
	Index int
	Total int
	// Valve is nil for OnEnd events
	Valve Valve
}

// Hooks are optional callbacks run at the same points the pipeline logs.
// They observe only and never change control flow.
type Hooks struct {
	OnEnter     func(ev Event)
	OnExit      func(ev Event, err error)
	OnInterrupt func(ev Event)
	OnEnd       func(ev Event)
}

type Option func(p *Pipeline)

// WithLabel names the pipeline for BreakToLabel. Blank labels are ignored.
func WithLabel(label string) Option {
	return func(p *Pipeline) {
		p.label = strings.TrimSpace(label)
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithHooks adds hooks; several sets run in registration order.
func WithHooks(hooks Hooks) Option {
	return func(p *Pipeline) {
		p.hooks = append(p.hooks, hooks)
	}
}

func (p *Pipeline) enter(ev Event) {
	for _, h := range p.hooks {
		if h.OnEnter != nil {
			h.OnEnter(ev)
		}
	}
}

func (p *Pipeline) exit(ev Event, err error) {
	for _, h := range p.hooks {
		if h.OnExit != nil {
			h.OnExit(ev, err)
		}
	}
}

func (p *Pipeline) interrupt(ev Event) {
	for _, h := range p.hooks {
		if h.OnInterrupt != nil {
			h.OnInterrupt(ev)
		}
	}
}

func (p *Pipeline) end(ev Event) {
	for _, h := range p.hooks {
		if h.OnEnd != nil {
			h.OnEnd(ev)
		}
	}
}
