package plug

import (
	"context"

	"golang.org/x/exp/slices"

	"github.com/dzjyyds666/structenv/parse/structenv"
)

// =========================
// Handlers
// =========================

// State is what a handler sees of the run. Document holds the values resolved
// before the directive; handlers must not modify it.
type State struct {
	Document  *structenv.Object
	Consumed  []string
	Remaining []string
	Protocol  string
	Registry  *Registry
}

// Result tells the pipeline how to continue after a handler returns.
type Result struct {
	Replace bool
	Lines   []string
}

func Continue() Result { return Result{} }

// Replace swaps the unconsumed input for lines.
func Replace(lines []string) Result { return Result{Replace: true, Lines: lines} }

type Handler func(ctx context.Context, st *State, d Directive) (Result, error)

type Plugin struct {
	Name    string
	Handler Handler
}

// =========================
// Registry
// =========================

// Registry maps plugin names to handlers. Each run owns one; it is filled by
// the version handler and read-only afterwards.
type Registry struct {
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

func (r *Registry) Register(p Plugin) {
	r.handlers[p.Name] = p.Handler
}

// Lookup matches the name exactly, case included.
func (r *Registry) Lookup(name string) (Handler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
