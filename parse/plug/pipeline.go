package plug

import (
	"context"
	"io"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/dzjyyds666/structenv/parse/structenv"
)

// ProtocolVersion is announced by the synthetic version directive that opens
// every run.
const ProtocolVersion = "1"

// =========================
// Phases
// =========================

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAwaitingVersion
	PhaseDispatching
	PhaseError
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAwaitingVersion:
		return "awaiting-version"
	case PhaseDispatching:
		return "dispatching"
	case PhaseError:
		return "error"
	case PhaseDone:
		return "done"
	}
	return "unknown"
}

// =========================
// Pipeline
// =========================

type Config struct {
	Logger *log.Logger
	// Protocol announced at start, ProtocolVersion when empty.
	Protocol string
	// Plugins installed per protocol, DefaultPlugins(PluginOptions{}) when nil.
	Plugins map[string][]Plugin
	// OnPhase observes every phase change.
	OnPhase func(Phase)
}

type Pipeline struct {
	cfg Config
}

type Report struct {
	Document *structenv.Object
	Warnings []UnknownDirectiveWarning
}

func New(cfg Config) *Pipeline {
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}
	if cfg.Protocol == "" {
		cfg.Protocol = ProtocolVersion
	}
	if cfg.Plugins == nil {
		cfg.Plugins = DefaultPlugins(PluginOptions{})
	}
	return &Pipeline{cfg: cfg}
}

// Run consumes text line by line. Directive handlers run to completion before
// the next line is read. On error nothing of the run is returned.
func (p *Pipeline) Run(ctx context.Context, text string) (*Report, error) {
	if !utf8.ValidString(text) {
		return nil, errors.Wrap(structenv.ErrPrecondition, "input is not valid UTF-8")
	}
	r := &run{
		p:         p,
		log:       p.cfg.Logger,
		registry:  NewRegistry(),
		decoder:   structenv.NewDecoder(structenv.DetectNotation(text)),
		remaining: structenv.SplitLines(text),
	}
	r.registry.Register(Plugin{Name: "version", Handler: r.version})

	doc, err := r.exec(ctx)
	if err != nil {
		r.setPhase(PhaseError)
		return nil, err
	}
	r.setPhase(PhaseDone)
	return &Report{Document: doc, Warnings: r.warnings}, nil
}

type run struct {
	p        *Pipeline
	log      *log.Logger
	phase    Phase
	protocol string
	registry *Registry
	decoder  *structenv.Decoder

	consumed  []string
	remaining []string
	warnings  []UnknownDirectiveWarning
}

func (r *run) exec(ctx context.Context) (*structenv.Object, error) {
	r.setPhase(PhaseAwaitingVersion)
	start := Directive{Name: "version", Args: []string{r.p.cfg.Protocol}, Raw: r.p.cfg.Protocol}
	if err := r.dispatch(ctx, start); err != nil {
		return nil, err
	}

	r.setPhase(PhaseDispatching)
	for len(r.remaining) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := r.remaining[0]
		r.remaining = r.remaining[1:]
		r.consumed = append(r.consumed, line)

		// directives reach the decoder as comments so line numbers stay aligned
		if err := r.decoder.Line(line); err != nil {
			return nil, err
		}
		if d, ok := ParseDirective(line); ok {
			d.Line = len(r.consumed)
			if err := r.dispatch(ctx, d); err != nil {
				return nil, err
			}
		}
	}
	return r.decoder.Close()
}

func (r *run) dispatch(ctx context.Context, d Directive) error {
	h, ok := r.registry.Lookup(d.Name)
	if d.Name == "" || !ok {
		w := UnknownDirectiveWarning{Name: d.Name, Line: d.Line}
		r.log.Warn("skipping directive", "name", d.Name, "line", d.Line)
		r.warnings = append(r.warnings, w)
		return nil
	}

	r.log.Debug("dispatch", "name", d.Name, "args", d.Args, "line", d.Line)
	st := &State{
		Document:  r.decoder.Document(),
		Consumed:  r.consumed,
		Remaining: r.remaining,
		Protocol:  r.protocol,
		Registry:  r.registry,
	}
	res, err := h(ctx, st, d)
	if err != nil {
		r.log.Error("directive failed", "name", d.Name, "line", d.Line, "err", err)
		return err
	}
	if res.Replace {
		r.remaining = res.Lines
	}
	return nil
}

func (r *run) setPhase(ph Phase) {
	r.phase = ph
	r.log.Debug("phase", "phase", ph)
	if r.p.cfg.OnPhase != nil {
		r.p.cfg.OnPhase(ph)
	}
}

// version installs the plugin set of the announced protocol. Repeating the
// active protocol is a no-op, naming another one fails the run.
func (r *run) version(_ context.Context, _ *State, d Directive) (Result, error) {
	if len(d.Args) != 1 {
		return Result{}, &ExecError{Plugin: "version", Command: d.Args, Err: errors.New("expected exactly one protocol argument")}
	}
	proto := d.Args[0]
	if r.protocol != "" {
		if proto == r.protocol {
			return Continue(), nil
		}
		return Result{}, &ExecError{Plugin: "version", Command: d.Args, Err: errors.Errorf("protocol %q already selected", r.protocol)}
	}
	set, ok := r.p.cfg.Plugins[proto]
	if !ok {
		return Result{}, &ExecError{Plugin: "version", Command: d.Args, Err: errors.Errorf("unsupported protocol %q", proto)}
	}
	for _, pl := range set {
		r.registry.Register(pl)
	}
	r.protocol = proto
	r.log.Debug("protocol selected", "protocol", proto, "plugins", r.registry.Names())
	return Continue(), nil
}

// =========================
// Plugin Sets
// =========================

type PluginOptions struct {
	DisableShell bool
	Shell        ShellConfig
}

// DefaultPlugins returns the plugin sets known to this build, keyed by
// protocol version.
func DefaultPlugins(opts PluginOptions) map[string][]Plugin {
	var v1 []Plugin
	if !opts.DisableShell {
		v1 = append(v1, Shell(opts.Shell))
	}
	return map[string][]Plugin{ProtocolVersion: v1}
}
