package plug

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
	"mvdan.cc/sh/v3/shell"

	"github.com/dzjyyds666/structenv/parse/structenv"
)

type ShellConfig struct {
	// Timeout bounds one command; zero leaves it to the run context.
	Timeout time.Duration
	// Dir is the working directory of the child, the current one when empty.
	Dir string
	// Environ supplies the base environment, os.Environ when nil.
	Environ func() []string
}

// Shell runs the directive's command with the remaining input on stdin and
// replaces the remaining input with what the command prints.
//
//	#plug shell sort
//	#plug shell sh -c 'envsubst < "$TEMPLATE"'
//
// The command is split with shell quoting rules. $VAR references are expanded
// from the child environment: the process environment overlaid with the
// document resolved so far.
func Shell(cfg ShellConfig) Plugin {
	if cfg.Environ == nil {
		cfg.Environ = os.Environ
	}
	return Plugin{Name: "shell", Handler: cfg.run}
}

func (cfg ShellConfig) run(ctx context.Context, st *State, d Directive) (Result, error) {
	env := MergeEnv(cfg.Environ(), structenv.Environ(st.Document))
	argv, err := shell.Fields(d.Raw, lookupEnv(env))
	if err != nil {
		return Result{}, &ExecError{Plugin: d.Name, Command: []string{d.Raw}, Err: errors.Wrap(err, "split command")}
	}
	if len(argv) == 0 {
		return Result{}, &ExecError{Plugin: d.Name, Err: errors.New("empty command")}
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	var stdin string
	if len(st.Remaining) > 0 {
		stdin = strings.Join(st.Remaining, "\n") + "\n"
	}
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = cfg.Dir
	cmd.Env = env
	cmd.Stdin = strings.NewReader(stdin)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		e := &ExecError{Plugin: d.Name, Command: argv, Stderr: stderr.String(), Err: err}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			e.ExitCode = exitErr.ExitCode()
		}
		if ctx.Err() != nil {
			e.Err = errors.Wrap(ctx.Err(), err.Error())
		}
		return Result{}, e
	}

	out := strings.TrimSuffix(stdout.String(), "\n")
	if out == "" {
		return Replace(nil), nil
	}
	return Replace(structenv.SplitLines(out)), nil
}

// MergeEnv overlays env entries on base; later entries win. The result is
// sorted by name.
func MergeEnv(base []string, overlays ...[]string) []string {
	vars := make(map[string]string, len(base))
	for _, set := range append([][]string{base}, overlays...) {
		for _, kv := range set {
			name, value, ok := strings.Cut(kv, "=")
			if !ok || name == "" {
				continue
			}
			vars[name] = value
		}
	}
	out := make([]string, 0, len(vars))
	for name, value := range vars {
		out = append(out, name+"="+value)
	}
	slices.Sort(out)
	return out
}

func lookupEnv(env []string) func(string) string {
	vars := make(map[string]string, len(env))
	for _, kv := range env {
		name, value, _ := strings.Cut(kv, "=")
		vars[name] = value
	}
	return func(name string) string { return vars[name] }
}
