package plug

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var ErrPluginExecution = errors.New("plugin execution failed")

// ExecError is returned by a failing handler. It matches ErrPluginExecution
// and the underlying cause with errors.Is.
type ExecError struct {
	Plugin   string
	Command  []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExecError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "plug %s", e.Plugin)
	if len(e.Command) > 0 {
		fmt.Fprintf(&b, " %q", strings.Join(e.Command, " "))
	}
	// a killed child reports -1, the cause says more
	if e.ExitCode > 0 {
		fmt.Fprintf(&b, ": exit status %d", e.ExitCode)
	} else if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		fmt.Fprintf(&b, ": %s", s)
	}
	return b.String()
}

func (e *ExecError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrPluginExecution}
	}
	return []error{ErrPluginExecution, e.Err}
}

// UnknownDirectiveWarning records a directive with no registered handler. It is
// collected, never returned as the run error.
type UnknownDirectiveWarning struct {
	Name string
	Line int
}

func (w UnknownDirectiveWarning) Error() string {
	if w.Name == "" {
		return fmt.Sprintf("plug:%d: directive without a plugin name", w.Line)
	}
	return fmt.Sprintf("plug:%d: unknown directive %q", w.Line, w.Name)
}
