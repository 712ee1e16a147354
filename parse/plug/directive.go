package plug

// plug runs StructEnv text through the #plug directive pipeline.
//
// Scope:
// - Sequential line consumer, one directive handler at a time
// - Per-run plugin registry selected by protocol version
// - `version` and `shell` plugins
//
// Non-goals:
// - Concurrent handlers
// - Plugin discovery outside the process

import (
	"strings"
)

// Marker starts a directive line.
const Marker = "#plug"

// Directive is one parsed `#plug <name> <args...>` line. Raw keeps the text
// after the name unsplit for handlers that do their own tokenizing.
type Directive struct {
	Name string
	Args []string
	Raw  string
	Line int
}

// ParseDirective reports whether line is a directive and splits it. A marker
// with nothing after it yields a directive with an empty Name.
func ParseDirective(line string) (Directive, bool) {
	s := strings.TrimLeft(line, " \t")
	if !strings.HasPrefix(s, Marker) {
		return Directive{}, false
	}
	rest := s[len(Marker):]
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
		return Directive{}, false
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return Directive{}, true
	}

	name, raw := rest, ""
	if i := strings.IndexAny(rest, " \t"); i >= 0 {
		name, raw = rest[:i], strings.TrimSpace(rest[i+1:])
	}
	return Directive{Name: name, Args: strings.Fields(raw), Raw: raw}, true
}
