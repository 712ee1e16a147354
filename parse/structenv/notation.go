package structenv

import (
	"strings"

	"github.com/dzjyyds666/structenv/parse/unduni"
)

// =========================
// Notation
// =========================

type Separator byte

const (
	Dot        Separator = '.'
	Underscore Separator = '_'
)

func (s Separator) String() string { return string(rune(s)) }

// Notation is fixed once per document before the first line is resolved.
type Notation struct {
	Separator     Separator
	DashIsLiteral bool
}

// DetectNotation scans every assignment key of text. A single dotted key makes
// the whole document dot separated. A '-' that is not part of an escape token
// marks dashes as literal for the whole document.
func DetectNotation(text string) Notation {
	n := Notation{Separator: Underscore}
	for _, line := range SplitLines(text) {
		key, _, ok := assignment(line)
		if !ok || key == "" || strings.ContainsAny(key, " \t") {
			continue
		}
		if strings.Contains(key, ".") {
			n.Separator = Dot
		}
		if hasLiteralDash(key) {
			n.DashIsLiteral = true
		}
	}
	return n
}

func hasLiteralDash(key string) bool {
	for i := 0; i < len(key); i++ {
		if key[i] != '-' {
			continue
		}
		if i == 0 {
			return true
		}
		switch key[i-1] {
		case '_', 'o', 's', '-':
		default:
			return true
		}
	}
	return false
}

// dashTokens are the three character tokens restored to '-' inside keys.
func (n Notation) dashTokens() []string {
	if n.DashIsLiteral {
		return nil
	}
	var out []string
	for _, tok := range unduni.Tokens('-') {
		if len(tok) != 3 {
			continue
		}
		// _s_ is the escaped separator in underscore notation
		if n.Separator == Underscore && tok == "_s_" {
			continue
		}
		out = append(out, tok)
	}
	if n.Separator == Dot {
		out = append(out, "___")
	}
	return out
}

// split breaks a raw key into unescaped path segments.
func (n Notation) split(key string) []string {
	sep := byte(n.Separator)
	litSep := string([]byte{sep, 's', sep})
	dashes := n.dashTokens()

	var (
		parts []string
		cur   strings.Builder
	)
	for i := 0; i < len(key); {
		rest := key[i:]
		if tok, ok := hasAnyPrefix(rest, dashes); ok {
			cur.WriteByte('-')
			i += len(tok)
			continue
		}
		if key[i] != sep {
			cur.WriteByte(key[i])
			i++
			continue
		}
		switch {
		case strings.HasPrefix(rest, litSep):
			cur.WriteByte(sep)
			i += len(litSep)
		case len(rest) > 1 && rest[1] == sep:
			cur.WriteByte(sep)
			i += 2
		default:
			parts = append(parts, cur.String())
			cur.Reset()
			i++
		}
	}
	return append(parts, cur.String())
}

func hasAnyPrefix(s string, prefixes []string) (string, bool) {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return p, true
		}
	}
	return "", false
}

// escapeKey is the inverse of split for a single segment.
func (n Notation) escapeKey(key string) string {
	sep := rune(n.Separator)
	dash := unduni.Token('-')
	if n.Separator == Underscore {
		dash = unduni.Tokens('-')[1]
	}
	var b strings.Builder
	for _, r := range key {
		switch r {
		case sep:
			b.WriteRune(sep)
			b.WriteRune(sep)
		case '-':
			b.WriteString(dash)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
