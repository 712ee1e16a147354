package structenv

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/exp/slices"
)

// =========================
// Public API
// =========================

// Serialize writes doc as StructEnv lines joined with the given separator.
// When a dot-separated rendering would contain no dotted key the document is
// written with '_' instead, otherwise it would not read back as dot notation.
func Serialize(doc *Object, sep Separator) (string, error) {
	if doc == nil {
		return "", errf(ErrPrecondition, 0, "document is nil")
	}
	if sep != Dot && sep != Underscore {
		return "", errf(ErrPrecondition, 0, "unsupported separator %q", rune(sep))
	}
	lines, err := serialize(doc, sep)
	if err != nil {
		return "", err
	}
	if sep == Dot && !anyDottedKey(lines) {
		if lines, err = serialize(doc, Underscore); err != nil {
			return "", err
		}
	}
	return strings.Join(lines, "\n"), nil
}

// AutoSeparator picks '_' unless a key somewhere in doc contains a dot.
func AutoSeparator(doc *Object) Separator {
	if hasDottedKey(doc) {
		return Dot
	}
	return Underscore
}

// =========================
// Serializer Implementation
// =========================

type serializer struct {
	n     Notation
	lines []string
	// object prefixes that already exist when the output is read back
	made map[string]bool
}

func serialize(doc *Object, sep Separator) ([]string, error) {
	s := &serializer{n: Notation{Separator: sep}, made: make(map[string]bool)}
	if err := s.object(doc, "", nil, nil); err != nil {
		return nil, err
	}
	return s.lines, nil
}

func (s *serializer) object(o *Object, prefix string, path, ancestors []string) error {
	for _, k := range o.keys {
		if err := s.checkKey(k); err != nil {
			return err
		}
		key := prefix + s.n.escapeKey(k)
		if strings.HasPrefix(key, "#") {
			return errf(ErrBoundary, 0, "key %q would be read as a comment", k)
		}
		full := append(append(make([]string, 0, len(path)+1), path...), k)
		if got := s.n.split(key); !slices.Equal(got, full) {
			return errf(ErrBoundary, 0, "key %q is written as %q which reads back as %q", k, key, strings.Join(got, "/"))
		}
		if err := s.node(key, full, ancestors, o.items[k]); err != nil {
			return err
		}
	}
	return nil
}

func (s *serializer) node(key string, path, ancestors []string, n Node) error {
	switch v := n.(type) {
	case *Object:
		if v.Len() == 0 {
			s.emit(key, ancestors, "{}", true)
			return nil
		}
		next := append(append(make([]string, 0, len(ancestors)+1), ancestors...), key)
		return s.object(v, key+s.n.Separator.String(), path, next)
	case *Array:
		if len(v.Elems) < 2 {
			// a single element alone would read back as a scalar
			s.emit(key, ancestors, "[]", true)
		}
		for _, e := range v.Elems {
			if _, ok := e.(*Value); !ok {
				return errf(ErrUnsupportedFeature, 0, "array %q contains a nested %s", key, e.Kind())
			}
			if err := s.scalar(key, ancestors, e.(*Value)); err != nil {
				return err
			}
		}
		return nil
	case *Value:
		return s.scalar(key, ancestors, v)
	case nil:
		s.emit(key, ancestors, "null", false)
		return nil
	}
	return errf(ErrPrecondition, 0, "unsupported node %T at %q", n, key)
}

func (s *serializer) scalar(key string, ancestors []string, v *Value) error {
	switch v.Type {
	case Kinds.Null:
		s.emit(key, ancestors, "null", false)
	case Kinds.Bool:
		s.emit(key, ancestors, strconv.FormatBool(v.V.(bool)), false)
	case Kinds.Int:
		s.emit(key, ancestors, fmt.Sprint(v.V), false)
	case Kinds.Float:
		f := v.V.(float64)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return errf(ErrPrecondition, 0, "non-finite number at %q", key)
		}
		s.emit(key, ancestors, formatFloat(f), false)
	case Kinds.String:
		parts := strings.Split(v.V.(string), "\n")
		for i, p := range parts {
			text := encodeBasicString(p)
			if i == 0 {
				text = `"` + text
			}
			if i == len(parts)-1 {
				text += `"`
			}
			s.emit(key, ancestors, text, false)
		}
	default:
		return errf(ErrPrecondition, 0, "unsupported value kind %q at %q", v.Type, key)
	}
	return nil
}

// emit appends one line. Empty containers only nest under objects created by
// earlier lines, so missing ancestors get a {} line first.
func (s *serializer) emit(key string, ancestors []string, value string, empty bool) {
	for _, a := range ancestors {
		if empty && !s.made[a] {
			s.lines = append(s.lines, a+"={}")
		}
		s.made[a] = true
	}
	s.lines = append(s.lines, key+"="+value)
}

func (s *serializer) checkKey(k string) error {
	if k == "" {
		return errf(ErrBoundary, 0, "empty key")
	}
	for _, r := range k {
		if unicode.IsSpace(r) || unicode.IsControl(r) || r == '=' {
			return errf(ErrBoundary, 0, "key %q cannot be written on a line", k)
		}
	}
	if s.n.Separator == Underscore && strings.Contains(k, ".") {
		return errf(ErrBoundary, 0, "key %q contains '.', use the dot separator", k)
	}
	return nil
}

// =========================
// Utilities
// =========================

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func anyDottedKey(lines []string) bool {
	for _, l := range lines {
		key, _, _ := strings.Cut(l, "=")
		if strings.Contains(key, ".") {
			return true
		}
	}
	return false
}

func hasDottedKey(o *Object) bool {
	for _, k := range o.keys {
		if strings.Contains(k, ".") {
			return true
		}
		if child, ok := o.items[k].(*Object); ok && hasDottedKey(child) {
			return true
		}
	}
	return false
}
