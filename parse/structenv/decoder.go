package structenv

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// =========================
// Public API
// =========================

// Parse decodes StructEnv text into a document. Directive lines are treated as
// comments; use the plug pipeline to execute them.
func Parse(text string) (*Object, error) {
	if !utf8.ValidString(text) {
		return nil, errf(ErrPrecondition, 0, "input is not valid UTF-8")
	}
	d := NewDecoder(DetectNotation(text))
	for _, line := range SplitLines(text) {
		if err := d.Line(line); err != nil {
			return nil, err
		}
	}
	return d.Close()
}

// SplitLines splits text into physical lines, dropping a trailing '\r'.
func SplitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimSuffix(lines[i], "\r")
	}
	return lines
}

// =========================
// Decoder Implementation
// =========================

type multiline struct {
	key   string
	line  int
	frags []string
}

// Decoder consumes lines one at a time under a fixed notation. It is the
// building block for Parse and for the directive pipeline.
type Decoder struct {
	notation Notation
	root     *Object
	pending  *multiline
	lineNo   int
	// empty containers stored under a joined key because their path did
	// not exist yet
	anchors map[anchor]bool
}

type anchor struct {
	o   *Object
	key string
}

func NewDecoder(n Notation) *Decoder {
	return &Decoder{notation: n, root: NewObject(), anchors: make(map[anchor]bool)}
}

func (d *Decoder) Notation() Notation { return d.notation }

// Document returns the values resolved so far. A multiline value that is
// still open is not included.
func (d *Decoder) Document() *Object { return d.root }

func (d *Decoder) Line(line string) error {
	d.lineNo++
	key, value, ok := assignment(line)
	if !ok {
		return nil
	}
	if key == "" {
		return errf(ErrBoundary, d.lineNo, "empty key")
	}
	if strings.ContainsAny(key, " \t") {
		return errf(ErrBoundary, d.lineNo, "key %q contains a space", key)
	}
	if hasControl(value) {
		return errf(ErrBoundary, d.lineNo, "control character in value of %q", key)
	}

	if d.pending != nil {
		if key == d.pending.key {
			if endsWithQuote(value) {
				d.pending.frags = append(d.pending.frags, value[:len(value)-1])
				return d.flush()
			}
			d.pending.frags = append(d.pending.frags, value)
			return nil
		}
		if err := d.flush(); err != nil {
			return err
		}
	}

	if opensMultiline(value) {
		d.pending = &multiline{key: key, line: d.lineNo, frags: []string{value[1:]}}
		return nil
	}

	n, err := Infer(value)
	if err != nil {
		var se *Error
		if errors.As(err, &se) && se.Line == 0 {
			se.Line = d.lineNo
		}
		return err
	}
	return d.resolve(d.lineNo, key, n)
}

// Close flushes an open multiline value and returns the document.
func (d *Decoder) Close() (*Object, error) {
	if d.pending != nil {
		if err := d.flush(); err != nil {
			return nil, err
		}
	}
	if err := verify(d.root); err != nil {
		return nil, err
	}
	return d.root, nil
}

func (d *Decoder) flush() error {
	p := d.pending
	d.pending = nil
	return d.resolve(p.line, p.key, String(unquote(strings.Join(p.frags, "\n"))))
}

// =========================
// Path Resolution
// =========================

func (d *Decoder) resolve(line int, key string, n Node) error {
	segs := d.notation.split(key)
	for _, seg := range segs {
		if seg == "" {
			return errf(ErrBoundary, line, "key %q has an empty segment", key)
		}
		if strings.ContainsAny(seg, " \t") {
			return errf(ErrBoundary, line, "key segment %q contains a space", seg)
		}
	}

	sep := string(d.notation.Separator)
	cur := d.root
	last := len(segs) - 1
	if isEmptyContainer(n) {
		// anchor at the deepest existing object, the rest is one key
		i := 0
		for ; i < last; i++ {
			child, ok := cur.items[segs[i]].(*Object)
			if !ok {
				break
			}
			cur = child
		}
		joined := strings.Join(segs[i:], sep)
		if i < last {
			d.anchors[anchor{cur, joined}] = true
		}
		merge(cur, joined, n)
		return nil
	}

	// a value for an anchored key moves the anchored container to the full
	// path first, so one raw key never lives in two places
	var held Node
	for i, seg := range segs[:last] {
		if held == nil {
			held = d.takeAnchor(cur, strings.Join(segs[i:], sep))
		}
		cur = childObject(cur, seg)
	}
	if held != nil {
		merge(cur, segs[last], held)
	}
	merge(cur, segs[last], n)
	return nil
}

func (d *Decoder) takeAnchor(o *Object, key string) Node {
	a := anchor{o, key}
	if !d.anchors[a] {
		return nil
	}
	delete(d.anchors, a)
	n, ok := o.Get(key)
	if !ok {
		return nil
	}
	o.Delete(key)
	return n
}

func childObject(o *Object, key string) *Object {
	if child, ok := o.items[key].(*Object); ok {
		return child
	}
	child := NewObject()
	o.Set(key, child)
	return child
}

func merge(o *Object, key string, n Node) {
	existing, ok := o.Get(key)
	if !ok {
		o.Set(key, n)
		return
	}
	switch cur := existing.(type) {
	case *Array:
		cur.Elems = append(cur.Elems, n)
	case *Object:
		// a populated object keeps its members
		if cur.Len() == 0 {
			o.Set(key, n)
		}
	default:
		o.Set(key, NewArray(existing, n))
	}
}

// =========================
// Utilities
// =========================

// assignment splits a KEY=value line. Blank lines, comments and lines without
// '=' are not assignments.
func assignment(line string) (string, string, bool) {
	s := strings.TrimLeft(line, " \t")
	if s == "" || strings.HasPrefix(s, "#") {
		return "", "", false
	}
	idx := strings.IndexByte(s, '=')
	if idx < 0 {
		return "", "", false
	}
	return s[:idx], s[idx+1:], true
}

func hasControl(s string) bool {
	for i := 0; i < len(s); i++ {
		if (s[i] < 0x20 && s[i] != '\t') || s[i] == 0x7f {
			return true
		}
	}
	return false
}

func verify(o *Object) error {
	for _, k := range o.keys {
		if strings.ContainsAny(k, " \t") {
			return errf(ErrBoundary, 0, "key %q contains a space", k)
		}
		if child, ok := o.items[k].(*Object); ok {
			if err := verify(child); err != nil {
				return err
			}
		}
	}
	return nil
}
