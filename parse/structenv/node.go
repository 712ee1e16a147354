package structenv

// structenv implements the StructEnv codec: flat KEY=value lines carrying
// nested, typed data.
//
// Scope:
// - Explicit AST (Object / Array / Value), object keys kept in insertion order
// - Per-document key notation ('.' or '_'), fixed before any line is resolved
// - Ordered value inference
// - Repeated keys coalesce into arrays
// - Multiline quoted strings
//
// Non-goals:
// - Comment preservation
// - Formatting round-trip
// - Schema validation

import (
	"bytes"
	"encoding/json"
)

// =========================
// AST Definitions
// =========================

type Kind string

var Kinds = struct {
	Null   Kind
	Bool   Kind
	Int    Kind
	Float  Kind
	String Kind
	Array  Kind
	Object Kind
}{
	Null:   "null",
	Bool:   "bool",
	Int:    "int",
	Float:  "float",
	String: "string",
	Array:  "array",
	Object: "object",
}

type Node interface {
	Kind() Kind
	Value() any
}

// -------- Object --------

// Object is an ordered string-keyed map. Setting an existing key keeps its
// position.
type Object struct {
	keys  []string
	items map[string]Node
}

func NewObject() *Object {
	return &Object{items: make(map[string]Node)}
}

func (*Object) Kind() Kind { return Kinds.Object }

func (o *Object) Value() any { return o.items }

func (o *Object) Get(key string) (Node, bool) {
	n, ok := o.items[key]
	return n, ok
}

func (o *Object) Set(key string, n Node) {
	if _, ok := o.items[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.items[key] = n
}

func (o *Object) Delete(key string) {
	if _, ok := o.items[key]; !ok {
		return
	}
	delete(o.items, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
}

func (o *Object) Keys() []string {
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

func (o *Object) Len() int { return len(o.keys) }

func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(o.items[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// -------- Array --------

type Array struct {
	Elems []Node
}

func NewArray(elems ...Node) *Array {
	return &Array{Elems: append(make([]Node, 0, len(elems)), elems...)}
}

func (*Array) Kind() Kind { return Kinds.Array }

func (v *Array) Value() any { return v.Elems }

func (v *Array) MarshalJSON() ([]byte, error) {
	if len(v.Elems) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(v.Elems)
}

// -------- Value --------

type Value struct {
	Type Kind
	V    any
}

func (v *Value) Kind() Kind { return v.Type }

func (v *Value) Value() any { return v.V }

func (v *Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.V)
}

func Null() *Value { return &Value{Type: Kinds.Null} }

func Bool(b bool) *Value { return &Value{Type: Kinds.Bool, V: b} }

func Int(i int64) *Value { return &Value{Type: Kinds.Int, V: i} }

func Float(f float64) *Value { return &Value{Type: Kinds.Float, V: f} }

func String(s string) *Value { return &Value{Type: Kinds.String, V: s} }

func isEmptyContainer(n Node) bool {
	switch v := n.(type) {
	case *Object:
		return v.Len() == 0
	case *Array:
		return len(v.Elems) == 0
	}
	return false
}
