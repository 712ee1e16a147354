package structenv

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// =========================
// Safe Access Helpers
// =========================

func Get(root *Object, path ...string) (Node, bool) {
	var cur Node = root
	for _, p := range path {
		if len(p) == 0 {
			continue
		}
		o, ok := cur.(*Object)
		if !ok {
			return nil, false
		}
		cur, ok = o.Get(p)
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func GetUntyped(root *Object, path ...string) (any, bool) {
	n, ok := Get(root, path...)
	if !ok {
		return nil, false
	}
	return ToUntyped(n), true
}

func ToUntyped(n Node) any {
	switch v := n.(type) {
	case *Value:
		return v.V
	case *Array:
		out := make([]any, len(v.Elems))
		for i := range v.Elems {
			out[i] = ToUntyped(v.Elems[i])
		}
		return out
	case *Object:
		m := make(map[string]any, v.Len())
		for _, k := range v.keys {
			m[k] = ToUntyped(v.items[k])
		}
		return m
	default:
		return nil
	}
}

// FromUntyped converts decoded Go values (encoding/json, yaml, literals) into
// nodes. Map keys are taken in sorted order since Go maps have none.
func FromUntyped(v any) (Node, error) {
	switch x := v.(type) {
	case nil:
		return Null(), nil
	case Node:
		return x, nil
	case bool:
		return Bool(x), nil
	case string:
		return String(x), nil
	case int:
		return Int(int64(x)), nil
	case int8:
		return Int(int64(x)), nil
	case int16:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case uint:
		return fromUint(uint64(x)), nil
	case uint8:
		return Int(int64(x)), nil
	case uint16:
		return Int(int64(x)), nil
	case uint32:
		return Int(int64(x)), nil
	case uint64:
		return fromUint(x), nil
	case float32:
		return Float(float64(x)), nil
	case float64:
		return Float(x), nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := x.Float64()
		if err != nil {
			return nil, errf(ErrPrecondition, 0, "invalid number %q", x.String())
		}
		return Float(f), nil
	case []any:
		arr := NewArray()
		for _, e := range x {
			n, err := FromUntyped(e)
			if err != nil {
				return nil, err
			}
			arr.Elems = append(arr.Elems, n)
		}
		return arr, nil
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		o := NewObject()
		for _, k := range keys {
			n, err := FromUntyped(x[k])
			if err != nil {
				return nil, err
			}
			o.Set(k, n)
		}
		return o, nil
	}
	return nil, errf(ErrPrecondition, 0, "unsupported value of type %T", v)
}

// DocumentFrom is FromUntyped restricted to a non-null object at the root.
func DocumentFrom(v any) (*Object, error) {
	n, err := FromUntyped(v)
	if err != nil {
		return nil, err
	}
	o, ok := n.(*Object)
	if !ok {
		return nil, errf(ErrPrecondition, 0, "input must be a non-null object, got %s", n.Kind())
	}
	return o, nil
}

func fromUint(u uint64) Node {
	if u > math.MaxInt64 {
		return Float(float64(u))
	}
	return Int(int64(u))
}

func MustString(n Node) string {
	v := n.(*Value)
	return v.V.(string)
}

func MustInt(n Node) int64 {
	v := n.(*Value)
	return v.V.(int64)
}

// =========================
// Environment
// =========================

// Environ flattens doc into NAME=value pairs for a child process. Path
// segments are joined with '_' and array elements with ','.
func Environ(doc *Object) []string {
	var out []string
	var walk func(o *Object, prefix string)
	walk = func(o *Object, prefix string) {
		for _, k := range o.keys {
			name := prefix + k
			switch v := o.items[k].(type) {
			case *Object:
				walk(v, name+"_")
			default:
				out = append(out, name+"="+envValue(v))
			}
		}
	}
	walk(doc, "")
	return out
}

func envValue(n Node) string {
	switch v := n.(type) {
	case *Array:
		parts := make([]string, len(v.Elems))
		for i, e := range v.Elems {
			parts[i] = envValue(e)
		}
		return strings.Join(parts, ",")
	case *Object:
		return ""
	case *Value:
		switch v.Type {
		case Kinds.Null:
			return ""
		case Kinds.Float:
			return strconv.FormatFloat(v.V.(float64), 'f', -1, 64)
		}
		return fmt.Sprint(v.V)
	}
	return ""
}
