package parse

// Package parse bridges StructEnv documents to the other data formats the CLI
// and HTTP server accept.
//
// Scope:
// - JSON and YAML in and out, object key order kept
// - TOML in and out (TOML tables are written with sorted keys, nulls dropped)
// - StructEnv in (without directives) and out
//
// Non-goals:
// - Comment preservation
// - Multi-document YAML streams

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"

	"github.com/dzjyyds666/structenv/parse/structenv"
)

// =========================
// Formats
// =========================

type Format string

const (
	FormatStructEnv Format = "env"
	FormatJSON      Format = "json"
	FormatYAML      Format = "yaml"
	FormatTOML      Format = "toml"
)

var Formats = []Format{FormatStructEnv, FormatJSON, FormatYAML, FormatTOML}

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "env", "structenv":
		return FormatStructEnv, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	}
	return "", errors.Errorf("unknown format %q", s)
}

// FormatOf guesses the format from a file name, falling back to def.
func FormatOf(path string, def Format) Format {
	if f, err := ParseFormat(filepath.Ext(path)); err == nil {
		return f
	}
	return def
}

// =========================
// Decoding
// =========================

// Decode reads data in the given format into a document. StructEnv input is
// parsed without running directives.
func Decode(f Format, data []byte) (*structenv.Object, error) {
	switch f {
	case FormatStructEnv:
		return structenv.Parse(string(data))
	case FormatJSON:
		return DecodeJSON(data)
	case FormatYAML:
		var v any
		if err := yaml.UnmarshalWithOptions(data, &v, yaml.UseOrderedMap()); err != nil {
			return nil, errors.Wrap(err, "yaml")
		}
		n, err := fromYAML(v)
		if err != nil {
			return nil, err
		}
		return structenv.DocumentFrom(n)
	case FormatTOML:
		var v map[string]any
		if err := toml.Unmarshal(data, &v); err != nil {
			return nil, errors.Wrap(err, "toml")
		}
		return structenv.DocumentFrom(normalize(v))
	}
	return nil, errors.Errorf("unknown format %q", f)
}

// DecodeJSON keeps object members in input order. Numbers that fit int64 become
// ints, everything else floats.
func DecodeJSON(data []byte) (*structenv.Object, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	n, err := decodeJSONValue(dec)
	if err != nil {
		return nil, errors.Wrap(err, "json")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.Wrap(structenv.ErrPrecondition, "json: trailing data after document")
	}
	return structenv.DocumentFrom(n)
}

func decodeJSONValue(dec *json.Decoder) (structenv.Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			o := structenv.NewObject()
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				v, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				o.Set(kt.(string), v)
			}
			_, err := dec.Token()
			return o, err
		case '[':
			arr := structenv.NewArray()
			for dec.More() {
				v, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				arr.Elems = append(arr.Elems, v)
			}
			_, err := dec.Token()
			return arr, err
		}
		return nil, errors.Errorf("unexpected delimiter %q", t)
	default:
		return structenv.FromUntyped(t)
	}
}

func fromYAML(v any) (structenv.Node, error) {
	switch x := v.(type) {
	case yaml.MapSlice:
		o := structenv.NewObject()
		for _, item := range x {
			n, err := fromYAML(item.Value)
			if err != nil {
				return nil, err
			}
			o.Set(fmt.Sprint(item.Key), n)
		}
		return o, nil
	case []any:
		arr := structenv.NewArray()
		for _, e := range x {
			n, err := fromYAML(e)
			if err != nil {
				return nil, err
			}
			arr.Elems = append(arr.Elems, n)
		}
		return arr, nil
	}
	return structenv.FromUntyped(normalize(v))
}

// normalize turns date and time values into their text form; StructEnv keeps
// timestamps as strings.
func normalize(v any) any {
	switch x := v.(type) {
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case toml.LocalDate, toml.LocalTime, toml.LocalDateTime:
		return fmt.Sprint(x)
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = normalize(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = normalize(e)
		}
		return out
	}
	return v
}

// =========================
// Encoding
// =========================

// Encode writes doc in the given format. sep only applies to StructEnv output.
func Encode(f Format, doc *structenv.Object, sep structenv.Separator) ([]byte, error) {
	if doc == nil {
		return nil, errors.Wrap(structenv.ErrPrecondition, "document is nil")
	}
	switch f {
	case FormatStructEnv:
		s, err := structenv.Serialize(doc, sep)
		if err != nil {
			return nil, err
		}
		return []byte(s + "\n"), nil
	case FormatJSON:
		var buf bytes.Buffer
		raw, err := json.Marshal(doc)
		if err != nil {
			return nil, errors.Wrap(err, "json")
		}
		if err := json.Indent(&buf, raw, "", "  "); err != nil {
			return nil, errors.Wrap(err, "json")
		}
		buf.WriteByte('\n')
		return buf.Bytes(), nil
	case FormatYAML:
		out, err := yaml.Marshal(toYAML(doc))
		if err != nil {
			return nil, errors.Wrap(err, "yaml")
		}
		return out, nil
	case FormatTOML:
		v, err := toTOML(doc)
		if err != nil {
			return nil, err
		}
		out, err := toml.Marshal(v)
		if err != nil {
			return nil, errors.Wrap(err, "toml")
		}
		return out, nil
	}
	return nil, errors.Errorf("unknown format %q", f)
}

func toYAML(n structenv.Node) any {
	switch v := n.(type) {
	case *structenv.Object:
		out := make(yaml.MapSlice, 0, v.Len())
		for _, k := range v.Keys() {
			child, _ := v.Get(k)
			out = append(out, yaml.MapItem{Key: k, Value: toYAML(child)})
		}
		return out
	case *structenv.Array:
		out := make([]any, len(v.Elems))
		for i, e := range v.Elems {
			out[i] = toYAML(e)
		}
		return out
	}
	return n.Value()
}

// toTOML drops null members; TOML has no null.
func toTOML(n structenv.Node) (any, error) {
	switch v := n.(type) {
	case *structenv.Object:
		out := make(map[string]any, v.Len())
		for _, k := range v.Keys() {
			child, _ := v.Get(k)
			if child.Kind() == structenv.Kinds.Null {
				continue
			}
			tv, err := toTOML(child)
			if err != nil {
				return nil, err
			}
			out[k] = tv
		}
		return out, nil
	case *structenv.Array:
		out := make([]any, 0, len(v.Elems))
		for _, e := range v.Elems {
			if e.Kind() == structenv.Kinds.Null {
				return nil, errors.Wrap(structenv.ErrUnsupportedFeature, "toml: null inside an array")
			}
			tv, err := toTOML(e)
			if err != nil {
				return nil, err
			}
			out = append(out, tv)
		}
		return out, nil
	}
	return n.Value(), nil
}
