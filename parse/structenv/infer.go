package structenv

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// =========================
// Value Inference
// =========================

var (
	intPattern       = regexp.MustCompile(`^-?\d+$`)
	floatPattern     = regexp.MustCompile(`(?i)^-?\d*\.\d+(e-?\d+)?$`)
	timestampPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z$`)
)

var (
	trueWords  = map[string]bool{"t": true, "true": true, "on": true, "y": true, "yes": true}
	falseWords = map[string]bool{"f": true, "false": true, "off": true, "n": true, "no": true}
	nullWords  = map[string]bool{"n": true, "nil": true, "void": true, "null": true, "undefined": true, "none": true, "-": true}
)

// Infer maps one raw value to a typed node. The checks run in a fixed order and
// the first match wins.
func Infer(raw string) (Node, error) {
	if raw == "[]" {
		return NewArray(), nil
	}
	if raw == "{}" {
		return NewObject(), nil
	}
	if isQuoted(raw) {
		return String(unquote(raw[1 : len(raw)-1])), nil
	}
	if strings.Contains(raw, "#") {
		return nil, errf(ErrUnsupportedFeature, 0, "inline comment in value %q", raw)
	}
	if intPattern.MatchString(raw) {
		if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return Int(i), nil
		}
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return Float(f), nil
		}
	}
	if floatPattern.MatchString(raw) {
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return Float(f), nil
		}
	}
	lower := strings.ToLower(raw)
	if trueWords[lower] {
		return Bool(true), nil
	}
	if falseWords[lower] {
		return Bool(false), nil
	}
	if nullWords[lower] {
		return Null(), nil
	}
	if lower == "empty" || raw == "" {
		return String(""), nil
	}
	if timestampPattern.MatchString(raw) {
		return String(raw), nil
	}
	return String(raw), nil
}

// isQuoted reports whether raw is a complete quoted string on its own.
func isQuoted(raw string) bool {
	return len(raw) >= 2 && raw[0] == '"' && endsWithQuote(raw[1:])
}

// opensMultiline reports whether raw starts a quoted value that continues on
// the following lines.
func opensMultiline(raw string) bool {
	return strings.HasPrefix(raw, `"`) && !isQuoted(raw)
}

// endsWithQuote reports whether s ends with a '"' that is not escaped.
func endsWithQuote(s string) bool {
	if !strings.HasSuffix(s, `"`) {
		return false
	}
	n := 0
	for i := len(s) - 2; i >= 0 && s[i] == '\\'; i-- {
		n++
	}
	return n%2 == 0
}

// unquote decodes the escapes in the body of a quoted string. Bodies that do
// not decode are returned as written.
func unquote(body string) string {
	s, err := decodeBasicString(body)
	if err != nil {
		return body
	}
	return s
}

func decodeBasicString(s string) (string, error) {
	var out strings.Builder
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch == '"' {
			return "", errors.New("unescaped quote")
		}
		if ch != '\\' {
			out.WriteByte(ch)
			continue
		}
		if i+1 >= len(s) {
			return "", errors.New("invalid escape")
		}
		i++
		switch s[i] {
		case 'b':
			out.WriteByte('\b')
		case 't':
			out.WriteByte('\t')
		case 'n':
			out.WriteByte('\n')
		case 'f':
			out.WriteByte('\f')
		case 'r':
			out.WriteByte('\r')
		case '"':
			out.WriteByte('"')
		case '\\':
			out.WriteByte('\\')
		case '/':
			out.WriteByte('/')
		case 'u':
			if i+4 >= len(s) {
				return "", errors.New("invalid unicode escape")
			}
			v, err := strconv.ParseUint(s[i+1:i+5], 16, 32)
			if err != nil {
				return "", err
			}
			out.WriteRune(rune(v))
			i += 4
		default:
			return "", errors.New("unsupported escape")
		}
	}
	return out.String(), nil
}

// encodeBasicString is the inverse of decodeBasicString for one physical
// line; newlines are handled by the caller.
func encodeBasicString(s string) string {
	var out strings.Builder
	for _, r := range s {
		switch r {
		case '"':
			out.WriteString(`\"`)
		case '\\':
			out.WriteString(`\\`)
		case '\b':
			out.WriteString(`\b`)
		case '\t':
			out.WriteString(`\t`)
		case '\f':
			out.WriteString(`\f`)
		case '\r':
			out.WriteString(`\r`)
		default:
			if r < 0x20 || r == 0x7f {
				out.WriteString(`\u00`)
				out.WriteString(strings.ToUpper(strconv.FormatInt(int64(r)|0x100, 16)[1:]))
				continue
			}
			out.WriteRune(r)
		}
	}
	return out.String()
}
