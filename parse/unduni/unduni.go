package unduni

// unduni maps arbitrary text into ASCII keys built from letters, digits, dots
// and underscore-delimited tokens, so any string can be carried in the key
// position of a KEY=value line.
//
//   - ASCII letters, digits and '.' pass through
//   - '_' is doubled
//   - known punctuation uses a short token: '-' -> _s_
//   - everything else uses its code point in uppercase hex: ' ' -> _20_

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// =========================
// Encoding Map
// =========================

var primary = map[rune]string{
	'!':  "b",
	'"':  "q",
	'#':  "h",
	'$':  "d",
	'%':  "p",
	'&':  "a",
	'\'': "ap",
	'(':  "lp",
	')':  "rp",
	'*':  "x",
	'+':  "pl",
	',':  "c",
	'-':  "s",
	'/':  "sl",
	':':  "co",
	';':  "sc",
	'<':  "lt",
	'=':  "eq",
	'>':  "gt",
	'?':  "qm",
	'@':  "at",
	'[':  "lb",
	'\\': "bs",
	']':  "rb",
	'^':  "ca",
	'`':  "bt",
	'{':  "lc",
	'|':  "pi",
	'}':  "rc",
	'~':  "t",
}

type alias struct {
	token string
	r     rune
}

// readable aliases, accepted by Decode but never produced by Encode
var aliases = []alias{
	{"o", '-'},
	{"dash", '-'},
	{"space", ' '},
	{"tab", '\t'},
	{"nl", '\n'},
	{"dot", '.'},
	{"under", '_'},
	{"slash", '/'},
	{"colon", ':'},
	{"comma", ','},
	{"plus", '+'},
	{"star", '*'},
	{"hash", '#'},
	{"amp", '&'},
}

var (
	reversePrimary = make(map[string]rune, len(primary))
	reverseAlias   = make(map[string]rune, len(aliases))
)

func init() {
	for r, tok := range primary {
		reversePrimary[tok] = r
	}
	for _, a := range aliases {
		reverseAlias[a.token] = a.r
	}
}

// Tokens returns every underscore-wrapped token that decodes to r: the primary
// token first, then the aliases in table order.
func Tokens(r rune) []string {
	var out []string
	if tok, ok := primary[r]; ok {
		out = append(out, "_"+tok+"_")
	}
	for _, a := range aliases {
		if a.r == r {
			out = append(out, "_"+a.token+"_")
		}
	}
	return out
}

// Token returns the token Encode produces for r.
func Token(r rune) string {
	switch {
	case r == '_':
		return "__"
	case isPassThrough(r):
		return string(r)
	}
	if tok, ok := primary[r]; ok {
		return "_" + tok + "_"
	}
	return "_" + strings.ToUpper(strconv.FormatInt(int64(r), 16)) + "_"
}

// =========================
// Errors
// =========================

var ErrDecode = errors.New("unduni: decode error")

type DecodeError struct {
	Input  string
	Offset int
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("unduni: %s at offset %d in %q", e.Reason, e.Offset, e.Input)
}

func (e *DecodeError) Unwrap() error { return ErrDecode }

// =========================
// Public API
// =========================

func Encode(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		b.WriteString(Token(r))
	}
	return b.String()
}

func Decode(key string) (string, error) {
	var b strings.Builder
	b.Grow(len(key))
	for i := 0; i < len(key); {
		ch := key[i]
		if ch != '_' {
			b.WriteByte(ch)
			i++
			continue
		}
		if i+1 < len(key) && key[i+1] == '_' {
			b.WriteByte('_')
			i += 2
			continue
		}
		end := strings.IndexByte(key[i+1:], '_')
		if end < 0 {
			return "", &DecodeError{Input: key, Offset: i, Reason: "unterminated token"}
		}
		body := key[i+1 : i+1+end]
		r, reason := decodeToken(body)
		if reason != "" {
			return "", &DecodeError{Input: key, Offset: i, Reason: reason}
		}
		b.WriteRune(r)
		i += end + 2
	}
	return b.String(), nil
}

// =========================
// Utilities
// =========================

func isPassThrough(r rune) bool {
	return r == '.' ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}

func decodeToken(body string) (rune, string) {
	if r, ok := reversePrimary[body]; ok {
		return r, ""
	}
	if r, ok := reverseAlias[body]; ok {
		return r, ""
	}
	v, err := strconv.ParseUint(body, 16, 32)
	if err != nil {
		return 0, fmt.Sprintf("invalid token %q", body)
	}
	r := rune(v)
	if v > utf8.MaxRune || (r >= 0xD800 && r <= 0xDFFF) {
		return 0, fmt.Sprintf("code point %q out of range", body)
	}
	return r, ""
}
