package structenv

import (
	"errors"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestInfer(t *testing.T) {
	convey.Convey("inference order", t, func() {
		cases := []struct {
			raw  string
			kind Kind
			want any
		}{
			{`[]`, Kinds.Array, []any{}},
			{`{}`, Kinds.Object, map[string]any{}},
			{`"a\tb"`, Kinds.String, "a\tb"},
			{`"é\/"`, Kinds.String, "é/"},
			{`"bad \q"`, Kinds.String, `bad \q`},
			{`"say "hi""`, Kinds.String, `say "hi"`},
			{`""`, Kinds.String, ""},
			{`"42"`, Kinds.String, "42"},
			{`42`, Kinds.Int, int64(42)},
			{`-7`, Kinds.Int, int64(-7)},
			{`99999999999999999999`, Kinds.Float, 1e20},
			{`1.5`, Kinds.Float, 1.5},
			{`.5`, Kinds.Float, 0.5},
			{`-1.5E-3`, Kinds.Float, -0.0015},
			{`1e5`, Kinds.String, "1e5"},
			{`1.0.0`, Kinds.String, "1.0.0"},
			{`YES`, Kinds.Bool, true},
			{`t`, Kinds.Bool, true},
			{`On`, Kinds.Bool, true},
			{`n`, Kinds.Bool, false},
			{`Off`, Kinds.Bool, false},
			{`None`, Kinds.Null, nil},
			{`nil`, Kinds.Null, nil},
			{`-`, Kinds.Null, nil},
			{`EMPTY`, Kinds.String, ""},
			{``, Kinds.String, ""},
			{`2024-01-02T03:04:05Z`, Kinds.String, "2024-01-02T03:04:05Z"},
			{`https://example.com/a?b=c`, Kinds.String, "https://example.com/a?b=c"},
			{`"#not a comment"`, Kinds.String, "#not a comment"},
		}
		for _, c := range cases {
			n, err := Infer(c.raw)
			convey.So(err, convey.ShouldBeNil)
			convey.So(n.Kind(), convey.ShouldEqual, c.kind)
			convey.So(ToUntyped(n), convey.ShouldResemble, c.want)
		}
	})

	convey.Convey("unquoted # is an inline comment", t, func() {
		for _, raw := range []string{"x # c", "#ff0000", "a#b"} {
			_, err := Infer(raw)
			convey.So(errors.Is(err, ErrUnsupportedFeature), convey.ShouldBeTrue)
		}
	})
}

func TestQuoteHelpers(t *testing.T) {
	convey.Convey("closing quotes", t, func() {
		convey.So(isQuoted(`"a"`), convey.ShouldBeTrue)
		convey.So(isQuoted(`"`), convey.ShouldBeFalse)
		convey.So(isQuoted(`"a\"`), convey.ShouldBeFalse)
		convey.So(isQuoted(`"a\\"`), convey.ShouldBeTrue)
		convey.So(opensMultiline(`"abc`), convey.ShouldBeTrue)
		convey.So(opensMultiline(`"a\"`), convey.ShouldBeTrue)
		convey.So(opensMultiline(`abc"`), convey.ShouldBeFalse)
	})

	convey.Convey("encode and decode are inverse", t, func() {
		for _, s := range []string{"", "plain", `q"uote`, `back\slash`, "tab\there", "bell\a", "cr\r"} {
			out, err := decodeBasicString(encodeBasicString(s))
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldEqual, s)
		}
	})
}
