package unduni

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/smartystreets/goconvey/convey"
)

func TestEncode(t *testing.T) {
	convey.Convey("encode", t, func() {
		convey.So(Encode("a-b c"), convey.ShouldEqual, "a_s_b_20_c")
		convey.So(Encode("APP.name9"), convey.ShouldEqual, "APP.name9")
		convey.So(Encode("a_b"), convey.ShouldEqual, "a__b")
		convey.So(Encode("x=y"), convey.ShouldEqual, "x_eq_y")
		convey.So(Encode("é"), convey.ShouldEqual, "_E9_")
		convey.So(Encode("😀"), convey.ShouldEqual, "_1F600_")
		convey.So(Encode(""), convey.ShouldEqual, "")
	})
}

func TestDecode(t *testing.T) {
	convey.Convey("decode", t, func() {
		convey.Convey("primary tokens and hex", func() {
			s, err := Decode("a_s_b_20_c")
			convey.So(err, convey.ShouldBeNil)
			convey.So(s, convey.ShouldEqual, "a-b c")
		})

		convey.Convey("readable aliases", func() {
			s, err := Decode("my_o_key_space_x_dash_y")
			convey.So(err, convey.ShouldBeNil)
			convey.So(s, convey.ShouldEqual, "my-key x-y")
		})

		convey.Convey("doubled underscore", func() {
			s, err := Decode("a____b")
			convey.So(err, convey.ShouldBeNil)
			convey.So(s, convey.ShouldEqual, "a__b")
		})

		convey.Convey("unterminated token", func() {
			_, err := Decode("a_s")
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(errors.Is(err, ErrDecode), convey.ShouldBeTrue)
			var de *DecodeError
			convey.So(errors.As(err, &de), convey.ShouldBeTrue)
			convey.So(de.Offset, convey.ShouldEqual, 1)
		})

		convey.Convey("trailing underscore", func() {
			_, err := Decode("abc_")
			convey.So(errors.Is(err, ErrDecode), convey.ShouldBeTrue)
		})

		convey.Convey("bad hex", func() {
			_, err := Decode("_zz_")
			convey.So(errors.Is(err, ErrDecode), convey.ShouldBeTrue)
		})

		convey.Convey("surrogates and out of range", func() {
			_, err := Decode("_D800_")
			convey.So(errors.Is(err, ErrDecode), convey.ShouldBeTrue)
			_, err = Decode("_110000_")
			convey.So(errors.Is(err, ErrDecode), convey.ShouldBeTrue)
		})
	})
}

func TestTokens(t *testing.T) {
	convey.Convey("tokens for dash", t, func() {
		toks := Tokens('-')
		convey.So(toks, convey.ShouldResemble, []string{"_s_", "_o_", "_dash_"})
		convey.So(Token('-'), convey.ShouldEqual, "_s_")
		convey.So(Token('_'), convey.ShouldEqual, "__")
		convey.So(Tokens('Q'), convey.ShouldBeEmpty)
	})
}

func TestRoundTripAllCodePoints(t *testing.T) {
	convey.Convey("decode(encode(s)) == s for every scalar value", t, func() {
		var b strings.Builder
		failures := 0
		flush := func() {
			in := b.String()
			out, err := Decode(Encode(in))
			if err != nil || out != in {
				failures++
			}
			b.Reset()
		}
		for r := rune(0); r <= utf8.MaxRune; r++ {
			if r >= 0xD800 && r <= 0xDFFF {
				continue
			}
			b.WriteRune(r)
			if b.Len() > 16*1024 {
				flush()
			}
		}
		flush()
		convey.So(failures, convey.ShouldEqual, 0)
	})

	convey.Convey("mixed underscores and tokens", t, func() {
		for _, in := range []string{"_-", "-_", "__--", "a_-_b", "_", "a b_c-d.e"} {
			out, err := Decode(Encode(in))
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldEqual, in)
		}
	})
}
