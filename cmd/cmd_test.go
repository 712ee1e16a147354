package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adrg/xdg"
	"github.com/smartystreets/goconvey/convey"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_DIRS", t.TempDir())
	xdg.Reload()

	*rootParams = RootParams{}
	*parseParams = ParseParams{}
	*serializeParams = SerializeParams{}
	*fmtParams = FmtParams{}
	*serveParams = ServeParams{}

	var out bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestKeyCmd(t *testing.T) {
	convey.Convey("encode and decode", t, func() {
		out, err := execute(t, "", "key", "encode", "a-b c", "x_y")
		convey.So(err, convey.ShouldBeNil)
		convey.So(out, convey.ShouldEqual, "a_s_b_20_c\nx__y\n")

		out, err = execute(t, "", "key", "decode", "a_dash_b")
		convey.So(err, convey.ShouldBeNil)
		convey.So(out, convey.ShouldEqual, "a-b\n")

		_, err = execute(t, "", "key", "decode", "a_b")
		convey.So(err, convey.ShouldNotBeNil)
	})
}

func TestParseCmd(t *testing.T) {
	convey.Convey("stdin to json", t, func() {
		out, err := execute(t, "APP_NAME=demo\nAPP_PORT=80\nTAGS=a\nTAGS=b", "parse")
		convey.So(err, convey.ShouldBeNil)
		convey.So(out, convey.ShouldEqual, `{
  "APP": {
    "NAME": "demo",
    "PORT": 80
  },
  "TAGS": [
    "a",
    "b"
  ]
}
`)
	})

	convey.Convey("directives run unless disabled", t, func() {
		out, err := execute(t, "#plug shell tr a-z A-Z\nname=x", "parse", "--log-level", "error")
		convey.So(err, convey.ShouldBeNil)
		convey.So(out, convey.ShouldContainSubstring, `"NAME": "X"`)

		out, err = execute(t, "#plug shell tr a-z A-Z\nname=x", "parse", "--no-plugins")
		convey.So(err, convey.ShouldBeNil)
		convey.So(out, convey.ShouldContainSubstring, `"name": "x"`)

		_, err = execute(t, "#plug shell false\nname=x", "parse")
		convey.So(err, convey.ShouldNotBeNil)
	})

	convey.Convey("find and output formats", t, func() {
		out, err := execute(t, "APP_NAME=demo\nAPP_PORT=80", "parse", "-f", "APP.NAME")
		convey.So(err, convey.ShouldBeNil)
		convey.So(out, convey.ShouldEqual, "demo\n")

		out, err = execute(t, "APP_NAME=demo\nAPP_PORT=80", "parse", "-f", "APP.PORT")
		convey.So(err, convey.ShouldBeNil)
		convey.So(out, convey.ShouldEqual, "80\n")

		out, err = execute(t, "APP_NAME=demo\nAPP_PORT=80", "parse", "-f", "APP", "--to", "yaml")
		convey.So(err, convey.ShouldBeNil)
		convey.So(out, convey.ShouldEqual, "NAME: demo\nPORT: 80\n")

		_, err = execute(t, "A=1", "parse", "-f", "B")
		convey.So(err, convey.ShouldNotBeNil)
	})

	convey.Convey("files", t, func() {
		dir := t.TempDir()
		in := filepath.Join(dir, "app.env")
		convey.So(os.WriteFile(in, []byte("A_B=1\n"), 0o644), convey.ShouldBeNil)
		outFile := filepath.Join(dir, "app.toml")
		_, err := execute(t, "", "parse", "-i", in, "-o", outFile)
		convey.So(err, convey.ShouldBeNil)
		data, err := os.ReadFile(outFile)
		convey.So(err, convey.ShouldBeNil)
		convey.So(string(data), convey.ShouldContainSubstring, "B = 1")

		_, err = execute(t, "", "parse", "--watch")
		convey.So(err, convey.ShouldNotBeNil)
	})
}

func TestSerializeCmd(t *testing.T) {
	convey.Convey("json and yaml input", t, func() {
		out, err := execute(t, `{"app":{"name":"demo","my-key":1}}`, "serialize")
		convey.So(err, convey.ShouldBeNil)
		convey.So(out, convey.ShouldEqual, "app_name=\"demo\"\napp_my_o_key=1\n")

		out, err = execute(t, "app:\n  name: demo\n", "serialize", "--from", "yaml", "-s", ".")
		convey.So(err, convey.ShouldBeNil)
		convey.So(out, convey.ShouldEqual, "app.name=\"demo\"\n")

		_, err = execute(t, `{"a":1}`, "serialize", "-s", "/")
		convey.So(err, convey.ShouldNotBeNil)
		_, err = execute(t, `{"a":1}`, "serialize", "--from", "xml")
		convey.So(err, convey.ShouldNotBeNil)
	})
}

func TestFmtCmd(t *testing.T) {
	convey.Convey("canonical output", t, func() {
		out, err := execute(t, "# comment\nB=x\n\nA=1\n", "fmt")
		convey.So(err, convey.ShouldBeNil)
		convey.So(out, convey.ShouldEqual, "B=\"x\"\nA=1\n")

		out, err = execute(t, "a.b=x\n", "fmt")
		convey.So(err, convey.ShouldBeNil)
		convey.So(out, convey.ShouldEqual, "a.b=\"x\"\n")
	})

	convey.Convey("diff", t, func() {
		out, err := execute(t, "B=x\nA=1\n", "fmt", "--diff")
		convey.So(err, convey.ShouldBeNil)
		convey.So(out, convey.ShouldEqual, "-B=x\n+B=\"x\"\n")
	})

	convey.Convey("write back", t, func() {
		file := filepath.Join(t.TempDir(), "app.env")
		convey.So(os.WriteFile(file, []byte("A=x\n"), 0o644), convey.ShouldBeNil)
		_, err := execute(t, "", "fmt", "-i", file, "-w")
		convey.So(err, convey.ShouldBeNil)
		data, _ := os.ReadFile(file)
		convey.So(string(data), convey.ShouldEqual, "A=\"x\"\n")

		_, err = execute(t, "A=1", "fmt", "-w")
		convey.So(err, convey.ShouldNotBeNil)
	})
}

func TestLineDiff(t *testing.T) {
	convey.Convey("changed lines only", t, func() {
		convey.So(lineDiff("a\nb\n", "a\nb\n", false), convey.ShouldBeEmpty)
		convey.So(lineDiff("a\nb\nc\n", "a\nB\nc\nd\n", false), convey.ShouldEqual, "-b\n+B\n+d\n")
		convey.So(lineDiff("x\n", "y\n", true), convey.ShouldEqual, "\x1b[31m-x\x1b[0m\n\x1b[32m+y\x1b[0m\n")
	})
}

func TestVersionCmd(t *testing.T) {
	convey.Convey("version", t, func() {
		out, err := execute(t, "", "version")
		convey.So(err, convey.ShouldBeNil)
		convey.So(out, convey.ShouldStartWith, "StructEnv ")
	})
}
