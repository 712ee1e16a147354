package pkg

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
	"github.com/smartystreets/goconvey/convey"
)

func TestLoadConfig(t *testing.T) {
	convey.Convey("defaults without a file", t, func() {
		t.Setenv("XDG_CONFIG_HOME", t.TempDir())
		t.Setenv("XDG_CONFIG_DIRS", t.TempDir())
		xdg.Reload()
		cfg, path, err := LoadConfig("")
		convey.So(err, convey.ShouldBeNil)
		convey.So(path, convey.ShouldBeEmpty)
		convey.So(cfg, convey.ShouldResemble, DefaultConfig())
	})

	convey.Convey("file values and env overrides", t, func() {
		file := filepath.Join(t.TempDir(), "structenv.toml")
		err := os.WriteFile(file, []byte(`separator = "."

[plugins.shell]
enabled = false
timeout = "2s"

[server]
addr = "127.0.0.1:9000"
`), 0o644)
		convey.So(err, convey.ShouldBeNil)
		t.Setenv("STRUCTENV_LOG_LEVEL", "debug")

		cfg, path, err := LoadConfig(file)
		convey.So(err, convey.ShouldBeNil)
		convey.So(path, convey.ShouldEqual, file)
		convey.So(cfg.Separator, convey.ShouldEqual, ".")
		convey.So(cfg.Plugins.Enabled, convey.ShouldBeTrue)
		convey.So(cfg.Plugins.Shell.Enabled, convey.ShouldBeFalse)
		convey.So(cfg.Plugins.Shell.Timeout, convey.ShouldEqual, 2*time.Second)
		convey.So(cfg.Server.Addr, convey.ShouldEqual, "127.0.0.1:9000")
		convey.So(cfg.Log.Level, convey.ShouldEqual, "debug")
	})

	convey.Convey("bad input", t, func() {
		_, _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
		convey.So(err, convey.ShouldNotBeNil)

		file := filepath.Join(t.TempDir(), "bad.yaml")
		convey.So(os.WriteFile(file, []byte("separator: /\n"), 0o644), convey.ShouldBeNil)
		_, _, err = LoadConfig(file)
		convey.So(err, convey.ShouldNotBeNil)
	})
}

func TestLogger(t *testing.T) {
	convey.Convey("level filtering", t, func() {
		var buf bytes.Buffer
		logger, err := newLogger(&buf, "warn")
		convey.So(err, convey.ShouldBeNil)
		convey.So(logger.GetLevel(), convey.ShouldEqual, log.WarnLevel)
		logger.Info("hidden")
		logger.Warn("shown", "name", "x")
		convey.So(buf.String(), convey.ShouldNotContainSubstring, "hidden")
		convey.So(buf.String(), convey.ShouldContainSubstring, "shown")

		_, err = NewLogger("loud")
		convey.So(err, convey.ShouldNotBeNil)
	})
}

func TestFileOperate(t *testing.T) {
	convey.Convey("read and write", t, func() {
		dir := t.TempDir()
		file := filepath.Join(dir, "out.env")

		exist, err := CheckFileExist(file)
		convey.So(err, convey.ShouldBeNil)
		convey.So(exist, convey.ShouldBeFalse)

		convey.So(WriteOutput(file, []byte("A=1\n"), nil), convey.ShouldBeNil)
		data, err := ReadInput(file, nil)
		convey.So(err, convey.ShouldBeNil)
		convey.So(string(data), convey.ShouldEqual, "A=1\n")

		data, err = ReadInput("-", strings.NewReader("B=2"))
		convey.So(err, convey.ShouldBeNil)
		convey.So(string(data), convey.ShouldEqual, "B=2")

		var out bytes.Buffer
		convey.So(WriteOutput("", []byte("C=3"), &out), convey.ShouldBeNil)
		convey.So(out.String(), convey.ShouldEqual, "C=3")

		_, err = ReadInput(filepath.Join(dir, "none"), nil)
		convey.So(err, convey.ShouldNotBeNil)
	})
}
