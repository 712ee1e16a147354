package pkg

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
)

// NewLogger 创建写到 stderr 的日志器, level 为 debug/info/warn/error
func NewLogger(level string) (*log.Logger, error) {
	return newLogger(os.Stderr, level)
}

func newLogger(w io.Writer, level string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrapf(err, "log level %q", level)
	}
	return log.NewWithOptions(w, log.Options{
		Prefix: AppName,
		Level:  lvl,
	}), nil
}
