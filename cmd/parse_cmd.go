package cmd

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/dzjyyds666/structenv/parse"
	"github.com/dzjyyds666/structenv/parse/structenv"
	"github.com/dzjyyds666/structenv/pkg"
)

type ParseParams struct {
	Find      string `json:"find"`       // 查找的key, 用 . 分隔路径
	Input     string `json:"input"`      // 输入文件路径, 默认 stdin
	Output    string `json:"output"`     // 输出文件地址, 默认 stdout
	To        string `json:"to"`         // 输出格式 json/yaml/toml/env
	NoPlugins bool   `json:"no_plugins"` // 不执行 #plug 指令
	Watch     bool   `json:"watch"`      // 输入文件变化时重新解析
}

var parseParams = &ParseParams{}

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Parse StructEnv text into JSON, YAML or TOML",
	Example: `  structenv parse -i app.env
  structenv parse -i app.env --to yaml -f APP.NAME
  cat app.env | structenv parse --no-plugins`,
	Args: cobra.NoArgs,
	RunE: parseRun,
}

func init() {
	parseCmd.Flags().StringVarP(&parseParams.Find, "find", "f", "", "only print the value at this dotted path")
	parseCmd.Flags().StringVarP(&parseParams.Input, "input", "i", "", "input file path")
	parseCmd.Flags().StringVarP(&parseParams.Output, "output", "o", "", "output path")
	parseCmd.Flags().StringVarP(&parseParams.To, "to", "t", "", "output format: json, yaml, toml, env (default from output extension, else json)")
	parseCmd.Flags().BoolVar(&parseParams.NoPlugins, "no-plugins", false, "treat #plug lines as comments")
	parseCmd.Flags().BoolVarP(&parseParams.Watch, "watch", "w", false, "re-run when the input file changes")
}

func parseRun(cmd *cobra.Command, args []string) error {
	format := parse.FormatOf(parseParams.Output, parse.FormatJSON)
	if parseParams.To != "" {
		f, err := parse.ParseFormat(parseParams.To)
		if err != nil {
			return err
		}
		format = f
	}

	once := func() error {
		data, err := pkg.ReadInput(parseParams.Input, cmd.InOrStdin())
		if err != nil {
			return err
		}
		out, err := parseDocument(cmd.Context(), string(data), format)
		if err != nil {
			return err
		}
		return pkg.WriteOutput(parseParams.Output, out, cmd.OutOrStdout())
	}

	if !parseParams.Watch {
		return once()
	}
	if parseParams.Input == "" || parseParams.Input == "-" {
		return errors.New("--watch needs an input file")
	}
	if err := once(); err != nil {
		logger.Error("parse failed", "input", parseParams.Input, "err", err)
	}
	return watchFile(cmd.Context(), parseParams.Input, func() {
		if err := once(); err != nil {
			logger.Error("parse failed", "input", parseParams.Input, "err", err)
		}
	})
}

func parseDocument(ctx context.Context, text string, format parse.Format) ([]byte, error) {
	var doc *structenv.Object
	if config.Plugins.Enabled && !parseParams.NoPlugins {
		rep, err := pipeline().Run(ctx, text)
		if err != nil {
			return nil, err
		}
		doc = rep.Document
	} else {
		d, err := structenv.Parse(text)
		if err != nil {
			return nil, err
		}
		doc = d
	}

	if parseParams.Find == "" {
		sep, err := separator("", doc)
		if err != nil {
			return nil, err
		}
		return parse.Encode(format, doc, sep)
	}

	n, ok := structenv.Get(doc, strings.Split(parseParams.Find, ".")...)
	if !ok {
		return nil, errors.Errorf("key %q not found", parseParams.Find)
	}
	if o, isObj := n.(*structenv.Object); isObj {
		sep, err := separator("", o)
		if err != nil {
			return nil, err
		}
		return parse.Encode(format, o, sep)
	}
	if v, isVal := n.(*structenv.Value); isVal && v.Type == structenv.Kinds.String {
		return []byte(structenv.MustString(v) + "\n"), nil
	}
	out, err := json.Marshal(n)
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

// watchFile calls fn after every write to path until ctx is done. The parent
// directory is watched so editors that replace the file are followed.
func watchFile(ctx context.Context, path string, fn func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create watcher")
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return errors.Wrapf(err, "watch %s", path)
	}
	logger.Info("watching", "path", path)

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			debounce = time.After(100 * time.Millisecond)
		case <-debounce:
			debounce = nil
			fn()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "err", err)
		}
	}
}
