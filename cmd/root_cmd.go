package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/dzjyyds666/structenv/parse/plug"
	"github.com/dzjyyds666/structenv/parse/structenv"
	"github.com/dzjyyds666/structenv/pkg"
)

// Version is set at build time with -ldflags "-X".
var Version = "v0.1 -- HEAD"

type RootParams struct {
	Config   string `json:"config"`    // 配置文件路径
	LogLevel string `json:"log_level"` // 覆盖配置中的日志级别
}

var rootParams = &RootParams{}

var (
	config *pkg.Config
	logger *log.Logger
)

var rootCmd = &cobra.Command{
	Use:   "structenv",
	Short: "StructEnv converts nested data to flat KEY=value lines and back.",
	Long: `StructEnv is a reversible encoding of nested, typed data as flat KEY=value lines.
Keys are split on '_' or '.', repeated keys become arrays and #plug directives
can rewrite the input while it is parsed.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadRuntime,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of StructEnv",
	Long:  `All software has versions. This is StructEnv's`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "StructEnv %s (plug protocol %s)\n", Version, plug.ProtocolVersion)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootParams.Config, "config", "c", "", "config file (default $XDG_CONFIG_HOME/structenv/config.toml)")
	rootCmd.PersistentFlags().StringVar(&rootParams.LogLevel, "log-level", "", "log level: debug, info, warn, error")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(serializeCmd)
	rootCmd.AddCommand(fmtCmd)
	rootCmd.AddCommand(keyCmd)
	rootCmd.AddCommand(serveCmd)
}

func loadRuntime(cmd *cobra.Command, args []string) error {
	cfg, path, err := pkg.LoadConfig(rootParams.Config)
	if err != nil {
		return err
	}
	if rootParams.LogLevel != "" {
		cfg.Log.Level = rootParams.LogLevel
	}
	l, err := pkg.NewLogger(cfg.Log.Level)
	if err != nil {
		return err
	}
	config, logger = cfg, l
	if path != "" {
		logger.Debug("config loaded", "path", path)
	}
	return nil
}

// =========================
// Shared Helpers
// =========================

func pipeline() *plug.Pipeline {
	return plug.New(plug.Config{
		Logger:   logger.WithPrefix("plug"),
		Protocol: config.Plugins.Protocol,
		Plugins: plug.DefaultPlugins(plug.PluginOptions{
			DisableShell: !config.Plugins.Shell.Enabled,
			Shell:        plug.ShellConfig{Timeout: config.Plugins.Shell.Timeout},
		}),
	})
}

// separator resolves a flag value, then the configured one, then the
// document's own needs.
func separator(flag string, doc *structenv.Object) (structenv.Separator, error) {
	s := flag
	if s == "" {
		s = config.Separator
	}
	switch s {
	case "":
		return structenv.AutoSeparator(doc), nil
	case "_", ".":
		return structenv.Separator(s[0]), nil
	}
	return 0, fmt.Errorf("invalid separator %q, want \"_\" or \".\"", s)
}
