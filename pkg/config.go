package pkg

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	AppName   = "structenv"
	EnvPrefix = "STRUCTENV"
)

type (
	Config struct {
		Separator string        `json:"separator" mapstructure:"separator"` // 输出分隔符: "", "_", "."
		Log       LogConfig     `json:"log" mapstructure:"log"`
		Plugins   PluginsConfig `json:"plugins" mapstructure:"plugins"`
		Server    ServerConfig  `json:"server" mapstructure:"server"`
	}

	LogConfig struct {
		Level string `json:"level" mapstructure:"level"`
	}

	PluginsConfig struct {
		Enabled  bool        `json:"enabled" mapstructure:"enabled"`   // 关闭后 #plug 行按注释处理
		Protocol string      `json:"protocol" mapstructure:"protocol"` // 启动时声明的协议版本
		Shell    ShellConfig `json:"shell" mapstructure:"shell"`
	}

	ShellConfig struct {
		Enabled bool          `json:"enabled" mapstructure:"enabled"`
		Timeout time.Duration `json:"timeout" mapstructure:"timeout"` // 0 表示不限时
	}

	ServerConfig struct {
		Addr string `json:"addr" mapstructure:"addr"`
	}
)

func DefaultConfig() *Config {
	return &Config{
		Log:     LogConfig{Level: "info"},
		Plugins: PluginsConfig{Enabled: true, Protocol: "1", Shell: ShellConfig{Enabled: true}},
		Server:  ServerConfig{Addr: ":8080"},
	}
}

// DefaultConfigPath is where LoadConfig looks when no path is given.
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.toml")
}

// LoadConfig merges defaults, the config file and STRUCTENV_* variables, in
// that order. An empty path uses DefaultConfigPath when that file exists. The
// second return value is the file actually read, empty if none.
func LoadConfig(path string) (*Config, string, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("separator", defaults.Separator)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("plugins.enabled", defaults.Plugins.Enabled)
	v.SetDefault("plugins.protocol", defaults.Plugins.Protocol)
	v.SetDefault("plugins.shell.enabled", defaults.Plugins.Shell.Enabled)
	v.SetDefault("plugins.shell.timeout", defaults.Plugins.Shell.Timeout)
	v.SetDefault("server.addr", defaults.Server.Addr)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	resolved := ""
	if path != "" {
		exist, err := CheckFileExist(path)
		if err != nil {
			return nil, "", errors.Wrap(err, "check config file")
		}
		if !exist {
			return nil, "", errors.Errorf("config file not found: %s", path)
		}
		resolved = path
	} else if found, err := xdg.SearchConfigFile(filepath.Join(AppName, "config.toml")); err == nil {
		resolved = found
	}

	if resolved != "" {
		v.SetConfigFile(resolved)
		if err := v.ReadInConfig(); err != nil {
			return nil, "", errors.Wrapf(err, "read config %s", resolved)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", errors.Wrap(err, "failed to parse config")
	}
	switch cfg.Separator {
	case "", "_", ".":
	default:
		return nil, "", errors.Errorf("invalid separator %q, want \"_\" or \".\"", cfg.Separator)
	}
	return &cfg, resolved, nil
}
