package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. KUBEINTERP_SERVER_BASE_URL.
const EnvPrefix = "KUBEINTERP"

// InitViper creates a *viper.Viper with defaults from NewDefaultConfig, the
// config file, and environment bindings. An explicit path must exist;
// without one, config.toml is looked up in the user config directory and
// the working directory, and a missing file is not an error.
//
// Precedence (highest to lowest):
//  1. CLI flags (once bound via BindFlags)
//  2. Environment variables
//  3. config.toml
//  4. Defaults
func InitViper(path string) (*viper.Viper, error) {
	v := viper.New()
	setViperDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		if dir, err := DefaultDir(); err == nil {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if path != "" || !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// Load resolves the configuration from path, the environment, and any
// registered flags present in flags, then validates it.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v, err := InitViper(path)
	if err != nil {
		return nil, err
	}
	if flags != nil {
		if err := BindFlags(v, flags); err != nil {
			return nil, err
		}
	}
	return Decode(v)
}

// Decode unmarshals v into a Config and validates it.
func Decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultDir returns the directory searched for config.toml when no path is
// given.
func DefaultDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "kubeinterp"), nil
}

// setViperDefaults registers NewDefaultConfig values under dotted keys.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("server.base_url", d.Server.BaseURL)
	v.SetDefault("server.token", d.Server.Token)

	v.SetDefault("interpret.enabled", d.Interpret.Enabled)
	v.SetDefault("interpret.language", d.Interpret.Language)
	v.SetDefault("interpret.yaml_path", d.Interpret.YAMLPath)
	v.SetDefault("interpret.issues_path", d.Interpret.IssuesPath)
	v.SetDefault("interpret.markdown", d.Interpret.Markdown)

	v.SetDefault("kube.kubeconfig", d.Kube.Kubeconfig)
	v.SetDefault("kube.namespace", d.Kube.Namespace)
	v.SetDefault("kube.issue_limit", d.Kube.IssueLimit)

	v.SetDefault("log.debug", d.Log.Debug)
	v.SetDefault("log.json", d.Log.JSON)
	v.SetDefault("log.pretty", d.Log.Pretty)
	v.SetDefault("log.file", d.Log.File)

	v.SetDefault("replay.listen", d.Replay.Listen)
	v.SetDefault("replay.delay", d.Replay.Delay)
	v.SetDefault("replay.chunk_size", d.Replay.ChunkSize)

	v.SetDefault("metrics.listen", d.Metrics.Listen)
}
