package config

import "time"

// Config is the kubeinterp configuration, stored as config.toml. The TOML
// layout uses one section per concern.
type Config struct {
	Server    ServerConfig    `toml:"server" mapstructure:"server"`
	Interpret InterpretConfig `toml:"interpret" mapstructure:"interpret"`
	Kube      KubeConfig      `toml:"kube" mapstructure:"kube"`
	Log       LogConfig       `toml:"log" mapstructure:"log"`
	Replay    ReplayConfig    `toml:"replay" mapstructure:"replay"`
	Metrics   MetricsConfig   `toml:"metrics" mapstructure:"metrics"`
}

// ServerConfig locates the dashboard backend.
type ServerConfig struct {
	BaseURL string `toml:"base_url" mapstructure:"base_url"`
	Token   string `toml:"token,omitempty" mapstructure:"token"`
}

// InterpretConfig holds the interpretation feature settings. Enabled is the
// capability flag: when false no session starts.
type InterpretConfig struct {
	Enabled    bool   `toml:"enabled" mapstructure:"enabled"`
	Language   string `toml:"language" mapstructure:"language"`
	YAMLPath   string `toml:"yaml_path" mapstructure:"yaml_path"`
	IssuesPath string `toml:"issues_path" mapstructure:"issues_path"`
	Markdown   bool   `toml:"markdown" mapstructure:"markdown"`
}

// KubeConfig holds cluster access settings.
type KubeConfig struct {
	Kubeconfig string `toml:"kubeconfig,omitempty" mapstructure:"kubeconfig"`
	Namespace  string `toml:"namespace,omitempty" mapstructure:"namespace"`
	IssueLimit int    `toml:"issue_limit" mapstructure:"issue_limit"`
}

// LogConfig holds logging settings. File, when set, receives JSON logs in
// addition to the terminal output.
type LogConfig struct {
	Debug  bool   `toml:"debug" mapstructure:"debug"`
	JSON   bool   `toml:"json" mapstructure:"json"`
	Pretty bool   `toml:"pretty" mapstructure:"pretty"`
	File   string `toml:"file,omitempty" mapstructure:"file"`
}

// ReplayConfig holds settings for the replay server. Delay is a Go duration
// string such as "50ms".
type ReplayConfig struct {
	Listen    string `toml:"listen" mapstructure:"listen"`
	Delay     string `toml:"delay" mapstructure:"delay"`
	ChunkSize int    `toml:"chunk_size" mapstructure:"chunk_size"`
}

// DelayDuration parses Delay. An empty Delay is zero.
func (r ReplayConfig) DelayDuration() (time.Duration, error) {
	if r.Delay == "" {
		return 0, nil
	}
	return time.ParseDuration(r.Delay)
}

// MetricsConfig holds the Prometheus endpoint address. Empty disables it.
type MetricsConfig struct {
	Listen string `toml:"listen,omitempty" mapstructure:"listen"`
}
