package config

import "github.com/fwojciec/interpret"

const (
	defaultBaseURL      = "http://localhost:8080"
	defaultIssueLimit   = 5
	defaultReplayListen = ":8089"
	defaultReplayDelay  = "50ms"
	defaultChunkSize    = 24
)

// NewDefaultConfig returns a Config with defaults for every field. This is
// the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL: defaultBaseURL,
		},
		Interpret: InterpretConfig{
			Enabled:    true,
			Language:   interpret.DefaultLanguage,
			YAMLPath:   interpret.DefaultYAMLPath,
			IssuesPath: interpret.DefaultIssuesPath,
			Markdown:   true,
		},
		Kube: KubeConfig{
			IssueLimit: defaultIssueLimit,
		},
		Log: LogConfig{
			Pretty: true,
		},
		Replay: ReplayConfig{
			Listen:    defaultReplayListen,
			Delay:     defaultReplayDelay,
			ChunkSize: defaultChunkSize,
		},
	}
}
