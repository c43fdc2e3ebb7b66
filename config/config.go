// Package config loads and writes the kubeinterp configuration.
//
// Values come from defaults, config.toml, KUBEINTERP_* environment
// variables, and CLI flags, in increasing order of precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Validate checks that the configuration can drive a session.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("server.base_url %q: %w", c.Server.BaseURL, ErrInvalid)
	}
	if strings.TrimSpace(c.Interpret.Language) == "" {
		return fmt.Errorf("interpret.language is empty: %w", ErrInvalid)
	}
	for key, p := range map[string]string{
		"interpret.yaml_path":   c.Interpret.YAMLPath,
		"interpret.issues_path": c.Interpret.IssuesPath,
	} {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("%s %q must start with /: %w", key, p, ErrInvalid)
		}
	}
	if c.Kube.IssueLimit <= 0 {
		return fmt.Errorf("kube.issue_limit must be positive: %w", ErrInvalid)
	}
	if c.Replay.ChunkSize <= 0 {
		return fmt.Errorf("replay.chunk_size must be positive: %w", ErrInvalid)
	}
	if d, err := c.Replay.DelayDuration(); err != nil || d < 0 {
		return fmt.Errorf("replay.delay %q: %w", c.Replay.Delay, ErrInvalid)
	}
	return nil
}

// Write encodes cfg as TOML at path, creating parent directories. An
// existing file is only replaced when overwrite is true.
func Write(path string, cfg *Config, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config %s already exists", path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("checking config: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	// The file may hold a bearer token.
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
