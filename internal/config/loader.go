package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"procsup/internal/common/fsutil"
)

// Config holds runtime parameters for the procsup host.
// Zero values (nil for DrainTimeoutMS) mean "unspecified" and are replaced by
// Defaults.
type Config struct {
	LogLevel       string   `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat      string   `json:"log_format" yaml:"log_format" toml:"log_format"`
	StatusAddr     string   `json:"status_addr" yaml:"status_addr" toml:"status_addr"`
	CORSOrigins    []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
	Attached       bool     `json:"attached" yaml:"attached" toml:"attached"`
	Command        string   `json:"command" yaml:"command" toml:"command"`
	// DrainTimeoutMS bounds how long shutdown waits for children to exit.
	// Nil means the default; an explicit 0 disables waiting.
	DrainTimeoutMS *int     `json:"drain_timeout_ms" yaml:"drain_timeout_ms" toml:"drain_timeout_ms"`

	UserAgent UserAgent `json:"user_agent" yaml:"user_agent" toml:"user_agent"`
	Content   Content   `json:"content" yaml:"content" toml:"content"`
}

// UserAgent configures the user-agent service.
type UserAgent struct {
	Bin     string `json:"bin" yaml:"bin" toml:"bin"`
	Port    int    `json:"port" yaml:"port" toml:"port"`
	Host    string `json:"host" yaml:"host" toml:"host"`
	Version string `json:"version" yaml:"version" toml:"version"`
	DBPath  string `json:"db_path" yaml:"db_path" toml:"db_path"`
}

// Content configures the content service.
type Content struct {
	Entrypoint string `json:"entrypoint" yaml:"entrypoint" toml:"entrypoint"`
	Protocol   string `json:"protocol" yaml:"protocol" toml:"protocol"`
}

// Package defaults.
const (
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "auto"
	DefaultDrainTimeoutMS = 2000
	DefaultUAPort         = 9090
	DefaultUAHost         = "localhost"
	DefaultUAVersion      = "v1"
	DefaultProtocol       = "tofino"
)

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	p, err := fsutil.ExpandHome(path)
	if err != nil {
		return cfg, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(p)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", p, err)
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", p, err)
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", p, err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// Defaults fills unset fields. Service paths are resolved relative to root,
// which is normally two levels above the host executable.
func (c Config) Defaults(root string) Config {
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
	if c.DrainTimeoutMS == nil || *c.DrainTimeoutMS < 0 {
		ms := DefaultDrainTimeoutMS
		c.DrainTimeoutMS = &ms
	}
	servicesDir := filepath.Join(root, "lib", "services")
	if c.UserAgent.Bin == "" {
		c.UserAgent.Bin = filepath.Join(servicesDir, "user-agent-service", "user-agent-service")
	}
	if c.UserAgent.Port == 0 {
		c.UserAgent.Port = DefaultUAPort
	}
	if c.UserAgent.Host == "" {
		c.UserAgent.Host = DefaultUAHost
	}
	if c.UserAgent.Version == "" {
		c.UserAgent.Version = DefaultUAVersion
	}
	if c.UserAgent.DBPath == "" {
		c.UserAgent.DBPath = root
	}
	if c.Content.Entrypoint == "" {
		c.Content.Entrypoint = filepath.Join(servicesDir, "content-service", "index.js")
	}
	if c.Content.Protocol == "" {
		c.Content.Protocol = DefaultProtocol
	}
	return c
}

// DrainTimeout returns DrainTimeoutMS as a duration; nil yields the default.
func (c Config) DrainTimeout() time.Duration {
	if c.DrainTimeoutMS == nil {
		return DefaultDrainTimeoutMS * time.Millisecond
	}
	return time.Duration(*c.DrainTimeoutMS) * time.Millisecond
}

// ExpandPaths resolves a leading '~' in every path field.
func (c Config) ExpandPaths() (Config, error) {
	for _, p := range []*string{&c.Command, &c.UserAgent.Bin, &c.UserAgent.DBPath, &c.Content.Entrypoint} {
		v, err := fsutil.ExpandHome(*p)
		if err != nil {
			return c, err
		}
		*p = v
	}
	return c, nil
}

// ApplyEnv overrides fields from PROCSUP_* environment variables. lookup is
// os.LookupEnv outside tests.
func (c Config) ApplyEnv(lookup func(string) (string, bool)) Config {
	if v, ok := lookup("PROCSUP_STATUS_ADDR"); ok && v != "" {
		c.StatusAddr = v
	}
	if v, ok := lookup("PROCSUP_LOG_LEVEL"); ok && v != "" {
		c.LogLevel = v
	}
	if v, ok := lookup("PROCSUP_LOG_FORMAT"); ok && v != "" {
		c.LogFormat = v
	}
	if v, ok := lookup("PROCSUP_COMMAND"); ok && v != "" {
		c.Command = v
	}
	if v, ok := lookup("PROCSUP_ATTACHED"); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Attached = b
		}
	}
	return c
}
