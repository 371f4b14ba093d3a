// Package services starts the two auxiliary services supervised by procsup:
// the user-agent service and the content service. Each starter only builds a
// command line and environment; launching and tracking belong to the
// supervisor.
package services

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"procsup/internal/supervisor"
)

// Display names used in supervisor log lines.
const (
	UserAgentServiceName = "UA Service"
	ContentServiceName   = "Content service"
)

// Environment overrides applied to both services.
const (
	// EnvRunAsNode makes the host runtime behave as a plain script host.
	EnvRunAsNode = "ELECTRON_RUN_AS_NODE"
	// EnvNoAttachConsole suppresses console auto-attachment for detached children.
	EnvNoAttachConsole = "ELECTRON_NO_ATTACH_CONSOLE"
)

// Launcher starts a supervised child. *supervisor.Supervisor implements it.
type Launcher interface {
	Launch(name, command string, args []string, opts supervisor.LaunchOptions) (*supervisor.ManagedProcess, error)
}

var _ Launcher = (*supervisor.Supervisor)(nil)

// Config holds the fixed parameters of both services.
type Config struct {
	UserAgentBin      string
	Port              int
	Host              string
	Version           string
	DBPath            string
	ContentEntrypoint string
	// ContentProtocol is the scheme of the content service origin, e.g. "tofino".
	ContentProtocol string
}

// Options are the caller-facing knobs of both starters.
type Options struct {
	// Attached keeps the child in our process group and shares our output.
	// Children are detached by default so the user-agent service may outlive
	// its original parent.
	Attached bool
	// Command overrides the executable. Defaults to the host executable, which
	// only works when the host is a script runtime able to run the service
	// entry points.
	Command string
	// Logger receives starter-level messages. Nil discards them.
	Logger *zerolog.Logger
}

// Endpoint is where a client reaches the user-agent service.
type Endpoint struct {
	Port    int    `json:"port"`
	Host    string `json:"host"`
	Version string `json:"version"`
}

// Connector is a user-agent client that can be pointed at a running service.
type Connector interface {
	Connect(Endpoint) error
}

// ConnectorFunc adapts a function to Connector.
type ConnectorFunc func(Endpoint) error

func (f ConnectorFunc) Connect(ep Endpoint) error { return f(ep) }

// StartUserAgentService launches the user-agent service. When client is not
// nil it is told to connect once the process has been created; callers that
// run the service standalone pass nil.
func StartUserAgentService(l Launcher, client Connector, cfg Config, opts Options) (*supervisor.ManagedProcess, error) {
	command, err := resolveCommand(opts)
	if err != nil {
		return nil, err
	}
	args := UserAgentArgs(cfg)
	mp, err := l.Launch(UserAgentServiceName, command, args, launchOptions(opts))
	if err != nil {
		return nil, err
	}
	if client == nil {
		return mp, nil
	}
	ep := Endpoint{Port: cfg.Port, Host: cfg.Host, Version: cfg.Version}
	if err := client.Connect(ep); err != nil {
		return mp, fmt.Errorf("connect user agent client to %s:%d: %w", ep.Host, ep.Port, err)
	}
	logger(opts).Debug().Str("host", ep.Host).Int("port", ep.Port).Str("version", ep.Version).Msg("user agent client connected")
	return mp, nil
}

// StartContentService launches the content service.
func StartContentService(l Launcher, cfg Config, opts Options) (*supervisor.ManagedProcess, error) {
	command, err := resolveCommand(opts)
	if err != nil {
		return nil, err
	}
	return l.Launch(ContentServiceName, command, ContentArgs(cfg), launchOptions(opts))
}

// UserAgentArgs builds the user-agent service argument list.
func UserAgentArgs(cfg Config) []string {
	return []string{
		cfg.UserAgentBin,
		"--port", strconv.Itoa(cfg.Port),
		"--db", cfg.DBPath,
		"--version", cfg.Version,
		"--content-service-origin", cfg.ContentProtocol + "://",
	}
}

// ContentArgs builds the content service argument list.
func ContentArgs(cfg Config) []string {
	return []string{cfg.ContentEntrypoint}
}

// HostEnv returns our environment plus the service overrides.
func HostEnv(detached bool) map[string]string {
	return composeEnv(os.Environ(), detached)
}

func composeEnv(environ []string, detached bool) map[string]string {
	env := make(map[string]string, len(environ)+2)
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		// Windows keeps per-drive cwd entries like "=C:=C:\"; skip them.
		if !ok || k == "" {
			continue
		}
		env[k] = v
	}
	env[EnvRunAsNode] = "1"
	if detached {
		env[EnvNoAttachConsole] = "1"
	}
	return env
}

func launchOptions(opts Options) supervisor.LaunchOptions {
	detached := !opts.Attached
	return supervisor.LaunchOptions{Detached: detached, Env: HostEnv(detached)}
}

func resolveCommand(opts Options) (string, error) {
	if opts.Command != "" {
		return opts.Command, nil
	}
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve host executable: %w", err)
	}
	logger(opts).Warn().Str("command", exe).Msg("no service command configured; services run under the host executable, which must accept the service script as its first argument")
	return exe, nil
}

func logger(opts Options) *zerolog.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	l := zerolog.Nop()
	return &l
}
