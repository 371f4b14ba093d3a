package supervisor

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Config encapsulates all tunables for Supervisor construction. Zero values
// are replaced by package defaults in New.
type Config struct {
	Logger    *zerolog.Logger
	Spawner   Spawner
	Publisher EventPublisher
	// Stdout and Stderr receive the output of attached children.
	Stdout io.Writer
	Stderr io.Writer
	// DrainTimeout bounds how long Close waits for terminated children to be
	// reported as exited. Zero means Close does not wait.
	DrainTimeout time.Duration
}

func (cfg Config) withDefaults() Config {
	if cfg.Logger == nil {
		l := zerolog.Nop()
		cfg.Logger = &l
	}
	if cfg.Spawner == nil {
		cfg.Spawner = ExecSpawner{}
	}
	if cfg.Publisher == nil {
		cfg.Publisher = noopPublisher{}
	}
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	if cfg.Stderr == nil {
		cfg.Stderr = os.Stderr
	}
	if cfg.DrainTimeout < 0 {
		cfg.DrainTimeout = 0
	}
	return cfg
}
