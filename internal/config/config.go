package config

import (
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/copyleftdev/ZEPHYR/internal/errors"
)

type Config struct {
	Environment string `env:"ENV" envDefault:"development"`
	HTTP        struct {
		Port            int           `env:"HTTP_PORT" envDefault:"8080"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
		IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	}
	Logging struct {
		Level  string `env:"LOG_LEVEL" envDefault:"info"`
		Format string `env:"LOG_FORMAT" envDefault:"json"`
		Output string `env:"LOG_OUTPUT" envDefault:"stderr"`
	}
	// Swarm holds the default engine parameters; requests may override any
	// of them per run.
	Swarm struct {
		PopulationSize   int     `env:"SWARM_POPULATION" envDefault:"20"`
		Inertia          float64 `env:"SWARM_INERTIA" envDefault:"0.4"`
		Cognitive        float64 `env:"SWARM_COGNITIVE" envDefault:"2.02"`
		Social           float64 `env:"SWARM_SOCIAL" envDefault:"2.02"`
		MaxIterations    int     `env:"SWARM_MAX_ITERATIONS" envDefault:"50"`
		PlateauWindow    int     `env:"SWARM_PLATEAU_WINDOW" envDefault:"5"`
		PlateauTolerance float64 `env:"SWARM_PLATEAU_TOLERANCE" envDefault:"1e-4"`
	}
}

func Load() (*Config, error) {
	cfg := &Config{}

	// Parse environment variables
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, "parsing environment configuration")
	}

	// Set default logging level based on environment
	if cfg.Environment == "development" && cfg.Logging.Level == "" {
		cfg.Logging.Level = "debug"
	}

	return cfg, nil
}
