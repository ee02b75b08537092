package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/compass/pkg/errkind"
)

// Environment names.
const (
	EnvPrefix     = "COMPASS_"
	EnvConfigFile = "COMPASS_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if COMPASS_CONFIG is set
//  3. env (prefix COMPASS_)
func Load(_ context.Context) (*Config, error) {
	const op = "config.load"
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errkind.Wrap(op, ErrLoadConfig, err)
		}
	}

	// COMPASS_MONITOR_INTERVAL -> monitor_interval. Underscores are kept to
	// match the flat koanf tags; "." is the only nesting delimiter.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		if s == EnvConfigFile {
			return ""
		}
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, errkind.Wrap(op, ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, errkind.Wrap(op, ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values every binary relies on.
func (c *Config) Validate() error {
	const op = "config.validate"
	switch {
	case strings.TrimSpace(c.MetricsFile) == "":
		return errkind.Wrap(op, ErrInvalidConfig, fmt.Errorf("metrics_file must not be empty"))
	case c.PredictAddr == "":
		return errkind.Wrap(op, ErrInvalidConfig, fmt.Errorf("predict_addr must not be empty"))
	case c.DashboardAddr == "":
		return errkind.Wrap(op, ErrInvalidConfig, fmt.Errorf("dashboard_addr must not be empty"))
	case c.MonitorInterval <= 0:
		return errkind.Wrap(op, ErrInvalidConfig, fmt.Errorf("monitor_interval must be positive"))
	case c.UpdaterInterval <= 0:
		return errkind.Wrap(op, ErrInvalidConfig, fmt.Errorf("updater_interval must be positive"))
	case c.SamplesPerCheck <= 0:
		return errkind.Wrap(op, ErrInvalidConfig, fmt.Errorf("samples_per_check must be positive"))
	case c.AccuracyThreshold < 0 || c.AccuracyThreshold > 1:
		return errkind.Wrap(op, ErrInvalidConfig, fmt.Errorf("accuracy_threshold must be within [0,1]"))
	case c.StopTimeout <= 0:
		return errkind.Wrap(op, ErrInvalidConfig, fmt.Errorf("stop_timeout must be positive"))
	case strings.TrimSpace(c.MetricsNamespace) == "":
		return errkind.Wrap(op, ErrInvalidConfig, fmt.Errorf("metrics_namespace must not be empty"))
	case c.RestartMode != RestartModePID && c.RestartMode != RestartModeScripts:
		return errkind.Wrap(op, ErrInvalidConfig, fmt.Errorf("restart_mode must be %q or %q", RestartModePID, RestartModeScripts))
	}
	return nil
}
