// Package config defines process configuration shared by every compass binary.
//
// Conventions:
//   - Defaults come from New(); Load layers an optional YAML file and env vars on top.
//   - Validation failures wrap ErrInvalidConfig; file/env failures wrap ErrLoadConfig.
package config

import (
	"time"
)

// Restart modes for the dashboard's restart action.
const (
	RestartModePID     = "pid"
	RestartModeScripts = "scripts"
)

// Config contains process configuration. Each binary reads the fields it needs.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects "text" or "json" log lines.
	LogFormat string `koanf:"log_format"`

	// MetricsNamespace prefixes every Prometheus metric name.
	MetricsNamespace string `koanf:"metrics_namespace"`
	// MonitorMetricsAddr and UpdaterMetricsAddr serve /metrics for the two
	// producers, which have no other listener. Empty disables the listener.
	MonitorMetricsAddr string `koanf:"monitor_metrics_addr"`
	UpdaterMetricsAddr string `koanf:"updater_metrics_addr"`

	// MetricsFile is the shared metrics snapshot written by producers and read by the dashboard.
	MetricsFile string `koanf:"metrics_file"`

	// PredictAddr is the prediction service listen address.
	PredictAddr string `koanf:"predict_addr"`
	// ModelPath points at the classifier JSON document.
	ModelPath string `koanf:"model_path"`

	// APIURL is the /predict endpoint the monitor calls.
	APIURL string `koanf:"api_url"`
	// MonitorInterval is the pause between monitor cycles.
	MonitorInterval time.Duration `koanf:"monitor_interval"`
	// DriftIterations is the number of clean cycles before drift is injected.
	DriftIterations int `koanf:"drift_iterations"`
	// AccuracyThreshold is the simulated accuracy below which degradation is logged.
	AccuracyThreshold float64 `koanf:"accuracy_threshold"`
	// SamplesPerCheck is the batch size the monitor sends each cycle.
	SamplesPerCheck int `koanf:"samples_per_check"`
	// RequestTimeout bounds each monitor request; zero disables the timeout.
	RequestTimeout time.Duration `koanf:"request_timeout"`

	// UpdaterInterval is the pause between updater cycles.
	UpdaterInterval time.Duration `koanf:"updater_interval"`

	// DashboardAddr is the dashboard listen address.
	DashboardAddr string `koanf:"dashboard_addr"`
	// RestartMode is "pid" (respawn the updater) or "scripts" (stop/start shell scripts).
	RestartMode string `koanf:"restart_mode"`
	// ScriptDir is the working directory for spawned processes and relative script paths.
	ScriptDir string `koanf:"script_dir"`
	// StopScript and StartScript are used in scripts mode.
	StopScript  string `koanf:"stop_script"`
	StartScript string `koanf:"start_script"`
	// StopTimeout bounds the stop script.
	StopTimeout time.Duration `koanf:"stop_timeout"`
	// UpdaterProgram is the executable respawned in pid mode.
	UpdaterProgram string `koanf:"updater_program"`
	// PIDFile records the running updater's process id.
	PIDFile string `koanf:"pid_file"`
	// UpdaterLog receives the respawned updater's output.
	UpdaterLog string `koanf:"updater_log"`

	// QuestionsFile is the maturity assessment question set.
	QuestionsFile string `koanf:"questions_file"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		MetricsNamespace:   "compass",
		MonitorMetricsAddr: ":9101",
		UpdaterMetricsAddr: ":9102",
		MetricsFile:        "metrics.json",
		PredictAddr:        ":5000",
		ModelPath:          "model.json",
		APIURL:             "http://localhost:5000/predict",
		MonitorInterval:    5 * time.Second,
		DriftIterations:    3,
		AccuracyThreshold:  0.90,
		SamplesPerCheck:    50,
		RequestTimeout:     10 * time.Second,
		UpdaterInterval:    time.Second,
		DashboardAddr:      ":5001",
		RestartMode:        RestartModePID,
		ScriptDir:          ".",
		StopScript:         "stop_app.sh",
		StartScript:        "start_app.sh",
		StopTimeout:        10 * time.Second,
		UpdaterProgram:     "compass-updater",
		PIDFile:            "updater.pid",
		UpdaterLog:         "updater.log",
		QuestionsFile:      "data/questions.json",
	}
}
