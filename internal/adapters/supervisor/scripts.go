package supervisor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/okian/compass/pkg/logger"
)

// ModeScripts identifies the stop/start script strategy.
const ModeScripts = "scripts"

const defaultStopTimeout = 10 * time.Second

// StopWaitDelay is how long a timed-out stop script may keep its output pipes
// open after being killed. A restart can block for the stop timeout plus this.
const StopWaitDelay = time.Second

// Scripts restarts an application by running a stop script to completion and
// then launching a start script detached.
type Scripts struct {
	dir     string
	stop    string
	start   string
	timeout time.Duration
	message string
}

// ScriptsOption configures Scripts.
type ScriptsOption func(*Scripts)

// WithStopTimeout bounds the stop script.
func WithStopTimeout(d time.Duration) ScriptsOption {
	return func(s *Scripts) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithScriptsMessage sets the success message returned by Restart.
func WithScriptsMessage(msg string) ScriptsOption {
	return func(s *Scripts) {
		if msg != "" {
			s.message = msg
		}
	}
}

// NewScripts creates a script-based restarter. Relative script paths resolve against dir.
func NewScripts(dir, stop, start string, opts ...ScriptsOption) *Scripts {
	s := &Scripts{
		dir:     dir,
		stop:    stop,
		start:   start,
		timeout: defaultStopTimeout,
		message: "Restart triggered. Dashboard stays running.",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mode implements Restarter.
func (s *Scripts) Mode() string { return ModeScripts }

func (s *Scripts) path(p string) (string, error) {
	if !filepath.IsAbs(p) {
		p = filepath.Join(s.dir, p)
	}
	return filepath.Abs(p)
}

// Restart implements Restarter. Both scripts must exist before anything runs.
func (s *Scripts) Restart(ctx context.Context) (string, error) {
	stop, err := s.resolve(s.stop)
	if err != nil {
		return "", err
	}
	start, err := s.resolve(s.start)
	if err != nil {
		return "", err
	}
	log := logger.Named("supervisor")

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	var stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, stop)
	cmd.Dir = s.dir
	cmd.Stderr = &stderr
	cmd.WaitDelay = StopWaitDelay
	if err := cmd.Run(); err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return "", fail(ErrTimeout, "stop timed out", err)
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		return "", fail(ErrFailed, err.Error(), err)
	}
	log.Info(ctx, "stop script finished", logger.String("script", s.stop))

	launch := exec.Command(start)
	launch.Dir = s.dir
	launch.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := launch.Start(); err != nil {
		return "", fail(ErrFailed, err.Error(), err)
	}
	go func() { _ = launch.Wait() }()
	log.Info(ctx, "start script launched", logger.String("script", s.start), logger.Int("pid", launch.Process.Pid))
	return s.message, nil
}

func (s *Scripts) resolve(script string) (string, error) {
	notFound := filepath.Base(script) + " not found. Run setup first."
	p, err := s.path(script)
	if err != nil {
		return "", fail(ErrNotFound, notFound, err)
	}
	info, err := os.Stat(p)
	if err != nil {
		return "", fail(ErrNotFound, notFound, err)
	}
	if info.IsDir() {
		return "", fail(ErrNotFound, notFound, fmt.Errorf("%s is a directory", p))
	}
	return p, nil
}
