package supervisor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/okian/compass/pkg/logger"
)

// ModePID identifies the pid-file strategy.
const ModePID = "pid"

// Handle supervises one detached program tracked through a pid file. A recorded
// pid is only signalled after /proc confirms it still runs the program.
type Handle struct {
	program  string
	args     []string
	dir      string
	env      []string
	pidFile  string
	logFile  string
	procRoot string
	message  string

	mu sync.Mutex
}

// HandleOption configures a Handle.
type HandleOption func(*Handle)

// WithArgs sets the program arguments.
func WithArgs(args ...string) HandleOption {
	return func(h *Handle) { h.args = args }
}

// WithDir sets the working directory; relative pid and log paths resolve against it.
func WithDir(dir string) HandleOption {
	return func(h *Handle) {
		if dir != "" {
			h.dir = dir
		}
	}
}

// WithEnv appends KEY=VALUE pairs to the inherited environment.
func WithEnv(env ...string) HandleOption {
	return func(h *Handle) { h.env = append(h.env, env...) }
}

// WithPIDFile sets the pid file path.
func WithPIDFile(path string) HandleOption {
	return func(h *Handle) {
		if path != "" {
			h.pidFile = path
		}
	}
}

// WithLogFile sets the file receiving the program's stdout and stderr.
func WithLogFile(path string) HandleOption {
	return func(h *Handle) {
		if path != "" {
			h.logFile = path
		}
	}
}

// WithMessage sets the success message returned by Restart.
func WithMessage(msg string) HandleOption {
	return func(h *Handle) {
		if msg != "" {
			h.message = msg
		}
	}
}

// withProcRoot points identity checks at another procfs mount; tests only.
func withProcRoot(root string) HandleOption {
	return func(h *Handle) { h.procRoot = root }
}

// NewHandle creates a handle for program.
func NewHandle(program string, opts ...HandleOption) *Handle {
	h := &Handle{
		program:  program,
		dir:      ".",
		pidFile:  "updater.pid",
		logFile:  "updater.log",
		procRoot: "/proc",
	}
	h.message = fmt.Sprintf("Application (%s) restarted.", h.name())
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Mode implements Restarter.
func (h *Handle) Mode() string { return ModePID }

func (h *Handle) name() string { return filepath.Base(h.program) }

func (h *Handle) path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(h.dir, p)
}

// PID returns the recorded pid, or 0 when no pid file exists.
func (h *Handle) PID() (int, error) {
	raw, err := os.ReadFile(h.path(h.pidFile))
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid pid file %s: %q", h.pidFile, bytes.TrimSpace(raw))
	}
	return pid, nil
}

// IsAlive reports whether a process with pid exists.
func IsAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

// Owns reports whether pid is alive and running this handle's program.
func (h *Handle) Owns(pid int) bool {
	if !IsAlive(pid) {
		return false
	}
	raw, err := os.ReadFile(filepath.Join(h.procRoot, strconv.Itoa(pid), "cmdline"))
	if err != nil {
		return false
	}
	want := h.name()
	for _, arg := range bytes.Split(raw, []byte{0}) {
		if filepath.Base(string(arg)) == want {
			return true
		}
	}
	return false
}

// Stop terminates the recorded process when it is verifiably ours and removes
// the pid file. A dead or foreign pid is left alone.
func (h *Handle) Stop(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stop(ctx)
}

func (h *Handle) stop(ctx context.Context) error {
	log := logger.Named("supervisor")
	pid, err := h.PID()
	if err != nil {
		log.Warn(ctx, "ignoring unreadable pid file", logger.String("path", h.pidFile), logger.Error(err))
	}
	if pid > 0 {
		switch {
		case h.Owns(pid):
			if err := unix.Kill(pid, unix.SIGTERM); err != nil && !errors.Is(err, unix.ESRCH) {
				log.Warn(ctx, "failed to signal process", logger.Int("pid", pid), logger.Error(err))
			} else {
				log.Info(ctx, "sent SIGTERM", logger.Int("pid", pid), logger.String("program", h.name()))
			}
		case IsAlive(pid):
			log.Warn(ctx, "pid file refers to another program; not signalling",
				logger.Int("pid", pid), logger.String("program", h.name()))
		default:
			log.Debug(ctx, "recorded process already exited", logger.Int("pid", pid))
		}
	}
	if err := os.Remove(h.path(h.pidFile)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fail(ErrFailed, err.Error(), err)
	}
	return nil
}

// Start spawns the program in its own session, appends its output to the log
// file, and records the pid.
func (h *Handle) Start(ctx context.Context) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.start(ctx)
}

func (h *Handle) start(ctx context.Context) (int, error) {
	bin, err := h.lookup()
	if err != nil {
		return 0, fail(ErrNotFound, h.name()+" not found", err)
	}

	logf, err := os.OpenFile(h.path(h.logFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return 0, fail(ErrFailed, err.Error(), err)
	}
	defer func() { _ = logf.Close() }()

	// Not tied to ctx: the child must outlive the request that started it.
	cmd := exec.Command(bin, h.args...)
	cmd.Dir = h.dir
	cmd.Env = append(os.Environ(), h.env...)
	cmd.Stdout = logf
	cmd.Stderr = logf
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return 0, fail(ErrFailed, err.Error(), err)
	}
	pid := cmd.Process.Pid
	// Reap the child so an exited process does not linger as a zombie that still answers kill(0).
	go func() { _ = cmd.Wait() }()

	if err := os.WriteFile(h.path(h.pidFile), []byte(strconv.Itoa(pid)), 0o644); err != nil {
		return pid, fail(ErrFailed, err.Error(), err)
	}
	logger.Named("supervisor").Info(ctx, "started program",
		logger.String("program", h.name()), logger.Int("pid", pid))
	return pid, nil
}

func (h *Handle) lookup() (string, error) {
	if strings.ContainsRune(h.program, filepath.Separator) {
		p, err := filepath.Abs(h.path(h.program))
		if err != nil {
			return "", err
		}
		info, err := os.Stat(p)
		if err != nil {
			return "", err
		}
		if info.IsDir() || info.Mode()&0o111 == 0 {
			return "", fmt.Errorf("%s is not executable", p)
		}
		return p, nil
	}
	return exec.LookPath(h.program)
}

// Restart implements Restarter: Stop, then Start.
func (h *Handle) Restart(ctx context.Context) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.stop(ctx); err != nil {
		return "", err
	}
	if _, err := h.start(ctx); err != nil {
		return "", err
	}
	return h.message, nil
}
