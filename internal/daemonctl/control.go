package daemonctl

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"

	"idconsole/internal/config"
	"idconsole/internal/fileutil"
)

const (
	pidFileName  = "idconsoled.pid"
	lockFileName = "idconsoled.lock"

	pollInterval = 200 * time.Millisecond
)

var (
	// ErrDaemonNotRunning indicates no live idconsoled was found.
	ErrDaemonNotRunning = errors.New("daemon not running")
	// ErrAlreadyRunning indicates another idconsoled holds the lock.
	ErrAlreadyRunning = errors.New("daemon already running")
)

// PIDPath returns the PID file location for cfg.
func PIDPath(cfg *config.Config) string {
	return filepath.Join(cfg.Logging.Dir, pidFileName)
}

// LockPath returns the single-instance lock location for cfg.
func LockPath(cfg *config.Config) string {
	return filepath.Join(cfg.Logging.Dir, lockFileName)
}

// Instance is the running daemon's claim on its lock and PID file.
type Instance struct {
	lock    *flock.Flock
	pidPath string
}

// Acquire takes the single-instance lock and writes the PID file. It fails
// with ErrAlreadyRunning when another process holds the lock.
func Acquire(cfg *config.Config) (*Instance, error) {
	if strings.TrimSpace(cfg.Logging.Dir) == "" {
		return nil, errors.New("logging.dir is required to run the daemon")
	}
	lock := flock.New(LockPath(cfg))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", lockFileName, err)
	}
	if !locked {
		return nil, ErrAlreadyRunning
	}
	pidPath := PIDPath(cfg)
	if err := fileutil.WriteFileAtomic(pidPath, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644); err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("write pid file: %w", err)
	}
	return &Instance{lock: lock, pidPath: pidPath}, nil
}

// Release removes the PID file and drops the lock.
func (i *Instance) Release() error {
	if i == nil {
		return nil
	}
	if err := os.Remove(i.pidPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		_ = i.lock.Unlock()
		return fmt.Errorf("remove pid file: %w", err)
	}
	return i.lock.Unlock()
}

// Status describes what Probe found.
type Status struct {
	Running bool   `json:"running"`
	PID     int    `json:"pid,omitempty"`
	Bind    string `json:"bind"`
	Healthy bool   `json:"healthy"`
	Detail  string `json:"detail,omitempty"`
}

// Probe reports whether the PID file names a live process and whether the
// web console answers /healthz.
func Probe(ctx context.Context, cfg *config.Config) Status {
	status := Status{Bind: cfg.Web.Bind}
	pid, err := readPID(PIDPath(cfg))
	switch {
	case err != nil && errors.Is(err, os.ErrNotExist):
		status.Detail = "no pid file"
	case err != nil:
		status.Detail = err.Error()
	case !processAlive(pid):
		status.PID = pid
		status.Detail = fmt.Sprintf("stale pid file (process %d not running)", pid)
	default:
		status.Running = true
		status.PID = pid
	}
	if err := checkHealth(ctx, cfg.Web.Bind); err != nil {
		if status.Running {
			status.Detail = err.Error()
		}
	} else {
		status.Healthy = true
	}
	return status
}

// StopResult captures the stop outcome.
type StopResult struct {
	PID        int  `json:"pid"`
	ForcedKill bool `json:"forced_kill"`
}

// Stop sends SIGTERM to the daemon and waits up to grace for it to exit,
// then sends SIGKILL and removes the PID file.
func Stop(ctx context.Context, cfg *config.Config, grace time.Duration) (StopResult, error) {
	pidPath := PIDPath(cfg)
	pid, err := readPID(pidPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return StopResult{}, ErrDaemonNotRunning
		}
		return StopResult{}, err
	}
	if pid == os.Getpid() {
		return StopResult{}, fmt.Errorf("refusing to signal current process (pid %d)", pid)
	}
	result := StopResult{PID: pid}
	if !processAlive(pid) {
		_ = os.Remove(pidPath)
		return result, ErrDaemonNotRunning
	}
	if err := unix.Kill(pid, unix.SIGTERM); err != nil {
		return result, fmt.Errorf("signal daemon process %d: %w", pid, err)
	}
	if waitExit(ctx, pid, grace) {
		return result, nil
	}
	if err := unix.Kill(pid, unix.SIGKILL); err != nil && !errors.Is(err, unix.ESRCH) {
		return result, fmt.Errorf("kill daemon process %d: %w", pid, err)
	}
	if err := os.Remove(pidPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return result, fmt.Errorf("remove pid file %q: %w", pidPath, err)
	}
	result.ForcedKill = true
	return result, nil
}

// LaunchOptions controls how Start runs the daemon binary.
type LaunchOptions struct {
	Executable string
	ConfigPath string
}

// Start launches a detached idconsoled unless one is already healthy, then
// waits up to timeout for /healthz to answer. It reports whether a new
// process was launched.
func Start(ctx context.Context, cfg *config.Config, opts LaunchOptions, timeout time.Duration) (bool, error) {
	if status := Probe(ctx, cfg); status.Running && status.Healthy {
		return false, nil
	}
	executable := strings.TrimSpace(opts.Executable)
	if executable == "" {
		resolved, err := exec.LookPath("idconsoled")
		if err != nil {
			return false, fmt.Errorf("resolve idconsoled: %w", err)
		}
		executable = resolved
	}
	var args []string
	if cfgPath := strings.TrimSpace(opts.ConfigPath); cfgPath != "" {
		args = append(args, "--config", cfgPath)
	}
	proc := exec.Command(executable, args...)
	proc.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := proc.Start(); err != nil {
		return false, fmt.Errorf("launch daemon: %w", err)
	}
	_ = proc.Process.Release()

	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		if lastErr = checkHealth(ctx, cfg.Web.Bind); lastErr == nil {
			return true, nil
		}
		select {
		case <-ctx.Done():
			return true, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
	if lastErr == nil {
		lastErr = errors.New("timeout waiting for daemon")
	}
	return true, fmt.Errorf("daemon failed to start: %w", lastErr)
}

func readPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid pid file %q", path)
	}
	return pid, nil
}

func processAlive(pid int) bool {
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

func waitExit(ctx context.Context, pid int, grace time.Duration) bool {
	deadline := time.Now().Add(grace)
	for time.Now().Before(deadline) {
		if !processAlive(pid) {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(pollInterval):
		}
	}
	return !processAlive(pid)
}

func checkHealth(ctx context.Context, bind string) error {
	host, port, err := net.SplitHostPort(bind)
	if err != nil {
		return fmt.Errorf("parse bind %q: %w", bind, err)
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	reqCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, "http://"+net.JoinHostPort(host, port)+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned %d", resp.StatusCode)
	}
	return nil
}
