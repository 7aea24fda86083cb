// Package proc owns the bot process lifecycle through a PID file. The PID
// file plus a liveness probe replaces matching processes by name, which
// breaks as soon as two similar processes run.
package proc

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// ErrAlreadyRunning is returned by StartDetached when a live instance owns
// the PID file.
var ErrAlreadyRunning = errors.New("already running")

// ErrNotRunning is returned by Stop when there is nothing to stop.
var ErrNotRunning = errors.New("not running")

// WritePIDFile records the current process. The bot calls it on startup.
func WritePIDFile(path string) error {
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0644)
}

// RemovePIDFile is called on clean shutdown.
func RemovePIDFile(path string) {
	os.Remove(path)
}

// ReadPIDFile returns the recorded PID, or an error if the file is missing
// or garbled.
func ReadPIDFile(path string) (int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("pid file %s is corrupt: %q", path, b)
	}
	return pid, nil
}

// Alive checks process existence with signal 0.
func Alive(pid int) bool {
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return p.Signal(syscall.Signal(0)) == nil
}

// Running resolves the PID file to a live process. A stale file (recorded
// process is dead) counts as not running.
func Running(pidFile string) (int, bool) {
	pid, err := ReadPIDFile(pidFile)
	if err != nil {
		return 0, false
	}
	if !Alive(pid) {
		return pid, false
	}
	return pid, true
}

// StartDetached launches bin in its own session with stdout/stderr appended
// to logFile. Callers follow up with WaitStarted to confirm the child wrote
// its PID file and survived boot.
func StartDetached(pidFile, logFile, bin string, args ...string) (int, error) {
	if _, ok := Running(pidFile); ok {
		return 0, ErrAlreadyRunning
	}
	// Drop a stale file so the child starts clean.
	os.Remove(pidFile)

	logf, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return 0, fmt.Errorf("cannot open log file: %w", err)
	}
	defer logf.Close()

	cmd := exec.Command(bin, args...)
	cmd.Stdout = logf
	cmd.Stderr = logf
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("cannot start %s: %w", bin, err)
	}
	pid := cmd.Process.Pid
	cmd.Process.Release()
	return pid, nil
}

// WaitStarted polls until the process recorded in the PID file is alive, or
// the deadline passes. It confirms a detached start actually survived boot.
func WaitStarted(pidFile string, timeout time.Duration) (int, error) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if pid, ok := Running(pidFile); ok {
			return pid, nil
		}
		time.Sleep(200 * time.Millisecond)
	}
	return 0, fmt.Errorf("process did not come up within %s", timeout)
}

// Stop sends SIGTERM to the recorded process and waits for it to exit.
func Stop(pidFile string, timeout time.Duration) error {
	pid, ok := Running(pidFile)
	if !ok {
		return ErrNotRunning
	}

	p, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	if err := p.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("cannot signal pid %d: %w", pid, err)
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if !Alive(pid) {
			return nil
		}
		time.Sleep(200 * time.Millisecond)
	}
	return fmt.Errorf("pid %d still alive after %s", pid, timeout)
}
