package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// ErrAlreadyRunning is returned by Acquire when the pid file names a live process.
var ErrAlreadyRunning = errors.New("daemon already running")

// RuntimeState is written next to the pid file so `daemon status` can find
// the listen address of a daemon started with non-default flags.
type RuntimeState struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr"`
	StartedAt time.Time `json:"started_at"`
	Store     string    `json:"store"`
	Interval  string    `json:"interval"`
}

// PIDFile tracks one daemon instance on disk: a pid file plus a JSON state
// file at Path + ".json".
type PIDFile struct {
	Path string
}

// StatePath is the location of the RuntimeState sidecar.
func (p PIDFile) StatePath() string {
	return p.Path + ".json"
}

// Read returns the recorded pid. A missing file yields an error matching
// os.ErrNotExist.
func (p PIDFile) Read() (int, error) {
	//nolint:gosec // pid path comes from the local user's flags
	data, err := os.ReadFile(p.Path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("reading pid file %s: malformed pid", p.Path)
	}
	return pid, nil
}

// Running reports the recorded pid and whether that process is alive.
func (p PIDFile) Running() (int, bool) {
	pid, err := p.Read()
	if err != nil {
		return 0, false
	}
	return pid, ProcessAlive(pid)
}

// Acquire clears a stale pid file and records pid as the running daemon.
func (p PIDFile) Acquire(pid int) error {
	if err := p.Release(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p.Path), 0o750); err != nil {
		return fmt.Errorf("creating pid directory: %w", err)
	}
	if err := os.WriteFile(p.Path, []byte(strconv.Itoa(pid)+"\n"), 0o600); err != nil {
		return fmt.Errorf("writing pid file: %w", err)
	}
	return nil
}

// Release removes the pid and state files unless another live process owns
// them, in which case it returns ErrAlreadyRunning.
func (p PIDFile) Release() error {
	pid, err := p.Read()
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil
	case err == nil && pid != os.Getpid() && ProcessAlive(pid):
		return fmt.Errorf("%w (pid %d)", ErrAlreadyRunning, pid)
	}
	p.Remove()
	return nil
}

// Remove deletes both files, ignoring errors.
func (p PIDFile) Remove() {
	_ = os.Remove(p.Path)
	_ = os.Remove(p.StatePath())
}

// WriteState records st in the sidecar file.
func (p PIDFile) WriteState(st RuntimeState) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding daemon state: %w", err)
	}
	return os.WriteFile(p.StatePath(), append(data, '\n'), 0o600)
}

// ReadState loads the sidecar written by WriteState.
func (p PIDFile) ReadState() (RuntimeState, error) {
	var st RuntimeState
	//nolint:gosec // state path comes from the local user's flags
	data, err := os.ReadFile(p.StatePath())
	if err != nil {
		return st, err
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return st, fmt.Errorf("decoding daemon state: %w", err)
	}
	return st, nil
}

// ProcessAlive sends signal 0 to pid. EPERM means the process exists but
// belongs to another user.
func ProcessAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}

// Terminate sends SIGTERM to pid and waits up to timeout for it to exit.
func Terminate(pid int, timeout time.Duration) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("finding daemon process: %w", err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("signalling daemon process: %w", err)
	}
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if !ProcessAlive(pid) {
			return nil
		}
		time.Sleep(150 * time.Millisecond)
	}
	return fmt.Errorf("daemon (pid %d) still running after %s", pid, timeout)
}

// ChildArgs rewrites a `daemon --detach` invocation into the argument list
// of the background child.
func ChildArgs(args []string) []string {
	out := make([]string, 0, len(args)+1)
	for _, a := range args {
		if a == "--detach" || strings.HasPrefix(a, "--detach=") {
			continue
		}
		out = append(out, a)
	}
	return append(out, "--child")
}
