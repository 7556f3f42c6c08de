package daemon

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPIDFileAcquireAndRelease(t *testing.T) {
	p := PIDFile{Path: filepath.Join(t.TempDir(), "run", "roomtallyd.pid")}

	_, err := p.Read()
	assert.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, p.Acquire(os.Getpid()))
	pid, alive := p.Running()
	assert.Equal(t, os.Getpid(), pid)
	assert.True(t, alive)

	st := RuntimeState{PID: pid, Addr: "127.0.0.1:9999", StartedAt: fixedNow, Store: "redis", Interval: "5s"}
	require.NoError(t, p.WriteState(st))
	got, err := p.ReadState()
	require.NoError(t, err)
	assert.Equal(t, st, got)

	require.NoError(t, p.Release())
	assert.NoFileExists(t, p.Path)
	assert.NoFileExists(t, p.StatePath())
}

func TestPIDFileRefusesLiveOwner(t *testing.T) {
	p := PIDFile{Path: filepath.Join(t.TempDir(), "roomtallyd.pid")}
	// The parent process outlives the test.
	require.NoError(t, os.WriteFile(p.Path, []byte(strconv.Itoa(os.Getppid())+"\n"), 0o600))

	err := p.Acquire(os.Getpid())
	assert.ErrorIs(t, err, ErrAlreadyRunning)
	assert.FileExists(t, p.Path)
}

func TestPIDFileClearsStaleAndMalformed(t *testing.T) {
	dir := t.TempDir()

	stale := PIDFile{Path: filepath.Join(dir, "stale.pid")}
	// Max pid on Linux is below 2^22, so this process cannot exist.
	require.NoError(t, os.WriteFile(stale.Path, []byte("99999999\n"), 0o600))
	require.NoError(t, os.WriteFile(stale.StatePath(), []byte("{}"), 0o600))
	_, alive := stale.Running()
	assert.False(t, alive)
	require.NoError(t, stale.Acquire(os.Getpid()))
	assert.NoFileExists(t, stale.StatePath())

	bad := PIDFile{Path: filepath.Join(dir, "bad.pid")}
	require.NoError(t, os.WriteFile(bad.Path, []byte("not-a-pid"), 0o600))
	_, err := bad.Read()
	assert.ErrorContains(t, err, "malformed pid")
	require.NoError(t, bad.Acquire(os.Getpid()))
	pid, err := bad.Read()
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)
}

func TestChildArgsDropsDetach(t *testing.T) {
	got := ChildArgs([]string{"daemon", "--detach", "--addr", ":8080", "--detach=true"})
	assert.Equal(t, []string{"daemon", "--addr", ":8080", "--child"}, got)
}

func TestTerminateUnknownProcess(t *testing.T) {
	assert.Error(t, Terminate(99999999, 10*time.Millisecond))
}
