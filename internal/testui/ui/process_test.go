//go:build unix

package ui

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/DylanSharp/gotui/internal/testui/channel"
	"github.com/DylanSharp/gotui/internal/testui/domain"
)

type fakeChannel struct {
	mu    sync.Mutex
	wakes int
}

func (c *fakeChannel) Endpoints() channel.Endpoints {
	return channel.Endpoints{
		DataFD:      channel.DataFD,
		SignalFD:    channel.SignalFD,
		SegmentPath: "/tmp/gotui-test/segment",
		Capacity:    4096,
	}
}

func (c *fakeChannel) ExtraFiles() []*os.File {
	return nil
}

func (c *fakeChannel) Wake() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.wakes++
	return nil
}

func shellManager(ch Channel, script string) *ProcessManager {
	return NewProcessManager(ch, ProcessManagerOptions{
		Executable: "/bin/sh",
		Args:       []string{"-c", script, "worker"},
	})
}

func TestProcessManager_WorkerArgs(t *testing.T) {
	p := NewProcessManager(&fakeChannel{}, ProcessManagerOptions{
		Executable:  "/usr/bin/gotui",
		GlobalFlags: []string{"--config", "ci.yaml"},
	})

	tests := []struct {
		name string
		req  WorkerRequest
		want []string
	}{
		{
			name: "collect",
			req:  WorkerRequest{Kind: WorkerCollect, Path: "./..."},
			want: []string{
				"worker", "collect", "--path", "./...",
				"--segment", "/tmp/gotui-test/segment", "--capacity", "4096",
				"--config", "ci.yaml",
			},
		},
		{
			name: "run failed with filter",
			req:  WorkerRequest{Kind: WorkerRun, Path: ".", FailedOnly: true, Filter: "add#Test"},
			want: []string{
				"worker", "run", "--path", ".",
				"--segment", "/tmp/gotui-test/segment", "--capacity", "4096",
				"--failed-only", "--filter", "add#Test",
				"--config", "ci.yaml",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.WorkerArgs(tt.req))
		})
	}
}

func TestProcessManager_ExitStatus(t *testing.T) {
	p := shellManager(&fakeChannel{}, "exit 3")

	exit, err := p.Start(WorkerRequest{Kind: WorkerCollect, Path: "."})
	require.NoError(t, err)

	select {
	case err := <-exit:
		var exitErr *exec.ExitError
		require.True(t, errors.As(err, &exitErr))
		assert.Equal(t, 3, exitErr.ExitCode())
	case <-time.After(10 * time.Second):
		t.Fatal("worker did not exit")
	}
	p.Wait()
	assert.False(t, p.IsAlive())
}

func TestProcessManager_OneWorkerAtATime(t *testing.T) {
	ch := &fakeChannel{}
	p := shellManager(ch, "exec sleep 30")

	exit, err := p.Start(WorkerRequest{Kind: WorkerRun, Path: "."})
	require.NoError(t, err)
	assert.True(t, p.IsAlive())

	_, err = p.Start(WorkerRequest{Kind: WorkerRun, Path: "."})
	assert.Equal(t, domain.ErrCodeWorkerRunning, domain.GetErrorCode(err))

	require.NoError(t, p.Kill())
	select {
	case err := <-exit:
		assert.Error(t, err, "killed worker reports its signal")
	case <-time.After(10 * time.Second):
		t.Fatal("worker was not killed")
	}
	p.Wait()
	assert.False(t, p.IsAlive())
	assert.Equal(t, 1, ch.wakes)

	_, err = p.Start(WorkerRequest{Kind: WorkerRun, Path: "."})
	require.NoError(t, err, "a new worker may start once the previous one is gone")
	require.NoError(t, p.Kill())
	p.Wait()
}

// processGone reports whether pid has exited. A killed child reparented to a
// subreaper may linger as a zombie until it is reaped.
func processGone(pid int) bool {
	if err := unix.Kill(pid, 0); err == unix.ESRCH {
		return true
	}
	stat, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return os.IsNotExist(err)
	}
	fields := strings.Fields(string(stat[strings.LastIndexByte(string(stat), ')')+1:]))
	return len(fields) > 0 && (fields[0] == "Z" || fields[0] == "X")
}

func TestProcessManager_KillStopsDescendants(t *testing.T) {
	tests := []struct {
		name   string
		script string
	}{
		{name: "background child", script: "sleep 30 & echo $! > %s; wait"},
		{name: "nested shell", script: "sh -c 'sleep 30 & echo $! > %s; wait' & wait"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pidFile := filepath.Join(t.TempDir(), "child.pid")
			ch := &fakeChannel{}
			p := shellManager(ch, fmt.Sprintf(tt.script, pidFile))

			_, err := p.Start(WorkerRequest{Kind: WorkerRun, Path: "."})
			require.NoError(t, err)

			var child int
			require.Eventually(t, func() bool {
				data, err := os.ReadFile(pidFile)
				if err != nil {
					return false
				}
				child, err = strconv.Atoi(strings.TrimSpace(string(data)))
				return err == nil
			}, 10*time.Second, 10*time.Millisecond)
			require.False(t, processGone(child))

			require.NoError(t, p.Kill())
			p.Wait()

			assert.Eventually(t, func() bool { return processGone(child) },
				10*time.Second, 10*time.Millisecond, "child %d survived the worker", child)
			assert.Equal(t, 1, ch.wakes)
		})
	}
}

func TestProcessManager_KillWithoutWorkerWakes(t *testing.T) {
	ch := &fakeChannel{}
	p := shellManager(ch, "true")

	require.NoError(t, p.Kill())
	assert.Equal(t, 1, ch.wakes)
	assert.False(t, p.IsAlive())
}

func TestProcessManager_SpawnFailure(t *testing.T) {
	p := NewProcessManager(&fakeChannel{}, ProcessManagerOptions{Executable: "/nonexistent/gotui"})

	_, err := p.Start(WorkerRequest{Kind: WorkerCollect, Path: "."})

	assert.Equal(t, domain.ErrCodeWorkerSpawn, domain.GetErrorCode(err))
	assert.False(t, p.IsAlive())
}
