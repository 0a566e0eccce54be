package ui

import (
	"os"
	"os/exec"
	"slices"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	"github.com/DylanSharp/gotui/internal/logging"
	"github.com/DylanSharp/gotui/internal/testui/channel"
	"github.com/DylanSharp/gotui/internal/testui/domain"
)

// WorkerKind selects the worker entry point
type WorkerKind string

const (
	WorkerCollect WorkerKind = "collect"
	WorkerRun     WorkerKind = "run"
)

// WorkerRequest describes one unit of work for a worker process
type WorkerRequest struct {
	Kind       WorkerKind
	Path       string
	FailedOnly bool
	Filter     string
}

// Launcher starts and stops worker processes
type Launcher interface {
	// Start spawns a worker. The returned channel yields the process's exit
	// error once and is then closed.
	Start(req WorkerRequest) (<-chan error, error)
	IsAlive() bool
	// Kill stops the current worker, if any, and wakes a writer blocked on
	// the channel
	Kill() error
}

// Channel is the part of channel.Host a ProcessManager hands to workers
type Channel interface {
	Endpoints() channel.Endpoints
	ExtraFiles() []*os.File
	Wake() error
}

// ProcessManagerOptions configures a ProcessManager
type ProcessManagerOptions struct {
	// Executable is the binary started for every worker
	Executable string
	// Args go before the worker subcommand
	Args []string
	// GlobalFlags go after the worker flags, e.g. --config
	GlobalFlags []string
}

// ProcessManager runs one worker process at a time
type ProcessManager struct {
	ch          Channel
	exe         string
	args        []string
	globalFlags []string

	mu   sync.Mutex
	cmd  *exec.Cmd
	done chan struct{}

	log zerolog.Logger
}

var _ Launcher = (*ProcessManager)(nil)

// NewProcessManager creates a manager handing ch to its workers
func NewProcessManager(ch Channel, opts ProcessManagerOptions) *ProcessManager {
	return &ProcessManager{
		ch:          ch,
		exe:         opts.Executable,
		args:        opts.Args,
		globalFlags: opts.GlobalFlags,
		log:         logging.Get("ui", "process"),
	}
}

// WorkerArgs renders the command line of a worker for req
func (p *ProcessManager) WorkerArgs(req WorkerRequest) []string {
	args := slices.Clone(p.args)
	args = append(args, "worker", string(req.Kind), "--path", req.Path)
	args = append(args, p.ch.Endpoints().Args()...)
	if req.FailedOnly {
		args = append(args, "--failed-only")
	}
	if req.Filter != "" {
		args = append(args, "--filter", req.Filter)
	}
	return append(args, p.globalFlags...)
}

// Start implements Launcher. It refuses while the previous worker is alive.
func (p *ProcessManager) Start(req WorkerRequest) (<-chan error, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.aliveLocked() {
		return nil, domain.ErrWorkerRunning()
	}

	args := p.WorkerArgs(req)
	cmd := exec.Command(p.exe, args...)
	cmd.ExtraFiles = p.ch.ExtraFiles()
	setProcessGroup(cmd)
	if err := cmd.Start(); err != nil {
		return nil, domain.ErrWorkerSpawn(err)
	}
	p.log.Info().Int("pid", cmd.Process.Pid).Strs("args", args).Msg("worker started")

	done := make(chan struct{})
	exit := make(chan error, 1)
	p.cmd, p.done = cmd, done

	go func() {
		err := cmd.Wait()
		p.log.Info().Int("pid", cmd.Process.Pid).Err(err).Msg("worker exited")
		close(done)
		exit <- err
		close(exit)
	}()
	return exit, nil
}

// IsAlive implements Launcher
func (p *ProcessManager) IsAlive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.aliveLocked()
}

func (p *ProcessManager) aliveLocked() bool {
	if p.done == nil {
		return false
	}
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// Kill implements Launcher. It kills the worker's whole process group, which
// includes go test and the test binaries. The ready signal is set even when no
// worker is running.
func (p *ProcessManager) Kill() error {
	p.mu.Lock()
	var err error
	if p.aliveLocked() {
		p.log.Info().Int("pid", p.cmd.Process.Pid).Msg("killing worker")
		if kerr := killProcessGroup(p.cmd.Process.Pid); kerr != nil && !errors.Is(kerr, os.ErrProcessDone) {
			err = errors.Wrap(kerr, "kill worker")
		}
	}
	p.mu.Unlock()

	if werr := p.ch.Wake(); werr != nil && err == nil {
		err = errors.Wrap(werr, "set ready signal")
	}
	return err
}

// Wait blocks until the current worker, if any, has exited
func (p *ProcessManager) Wait() {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done != nil {
		<-done
	}
}
