package adapters

import (
	"bufio"
	"context"
	"io"
	"os/exec"
	"strings"

	"github.com/cockroachdb/errors"
)

const maxLineSize = 16 * 1024 * 1024

// CommandRunner abstracts command execution for testability
type CommandRunner interface {
	// Stream runs name with args in dir and calls onLine for every line the
	// command writes to stdout. An error from onLine stops the command.
	Stream(ctx context.Context, dir, name string, args []string, onLine func(line []byte) error) (stderr string, exitCode int, err error)
}

// ExecRunner implements CommandRunner by starting a process
type ExecRunner struct{}

// Stream implements CommandRunner. err is only set when the command could not
// run to completion; a non-zero exit is reported through exitCode.
func (ExecRunner) Stream(ctx context.Context, dir, name string, args []string, onLine func(line []byte) error) (string, int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	setDeathSignal(cmd)

	var stderrBuf strings.Builder
	cmd.Stderr = &stderrBuf

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", -1, errors.Wrap(err, "stdout pipe")
	}
	if err := cmd.Start(); err != nil {
		return "", -1, err
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	var lineErr error
	for scanner.Scan() {
		if err := onLine(scanner.Bytes()); err != nil {
			lineErr = err
			_ = cmd.Process.Kill()
			break
		}
	}
	scanErr := scanner.Err()
	if scanErr != nil {
		_ = cmd.Process.Kill()
	}
	if lineErr != nil || scanErr != nil {
		// Drain so Wait does not block on a full pipe
		_, _ = io.Copy(io.Discard, stdout)
	}

	waitErr := cmd.Wait()
	switch {
	case lineErr != nil:
		return stderrBuf.String(), -1, lineErr
	case scanErr != nil:
		return stderrBuf.String(), -1, errors.Wrap(scanErr, "read output")
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			if ctx.Err() != nil {
				return stderrBuf.String(), -1, ctx.Err()
			}
			return stderrBuf.String(), exitErr.ExitCode(), nil
		}
		return stderrBuf.String(), -1, waitErr
	}
	return stderrBuf.String(), 0, nil
}
