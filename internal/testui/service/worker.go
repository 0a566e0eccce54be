package service

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/samber/lo"

	"github.com/DylanSharp/gotui/internal/logging"
	"github.com/DylanSharp/gotui/internal/testui/domain"
	"github.com/DylanSharp/gotui/internal/testui/ports"
)

// WorkerOptions are the arguments of a worker process
type WorkerOptions struct {
	Path       string
	FailedOnly bool
	Filter     string
}

// RunCollection is the body of a collect worker: it lists the tests under
// opts.Path and reports each one. It returns the framework exit code.
func RunCollection(ctx context.Context, opts WorkerOptions, driver ports.TestDriver, w EventWriter) int {
	log := logging.Get("runner")
	log.Info().Str("path", opts.Path).Msg("init started")

	restore := captureStdio()
	defer restore()

	plugin, err := NewDrivingPlugin(w, driver, "")
	if err != nil {
		return finish(ctx, w, domain.ExitCrashed, err.Error(), true)
	}

	code, description := driver.InitTests(ctx, opts.Path, plugin)
	if code.IsCollectError() {
		log.Warn().Int("exitcode", int(code)).Msg("go test failed")
		return finish(ctx, w, code, description, true)
	}

	log.Info().Msg("init finished")
	return finish(ctx, w, code, "", false)
}

// RunTests is the body of a run worker. It returns the framework exit code.
func RunTests(ctx context.Context, opts WorkerOptions, driver ports.TestDriver, w EventWriter) int {
	log := logging.Get("runner")
	log.Info().
		Str("path", opts.Path).
		Bool("failed_only", opts.FailedOnly).
		Str("filter", opts.Filter).
		Msg("test run started")

	restore := captureStdio()
	defer restore()

	plugin, err := NewDrivingPlugin(w, driver, opts.Filter)
	if err != nil {
		return finish(ctx, w, domain.ExitUsageError, err.Error(), true)
	}

	code, description := driver.RunTests(ctx, opts.Path, ports.RunOptions{FailedOnly: opts.FailedOnly}, plugin)
	if code.IsRunError() {
		log.Warn().Int("exitcode", int(code)).Msg("go test failed")
		return finish(ctx, w, code, description, true)
	}

	log.Info().Int("exitcode", int(code)).Msg("test run finished")
	return finish(ctx, w, code, "", false)
}

// ReportFailure is used when a worker cannot reach its entry point, e.g. on
// a bad config. The UI still receives the error and the completion marker.
func ReportFailure(ctx context.Context, w EventWriter, code domain.ExitCode, err error) int {
	return finish(ctx, w, code, err.Error(), true)
}

// finish reports a framework failure when failed is set and always ends with
// the completion marker
func finish(ctx context.Context, w EventWriter, code domain.ExitCode, description string, failed bool) int {
	log := logging.Get("runner")

	if failed {
		err := w.Send(ctx, domain.MethodSetPytestError, domain.SetPytestErrorParams{
			Exitcode:    code,
			Description: lo.EmptyableToPtr(description),
		})
		if err != nil {
			log.Error().Err(err).Msg("could not report go test failure")
		}
	}

	if err := w.Send(ctx, domain.MethodInitFinished, nil); err != nil {
		log.Error().Err(err).Msg("could not send completion")
		return int(domain.ExitCrashed)
	}
	return int(code)
}

// captureStdio sends everything written to os.Stdout and os.Stderr to the
// runner.stdout and runner.stderr loggers until the returned func is called
func captureStdio() (restore func()) {
	var (
		wg       sync.WaitGroup
		restores []func()
	)

	redirect := func(target **os.File, component string) {
		r, w, err := os.Pipe()
		if err != nil {
			log := logging.Get("runner")
			log.Warn().Err(err).Str("stream", component).Msg("could not capture output")
			return
		}
		orig := *target
		*target = w

		lw := logging.NewLogWriter(logging.Get("runner", component))
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = io.Copy(lw, r)
			lw.Flush()
			_ = r.Close()
		}()

		restores = append(restores, func() {
			*target = orig
			_ = w.Close()
		})
	}

	redirect(&os.Stdout, "stdout")
	redirect(&os.Stderr, "stderr")

	return func() {
		for _, fn := range restores {
			fn()
		}
		wg.Wait()
	}
}
