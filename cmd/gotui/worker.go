package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/DylanSharp/gotui/internal/config"
	"github.com/DylanSharp/gotui/internal/logging"
	"github.com/DylanSharp/gotui/internal/testui/adapters"
	"github.com/DylanSharp/gotui/internal/testui/channel"
	"github.com/DylanSharp/gotui/internal/testui/domain"
	"github.com/DylanSharp/gotui/internal/testui/service"
	"github.com/DylanSharp/gotui/internal/testui/ui"
)

var workerFlags struct {
	path       string
	segment    string
	capacity   int
	failedOnly bool
	filter     string
}

var workerCmd = &cobra.Command{
	Use:    "worker",
	Short:  "Worker process entry points, started by the UI",
	Hidden: true,
}

var workerCollectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect the tests under --path",
	Args:  cobra.NoArgs,
	RunE:  runWorker(ui.WorkerCollect),
}

var workerRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the tests under --path",
	Args:  cobra.NoArgs,
	RunE:  runWorker(ui.WorkerRun),
}

func init() {
	workerCmd.AddCommand(workerCollectCmd)
	workerCmd.AddCommand(workerRunCmd)

	flags := workerCmd.PersistentFlags()
	flags.StringVar(&workerFlags.path, "path", "./...", "Package pattern to test")
	flags.StringVar(&workerFlags.segment, "segment", "", "Path of the shared channel segment")
	flags.IntVar(&workerFlags.capacity, "capacity", channel.DefaultCapacity, "Channel capacity in bytes")
	_ = workerCmd.MarkPersistentFlagRequired("segment")

	workerRunCmd.Flags().BoolVar(&workerFlags.failedOnly, "failed-only", false, "Only run the tests that failed last time")
	workerRunCmd.Flags().StringVar(&workerFlags.filter, "filter", "", "Only run tests matching this filter")
}

// runWorker attaches to the UI's channel and runs one unit of work. The
// process exits with the go test exit code.
func runWorker(kind ui.WorkerKind) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Logging comes first so everything opened below logs to the runner
		// log. A config failure is reported to the UI once the channel is up.
		cfg, setupErr := config.Load(configFile)
		if setupErr == nil {
			setupErr = logging.Configure(logging.Options{
				File:       cfg.LogFile("gotui-runner.log"),
				Level:      cfg.Logs.Level,
				Components: cfg.Logs.Components,
			})
		}

		w, err := channel.OpenWriter(channel.Endpoints{
			DataFD:      channel.DataFD,
			SignalFD:    channel.SignalFD,
			SegmentPath: workerFlags.segment,
			Capacity:    workerFlags.capacity,
		})
		if err != nil {
			_ = logging.Close()
			return err
		}

		if setupErr != nil {
			code := service.ReportFailure(ctx, w, domain.ExitUsageError, setupErr)
			closeWorker(w)
			os.Exit(code)
		}

		log := logging.Get("runner")

		driver, err := adapters.NewGoTestDriver(adapters.GoTestDriverOptions{
			Binary:   cfg.Go.Binary,
			Flags:    cfg.Go.Flags,
			Timeout:  cfg.Go.Timeout,
			XFail:    cfg.XFail,
			CacheDir: cfg.CacheDir,
		})
		if err != nil {
			log.Error().Err(err).Msg("could not create test driver")
			code := service.ReportFailure(ctx, w, domain.ExitUsageError, err)
			closeWorker(w)
			os.Exit(code)
		}

		opts := service.WorkerOptions{
			Path:       workerFlags.path,
			FailedOnly: workerFlags.failedOnly,
			Filter:     workerFlags.filter,
		}

		var code int
		switch kind {
		case ui.WorkerCollect:
			code = service.RunCollection(ctx, opts, driver, w)
		default:
			code = service.RunTests(ctx, opts, driver, w)
		}

		log.Info().Str("kind", string(kind)).Int("exitcode", code).Msg("worker done")
		closeWorker(w)
		os.Exit(code)
		return nil
	}
}

func closeWorker(w *channel.Writer) {
	if err := w.Close(); err != nil {
		log := logging.Get("runner")
		log.Warn().Err(err).Msg("could not close channel")
	}
	_ = logging.Close()
}
