package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/DylanSharp/gotui/internal/config"
	"github.com/DylanSharp/gotui/internal/logging"
	"github.com/DylanSharp/gotui/internal/testui/channel"
	"github.com/DylanSharp/gotui/internal/testui/ui"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

var (
	configFile string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "gotui [path]",
	Short: "Interactive go test runner",
	Long: `gotui collects the tests of a Go module and runs them from a terminal UI.

Tests run in a separate worker process and stream their results back as they
happen. Failed tests can be rerun alone, the list can be narrowed with a fuzzy
filter, and the output of any test is one keypress away.

Keys:
  R        run all tests
  r / F5   rerun failed tests
  /        filter (text after # is a literal regex)
  ctrl+f   clear the filter
  alt+↓/↑  next/previous failure
  F4       show failed tests only
  enter    show test output
  q        quit`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTUI,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the gotui version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("gotui " + version)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(workerCmd)
	rootCmd.AddCommand(versionCmd)

	// Flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to a config file")
}

// runTUI starts the terminal UI
func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	path := cfg.Path
	if len(args) > 0 {
		path = args[0]
	}

	if err := logging.Configure(logging.Options{
		File:       cfg.LogFile("gotui-ui.log"),
		Level:      cfg.Logs.Level,
		Components: cfg.Logs.Components,
	}); err != nil {
		return err
	}
	defer func() { _ = logging.Close() }()
	log := logging.Get("ui")

	host, err := channel.NewHost("", cfg.Capacity)
	if err != nil {
		return fmt.Errorf("could not create worker channel: %w", err)
	}
	defer func() {
		if err := host.Close(); err != nil {
			log.Warn().Err(err).Msg("could not clean up channel")
		}
	}()

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("could not locate gotui executable: %w", err)
	}

	var globalFlags []string
	if configFile != "" {
		globalFlags = append(globalFlags, "--config", configFile)
	}
	procs := ui.NewProcessManager(host, ui.ProcessManagerOptions{
		Executable:  exe,
		GlobalFlags: globalFlags,
	})

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	model := ui.NewModel(ui.Options{
		Path:         path,
		Launcher:     procs,
		Batches:      channel.Pump(ctx, host.Reader(), host.Capacity()),
		Release:      host.Release,
		MaxFrameSize: cfg.MaxFrameSize,
	})

	log.Info().Str("path", path).Strs("config", cfg.Files).Msg("starting ui")

	p := tea.NewProgram(model, tea.WithContext(ctx))
	_, runErr := p.Run()

	if err := procs.Kill(); err != nil {
		log.Warn().Err(err).Msg("could not stop worker")
	}
	procs.Wait()

	if runErr != nil {
		return fmt.Errorf("TUI error: %w", runErr)
	}
	return nil
}
