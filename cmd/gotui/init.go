package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/DylanSharp/gotui/internal/config"
	"github.com/DylanSharp/gotui/internal/ui"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init [file]",
	Short: "Write a starter config file",
	Long: `Ask for the basic settings and write them as a gotui config file.

If no file is provided, writes .gotui.yaml in the current directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing file without asking")
}

// runInit writes a new config file
func runInit(cmd *cobra.Command, args []string) error {
	path := config.FileName
	if len(args) > 0 {
		path = args[0]
	}

	if _, err := os.Stat(path); err == nil && !initForce {
		ok, err := ui.ConfirmOverwrite(path)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Aborted.")
			return nil
		}
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	ok, err := ui.ConfigWizard(cfg)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("Aborted.")
		return nil
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Write(path, cfg); err != nil {
		return fmt.Errorf("could not write %s: %w", path, err)
	}

	fmt.Printf("✓ Wrote %s\n\n", path)
	fmt.Println("Next steps:")
	fmt.Println("  1. Add xfail rules for tests that are expected to fail")
	fmt.Println("  2. Run 'gotui' to start testing")
	return nil
}
