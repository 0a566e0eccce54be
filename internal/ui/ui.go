package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/cockroachdb/errors"

	"github.com/DylanSharp/gotui/internal/config"
)

// WizardAnswers are the raw answers of the init form
type WizardAnswers struct {
	Path     string
	Binary   string
	Flags    string
	Timeout  string
	LogLevel string
}

// NewWizardAnswers prefills the answers from cfg
func NewWizardAnswers(cfg *config.Config) WizardAnswers {
	a := WizardAnswers{
		Path:     cfg.Path,
		Binary:   cfg.Go.Binary,
		Flags:    strings.Join(cfg.Go.Flags, " "),
		LogLevel: cfg.Logs.Level,
	}
	if cfg.Go.Timeout > 0 {
		a.Timeout = cfg.Go.Timeout.String()
	}
	return a
}

// Apply copies the answers into cfg
func (a WizardAnswers) Apply(cfg *config.Config) error {
	if strings.TrimSpace(a.Path) == "" {
		return errors.New("package pattern cannot be empty")
	}
	if strings.TrimSpace(a.Binary) == "" {
		return errors.New("go binary cannot be empty")
	}

	var timeout time.Duration
	if a.Timeout != "" {
		parsed, err := time.ParseDuration(a.Timeout)
		if err != nil {
			return errors.Wrapf(err, "invalid timeout %q", a.Timeout)
		}
		timeout = parsed
	}

	cfg.Path = strings.TrimSpace(a.Path)
	cfg.Go.Binary = strings.TrimSpace(a.Binary)
	cfg.Go.Flags = strings.Fields(a.Flags)
	cfg.Go.Timeout = timeout
	if a.LogLevel != "" {
		cfg.Logs.Level = a.LogLevel
	}
	return nil
}

// ConfigWizard asks for the settings of a new config file and applies them
// to cfg. It returns false if the user aborted.
func ConfigWizard(cfg *config.Config) (bool, error) {
	answers := NewWizardAnswers(cfg)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Package pattern").
				Description("Handed to go test, e.g. ./... or ./internal/...").
				Value(&answers.Path).
				Validate(notEmpty("package pattern")),
			huh.NewInput().
				Title("Go binary").
				Value(&answers.Binary).
				Validate(notEmpty("go binary")),
			huh.NewInput().
				Title("Extra go test flags").
				Placeholder("-race -count=1").
				Value(&answers.Flags),
			huh.NewInput().
				Title("Test timeout").
				Placeholder("10m").
				Value(&answers.Timeout).
				Validate(func(s string) error {
					if s == "" {
						return nil
					}
					if _, err := time.ParseDuration(s); err != nil {
						return fmt.Errorf("not a duration: %s", s)
					}
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Log level").
				Options(
					huh.NewOption("trace", "trace"),
					huh.NewOption("debug", "debug"),
					huh.NewOption("info", "info"),
					huh.NewOption("warn", "warn"),
					huh.NewOption("error", "error"),
				).
				Value(&answers.LogLevel),
		),
	)

	err := form.Run()
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}

	if err := answers.Apply(cfg); err != nil {
		return false, err
	}
	return true, nil
}

// ConfirmOverwrite asks before replacing an existing config file
func ConfirmOverwrite(path string) (bool, error) {
	var overwrite bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("%s already exists. Overwrite it?", path)).
				Value(&overwrite),
		),
	)

	err := form.Run()
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return overwrite, nil
}

func notEmpty(what string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s cannot be empty", what)
		}
		return nil
	}
}
