// Package logging configures the process-wide zerolog logger and hands out
// component loggers with per-component levels.
//
// Nothing is configured at import time. Until Configure is called every
// logger returned by Get discards its output.
package logging

import (
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// Root is the name every component logger is nested under
const Root = "gotui"

// DefaultComponents are the levels applied unless overridden. The pipe and the
// captured worker output are noisy, so they start at info.
var DefaultComponents = map[string]string{
	"runner.pipe":   "info",
	"runner.stdout": "info",
	"runner.stderr": "info",
}

// Options controls Configure
type Options struct {
	// File is truncated and written to. Ignored when Out is set.
	File string
	// Out overrides File, mostly for tests
	Out io.Writer
	// Level is the default level for components without an entry
	Level string
	// Components maps dotted component names to levels
	Components map[string]string
}

var (
	mu         sync.RWMutex
	base       = zerolog.Nop()
	configured bool
	global     = zerolog.DebugLevel
	levels     = map[string]zerolog.Level{}
	closer     io.Closer
)

// Configure sets up the process logger. It may be called again to replace the
// previous configuration; the previously opened file is closed.
func Configure(opts Options) error {
	lvl := zerolog.DebugLevel
	if opts.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return errors.Wrapf(err, "invalid log level %q", opts.Level)
		}
		lvl = parsed
	}

	comps := make(map[string]zerolog.Level, len(DefaultComponents)+len(opts.Components))
	for name, l := range DefaultComponents {
		comps[name] = zerolog.InfoLevel
		if parsed, err := zerolog.ParseLevel(l); err == nil {
			comps[name] = parsed
		}
	}
	for name, l := range opts.Components {
		parsed, err := zerolog.ParseLevel(strings.ToLower(l))
		if err != nil {
			return errors.Wrapf(err, "invalid log level %q for component %s", l, name)
		}
		comps[name] = parsed
	}

	out := opts.Out
	var c io.Closer
	if out == nil {
		if opts.File == "" {
			out = io.Discard
		} else {
			f, err := os.Create(opts.File)
			if err != nil {
				return errors.Wrapf(err, "open log file %s", opts.File)
			}
			out, c = f, f
		}
	}

	writer := zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    true,
		TimeFormat: time.RFC3339Nano,
	}

	mu.Lock()
	defer mu.Unlock()

	if closer != nil {
		_ = closer.Close()
	}
	closer = c

	// Component loggers filter by their own level
	zerolog.SetGlobalLevel(zerolog.TraceLevel)

	base = zerolog.New(writer).With().Timestamp().Int("pid", os.Getpid()).Logger()
	global = lvl
	levels = comps
	configured = true
	return nil
}

// Close releases the log file, if any. Loggers obtained afterwards discard.
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	base = zerolog.Nop()
	configured = false
	if closer == nil {
		return nil
	}
	err := closer.Close()
	closer = nil
	return err
}

// Get returns the logger for a component, e.g. Get("runner", "pipe") logs as
// component=runner.pipe.
func Get(parts ...string) zerolog.Logger {
	name := strings.Join(parts, ".")

	mu.RLock()
	defer mu.RUnlock()

	if !configured {
		return zerolog.Nop()
	}
	return base.With().Str("component", name).Logger().Level(levelLocked(name))
}

// LevelFor returns the level a component logs at: its own entry, else the
// entry of the longest configured prefix, else the default level.
func LevelFor(component string) zerolog.Level {
	mu.RLock()
	defer mu.RUnlock()
	return levelLocked(component)
}

func levelLocked(component string) zerolog.Level {
	if lvl, ok := levels[component]; ok {
		return lvl
	}

	// Longest prefix first
	names := make([]string, 0, len(levels))
	for name := range levels {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })

	for _, name := range names {
		if strings.HasPrefix(component, name+".") {
			return levels[name]
		}
	}
	return global
}
