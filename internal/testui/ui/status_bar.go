package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/DylanSharp/gotui/internal/testui/service"
)

// StatusBar displays the test counts and the worker's progress
type StatusBar struct {
	Stats     service.TestStats
	Kind      WorkerKind
	Running   bool
	StartTime time.Time
	Elapsed   time.Duration
	Error     error
}

// NewStatusBar creates a new status bar
func NewStatusBar() StatusBar {
	return StatusBar{}
}

// Update refreshes the counts
func (s *StatusBar) Update(stats service.TestStats) {
	s.Stats = stats
}

// Start marks a worker as running
func (s *StatusBar) Start(kind WorkerKind) {
	s.Kind = kind
	s.Running = true
	s.StartTime = time.Now()
	s.Elapsed = 0
	s.Error = nil
}

// Finish marks the worker as done and freezes the elapsed time
func (s *StatusBar) Finish() {
	if !s.Running {
		return
	}
	s.Running = false
	s.Elapsed = time.Since(s.StartTime)
}

// SetError sets an error state
func (s *StatusBar) SetError(err error) {
	s.Error = err
}

// ClearError clears the error state
func (s *StatusBar) ClearError() {
	s.Error = nil
}

// StatusLine renders the counts as plain text
func (s *StatusBar) StatusLine() string {
	return fmt.Sprintf("Total: %d Filtered: %d Failed: %d", s.Stats.Total, s.Stats.Filtered, s.Stats.Failed)
}

// Render renders the status bar to the given width
func (s *StatusBar) Render(width int) string {
	if width < 40 {
		width = 40
	}

	var parts []string
	parts = append(parts,
		fmt.Sprintf("Total: %d", s.Stats.Total),
		fmt.Sprintf("Filtered: %d", s.Stats.Filtered),
	)
	failed := fmt.Sprintf("Failed: %d", s.Stats.Failed)
	if s.Stats.Failed > 0 {
		failed = errorStyle.Render(failed)
	}
	parts = append(parts, failed)

	switch {
	case s.Running:
		parts = append(parts, mutedStyle.Render("│"),
			runningStyle.Render(fmt.Sprintf("%s %s", s.activity(), formatElapsed(time.Since(s.StartTime)))))
	case s.Kind != "":
		parts = append(parts, mutedStyle.Render("│"),
			mutedStyle.Render(fmt.Sprintf("%s took %s", s.Kind, formatElapsed(s.Elapsed))))
	}

	var lines []string
	if s.Error != nil {
		lines = append(lines, errorStyle.Render("Error: "+s.Error.Error()))
	}
	lines = append(lines, strings.Join(parts, " "))

	border := mutedStyle.Render(strings.Repeat("─", width))
	return statusBarStyle.Render(border + "\n" + strings.Join(lines, "\n"))
}

func (s *StatusBar) activity() string {
	if s.Kind == WorkerCollect {
		return "▶ collecting"
	}
	return "▶ running"
}

// formatElapsed formats the elapsed time
func formatElapsed(elapsed time.Duration) string {
	hours := int(elapsed.Hours())
	minutes := int(elapsed.Minutes()) % 60
	seconds := int(elapsed.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
