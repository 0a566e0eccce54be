package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/DylanSharp/gotui/internal/testui/domain"
)

const (
	headerHeight    = 2
	filterHeight    = 1
	helpHeight      = 1
	statusBarHeight = 2
	minListHeight   = 3

	stateWidth = 10
)

// RenderView renders the complete TUI view
func RenderView(m *Model) string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	if m.popup != nil {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.popup.View())
	}

	m.statusBar.Update(m.store.GetTestStats())

	sections := []string{
		renderHeader(m),
		renderFilter(m),
		renderTestList(m, m.listHeight()),
		renderHelp(m),
		m.statusBar.Render(m.width),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// listHeight is the number of test rows that fit on screen
func (m *Model) listHeight() int {
	height := m.height - headerHeight - filterHeight - helpHeight - statusBarHeight - 1
	if m.statusBar.Error != nil {
		height--
	}
	return max(height, minListHeight)
}

// renderHeader renders the header section
func renderHeader(m *Model) string {
	title := titleStyle.Render("gotui")
	path := mutedStyle.Render(m.path)
	var flags []string
	if m.store.ShowFailedOnly() {
		flags = append(flags, warningStyle.Render("[failed only]"))
	}
	if !m.store.ShowCollected() {
		flags = append(flags, warningStyle.Render("[results only]"))
	}

	line := title + " " + path
	if len(flags) > 0 {
		line += " " + strings.Join(flags, " ")
	}
	return headerStyle.Width(m.width).Render(line)
}

// renderFilter renders the filter box
func renderFilter(m *Model) string {
	label := filterLabelStyle.Render("Filter: ")
	if m.filtering {
		label = filterActiveStyle.Render("Filter: ")
	}

	line := label + m.filter.View()
	if m.filterErr != nil {
		line += " " + errorStyle.Render("invalid filter")
	}
	return line
}

// renderTestList renders the visible window of the test list
func renderTestList(m *Model, height int) string {
	list := m.store.CurrentTestList()
	if len(list) == 0 {
		lines := []string{mutedStyle.Render(emptyListText(m))}
		for len(lines) < height {
			lines = append(lines, "")
		}
		return strings.Join(lines, "\n")
	}

	start := min(m.offset, len(list)-1)
	end := min(start+height, len(list))

	lines := make([]string, 0, height)
	for i := start; i < end; i++ {
		lines = append(lines, renderTestLine(list[i], i == m.cursor, m.width))
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func emptyListText(m *Model) string {
	switch {
	case m.statusBar.Running && m.statusBar.Kind == WorkerCollect:
		return "Collecting tests..."
	case m.store.Len() > 0:
		return "No tests match the current view."
	default:
		return "No tests collected."
	}
}

// renderTestLine renders one row: a run marker, the test id and its state
func renderTestLine(rec *domain.TestRecord, selected bool, width int) string {
	marker := "  "
	state := string(rec.ResultState)
	if rec.IsRunning() {
		marker = "▶ "
		state = string(rec.RunState)
	}

	idWidth := max(width-len(marker)-stateWidth-3, 10)
	id := fmt.Sprintf("%-*s", idWidth, truncate(rec.ID, idWidth))
	stateText := fmt.Sprintf("[%-*s]", stateWidth-2, state)

	if selected {
		return cursorStyle.Render(marker + id + " " + stateText)
	}

	stateStyle := GetResultStyle(rec.ResultState)
	if rec.IsRunning() {
		stateStyle = runningStyle
	}
	return GetRunStateStyle(rec.RunState).Render(marker+id) + " " + stateStyle.Render(stateText)
}

// renderHelp renders the help line
func renderHelp(m *Model) string {
	if m.filtering {
		return helpStyle.Render("enter/esc: done │ #: toggle literal")
	}
	return helpStyle.Render(m.help.View(m.keys))
}

// truncate shortens s to width runes, keeping the end of the id
func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width || width < 4 {
		return s
	}
	return "..." + string(runes[len(runes)-width+3:])
}
