package ui

import (
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Popup is a scrollable overlay showing a test's output or a startup error
type Popup struct {
	Title    string
	Body     string
	IsError  bool
	viewport viewport.Model
}

// NewPopup creates a popup sized for a width x height screen
func NewPopup(title, body string, isError bool, width, height int) *Popup {
	p := &Popup{Title: title, Body: body, IsError: isError}
	p.viewport = viewport.New(80, 20)
	p.SetSize(width, height)
	if body == "" {
		p.viewport.SetContent(mutedStyle.Render("(no output)"))
	} else {
		p.viewport.SetContent(body)
	}
	return p
}

// SetSize fits the popup to 90% of the screen width and 80% of its height
func (p *Popup) SetSize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	p.viewport.Width = max(width*9/10-4, 20)
	p.viewport.Height = max(height*8/10-4, 3)
}

// Update scrolls the content
func (p *Popup) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	p.viewport, cmd = p.viewport.Update(msg)
	return cmd
}

// View renders the popup box
func (p *Popup) View() string {
	style := popupStyle
	title := titleStyle.Render(p.Title)
	if p.IsError {
		style = errorPopupStyle
		title = errorStyle.Bold(true).Render(p.Title)
	}

	footer := mutedStyle.Render("esc/q/enter: close │ ↑/↓ pgup/pgdown: scroll")
	content := lipgloss.JoinVertical(lipgloss.Left, title, "", p.viewport.View(), "", footer)
	return style.Width(p.viewport.Width + 2).Render(content)
}
