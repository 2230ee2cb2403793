// Package notify delivers fire-and-forget user notifications.
package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"goalgate/backend/internal/observability"
)

type Notifier interface {
	Notify(title, body string)
}

// Terminal prints a bordered box per notification.
type Terminal struct {
	mu    sync.Mutex
	out   io.Writer
	title lipgloss.Style
	box   lipgloss.Style
}

func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{
		out:   out,
		title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f97316")),
		box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#6366f1")).
			Padding(0, 1),
	}
}

func (t *Terminal) Notify(title, body string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rendered := t.box.Render(lipgloss.JoinVertical(lipgloss.Left, t.title.Render(title), body))
	if _, err := fmt.Fprintln(t.out, rendered); err != nil {
		observability.Logger().Warn("write notification", "error", err)
	}
}

// Log emits notifications as structured log entries.
type Log struct{}

func (Log) Notify(title, body string) {
	observability.Logger().Info("notification", "title", title, "body", body)
}
