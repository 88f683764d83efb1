// Package tui provides the live terminal dashboard for the agent: the
// queued assignments, their progress and projected completion dates,
// refreshed from the worker's status artifacts.
package tui

import (
	"fmt"
	"strings"
	"time"

	pbar "github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tdulcet/Distributed-Computing-Scripts-sub000/internal/session"
)

// refreshInterval is how often the dashboard re-reads the status artifacts.
const refreshInterval = 5 * time.Second

var (
	// Colors
	primaryColor = lipgloss.Color("#7C3AED")
	successColor = lipgloss.Color("#10B981")
	warningColor = lipgloss.Color("#F59E0B")
	mutedColor   = lipgloss.Color("#6B7280")
	fgColor      = lipgloss.Color("#F9FAFB")

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#374151")).
			Foreground(fgColor).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(0, 1)

	exponentStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(successColor)

	stageStyle = lipgloss.NewStyle().
			Foreground(warningColor)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)
)

// App is the dashboard model.
type App struct {
	controller *session.Controller
	statuses   []session.AssignmentStatus
	bars       []pbar.Model
	width      int
	height     int
	lastUpdate time.Time
}

// New creates the dashboard for an already-wired controller.
func New(controller *session.Controller) *App {
	return &App{controller: controller}
}

// Run starts the dashboard and blocks until the user quits.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

type refreshMsg []session.AssignmentStatus

type tickMsg time.Time

func (a *App) refresh() tea.Cmd {
	return func() tea.Msg {
		return refreshMsg(a.controller.Status())
	}
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.refresh(), tick())
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return a, tea.Quit
		case "r":
			return a, a.refresh()
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		for i := range a.bars {
			a.bars[i].Width = a.barWidth()
		}

	case tickMsg:
		return a, tea.Batch(a.refresh(), tick())

	case refreshMsg:
		a.statuses = msg
		a.lastUpdate = time.Now()
		for len(a.bars) < len(a.statuses) {
			b := pbar.New(pbar.WithDefaultGradient())
			b.Width = a.barWidth()
			a.bars = append(a.bars, b)
		}
		a.bars = a.bars[:len(a.statuses)]
	}
	return a, nil
}

func (a *App) barWidth() int {
	w := a.width - 40
	if w < 10 {
		w = 10
	}
	if w > 60 {
		w = 60
	}
	return w
}

// View implements tea.Model
func (a *App) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("PrimeNet work queue"))
	b.WriteString("\n\n")

	if len(a.statuses) == 0 {
		b.WriteString(panelStyle.Render("No assignments queued. The next cycle will fetch work."))
		b.WriteString("\n")
	}
	for i, st := range a.statuses {
		asgn := st.Assignment
		header := fmt.Sprintf("%s %s", asgn.Kind,
			exponentStyle.Render(fmt.Sprintf("M%d", asgn.N)))
		if st.Stage != "" {
			header += "  " + stageStyle.Render(st.Stage)
		}

		line := fmt.Sprintf("%s %5.1f%%", a.bars[i].ViewAs(st.Percent/100), st.Percent)
		detail := "completion date unknown"
		if st.TimeLeft != nil {
			detail = fmt.Sprintf("done in %s (%s)",
				formatDuration(*st.TimeLeft),
				time.Now().Add(*st.TimeLeft).Format("Jan 2 15:04"))
		}
		if st.ProbPrime > 0 {
			detail += fmt.Sprintf("  prime chance 1 in %.0f", 1/st.ProbPrime)
		}

		b.WriteString(panelStyle.Render(header + "\n" + line + "\n" + helpStyle.Render(detail)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	status := "waiting for first refresh"
	if !a.lastUpdate.IsZero() {
		status = "updated " + a.lastUpdate.Format("15:04:05")
	}
	b.WriteString(statusBarStyle.Render(status))
	b.WriteString("  ")
	b.WriteString(helpStyle.Render("r: refresh • q: quit"))
	return b.String()
}

// formatDuration renders a duration in days/hours/minutes, the resolution
// that matters for multi-week tests.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
