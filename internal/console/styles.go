package console

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/danielpatrickdp/mirror-console/internal/audit"
	"github.com/danielpatrickdp/mirror-console/internal/gate"
)

// #region keys
type keyMap struct {
	Quit   key.Binding
	Toggle key.Binding
	Focus  key.Binding
	Send   key.Binding
	Blur   key.Binding
	Help   key.Binding
}

var keys = keyMap{
	Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Toggle: key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "start/stop")),
	Focus:  key.NewBinding(key.WithKeys("tab", "i"), key.WithHelp("tab", "chat")),
	Send:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
	Blur:   key.NewBinding(key.WithKeys("esc", "tab"), key.WithHelp("esc", "controls")),
	Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Focus, k.Send, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Focus, k.Blur},
		{k.Send, k.Help, k.Quit},
	}
}

// #endregion keys

// #region styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#E0E7FF")).
			Background(lipgloss.Color("#1E1B4B")).
			Padding(0, 1)

	frameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A5B4FC")).
			Bold(true)

	goStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#052E16")).
		Background(lipgloss.Color("#4ADE80")).
		Padding(0, 1)

	stabilizingStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#422006")).
				Background(lipgloss.Color("#FACC15")).
				Padding(0, 1)

	noGoStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FEF2F2")).
			Background(lipgloss.Color("#DC2626")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3730A3")).
			Padding(0, 1)

	alertPanelStyle = panelStyle.
			BorderForeground(lipgloss.Color("#DC2626"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#89B4FA"))

	passStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ADE80"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FACC15"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171")).Bold(true)
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))

	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#89B4FA")).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1")).Bold(true)
)

func gateBadge(s gate.Status) string {
	switch s {
	case gate.StatusGo:
		return goStyle.Render(string(s))
	case gate.StatusStabilizing:
		return stabilizingStyle.Render(string(s))
	default:
		return noGoStyle.Render(string(s))
	}
}

func checkStyle(s audit.CheckStatus) lipgloss.Style {
	switch s {
	case audit.StatusPass, audit.StatusStable:
		return passStyle
	case audit.StatusWarn, audit.StatusDrift:
		return warnStyle
	default:
		return failStyle
	}
}

// #endregion styles

// #region sparkline
var sparkLevels = []rune("▁▂▃▄▅▆▇█")

// sparkline renders the last width values scaled between their own min and
// max. A flat series renders at mid height.
func sparkline(values []float64, width int) string {
	if width <= 0 || len(values) == 0 {
		return ""
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}

	var b strings.Builder
	top := len(sparkLevels) - 1
	for _, v := range values {
		idx := top / 2
		if hi > lo {
			idx = int((v - lo) / (hi - lo) * float64(top))
		}
		b.WriteRune(sparkLevels[idx])
	}
	return b.String()
}

// bar renders ratio in [0, 1] as a filled gauge of width cells.
func bar(ratio float64, width int) string {
	ratio = max(0, min(1, ratio))
	filled := int(ratio*float64(width) + 0.5)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// #endregion sparkline
