package console

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/danielpatrickdp/mirror-console/internal/chat"
	"github.com/danielpatrickdp/mirror-console/internal/contradiction"
	"github.com/danielpatrickdp/mirror-console/internal/narration"
	"github.com/danielpatrickdp/mirror-console/internal/sim"
	"github.com/danielpatrickdp/mirror-console/internal/telemetry"
)

// #region view
// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	half := max(30, m.width/2-2)
	left := lipgloss.JoinVertical(lipgloss.Left,
		panelStyle.Width(half).Render(m.renderTelemetry()),
		panelStyle.Width(half).Render(m.renderAudit()),
	)
	right := lipgloss.JoinVertical(lipgloss.Left,
		m.renderContradiction(half),
		panelStyle.Width(half).Render(m.renderChat()),
	)
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
	b.WriteRune('\n')

	b.WriteString(m.input.View())
	b.WriteRune('\n')
	if m.notice != "" {
		b.WriteString(warnStyle.Render(m.notice))
		b.WriteRune('\n')
	}
	b.WriteString(m.help.View(keys))
	return b.String()
}

func (m Model) renderHeader() string {
	s := m.state
	run := dimStyle.Render("STANDBY")
	if s.IsRunning {
		run = passStyle.Render("RECORDING")
	}
	return lipgloss.JoinHorizontal(lipgloss.Center,
		titleStyle.Render("MIRROR FLIGHT RECORDER"),
		" ",
		frameStyle.Render(fmt.Sprintf("T+%06d", s.CurrentFrame)),
		"  ",
		run,
		"  ",
		gateBadge(s.GateStatus),
		"  ",
		dimStyle.Render(fmt.Sprintf("go %d · no-go %d", s.ConsecutiveGoFrames, s.ConsecutiveNoGoFrames)),
	)
}

// #endregion view

// #region telemetry
type series struct {
	label  string
	format string
	pick   func(telemetry.MetricFrame) float64
}

var panelSeries = []series{
	{"γ-sync", "%6.2f Hz", func(f telemetry.MetricFrame) float64 { return f.Gamma }},
	{"ψ", "%8.5f", func(f telemetry.MetricFrame) float64 { return f.Psi }},
	{"vireax", "%8.5f", func(f telemetry.MetricFrame) float64 { return f.Vireax }},
	{"Δt", "%8.2e s", func(f telemetry.MetricFrame) float64 { return f.Drift }},
	{"ε", "%8.5f", func(f telemetry.MetricFrame) float64 { return f.Error }},
	{"entropy", "%8.5f", func(f telemetry.MetricFrame) float64 { return f.Entropy }},
}

func (m Model) renderTelemetry() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("TELEMETRY"))
	b.WriteRune('\n')

	frames := m.state.Metrics
	if len(frames) == 0 {
		b.WriteString(dimStyle.Render("no frames recorded; press space to start"))
		return b.String()
	}

	values := make([]float64, len(frames))
	latest := frames[len(frames)-1]
	for _, s := range panelSeries {
		for i, f := range frames {
			values[i] = s.pick(f)
		}
		fmt.Fprintf(&b, "%-8s %s %s\n",
			s.label,
			fmt.Sprintf(s.format, s.pick(latest)),
			dimStyle.Render(sparkline(values, m.config.SparkWidth)))
	}
	b.WriteString(dimStyle.Render(nodeSummary(m.state.Nodes)))
	return b.String()
}

func nodeSummary(nodes []sim.Node) string {
	if len(nodes) == 0 {
		return "nodes: none"
	}
	var total float64
	for _, n := range nodes {
		total += n.Activity
	}
	return fmt.Sprintf("nodes %d · mean activity %.2f", len(nodes), total/float64(len(nodes)))
}

// #endregion telemetry

// #region audit
func (m Model) renderAudit() string {
	report := m.auditor.Run(m.state)

	var b strings.Builder
	b.WriteString(headerStyle.Render("AXIOMATIC AUDIT"))
	b.WriteRune('\n')
	for _, c := range report.Checks {
		fmt.Fprintf(&b, "%-26s %s\n", c.Name, checkStyle(c.Status).Render(string(c.Status)))
	}
	fmt.Fprintf(&b, "convergence %s %d/%d\n",
		bar(report.Convergence.Ratio, 10), report.Convergence.Count, report.Convergence.Threshold)
	fmt.Fprintf(&b, "pressure    %s %d/%d",
		bar(report.Pressure.Ratio, 10), report.Pressure.Count, report.Pressure.Threshold)
	return b.String()
}

// #endregion audit

// #region contradiction
func (m Model) renderContradiction(width int) string {
	ev := m.state.ActiveContradiction
	if ev == nil {
		return panelStyle.Width(width).Render(
			headerStyle.Render("LOGIC TRAPS") + "\n" + dimStyle.Render("no active contradiction"))
	}
	return alertPanelStyle.Width(width).Render(renderEvent(ev))
}

func renderEvent(ev *contradiction.Event) string {
	var b strings.Builder
	b.WriteString(failStyle.Render(fmt.Sprintf("%s %s", ev.ID, ev.Result.Classification)))
	b.WriteRune('\n')
	b.WriteString(ev.Result.Explanation)
	b.WriteRune('\n')
	for _, r := range ev.Repairs {
		fmt.Fprintf(&b, "• [%s] %s: %s\n", r.Cost, r.Type, r.Change)
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf("confidence %.2f · %s", ev.Confidence, strings.Join(ev.Refs, ", "))))
	return b.String()
}

// #endregion contradiction

// #region chat
func (m Model) renderChat() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("MIRROR ASSISTANT"))
	b.WriteRune('\n')

	msgs := m.session.Messages()
	if n := m.config.TranscriptLines; n > 0 && len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	for _, msg := range msgs {
		b.WriteString(renderMessage(msg))
		b.WriteRune('\n')
	}
	if m.session.Pending() {
		if partial := m.session.Partial(); partial != "" {
			b.WriteString(assistantStyle.Render("mirror ") + partial)
		} else {
			b.WriteString(dimStyle.Render("mirror is composing..."))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderMessage(msg chat.Message) string {
	if msg.Role == narration.RoleUser {
		return userStyle.Render("you    ") + msg.Content
	}
	line := assistantStyle.Render("mirror ") + msg.Content
	if msg.Fallback {
		line = assistantStyle.Render("mirror ") + failStyle.Render(msg.Content)
	}
	if msg.Audit != nil {
		line += "\n" + dimStyle.Render(fmt.Sprintf("  audit: confidence %.2f · %d violation(s) · refs %s",
			msg.Audit.Confidence, len(msg.Audit.Violations), strings.Join(msg.Audit.Refs, ", ")))
	}
	return line
}

// #endregion chat
