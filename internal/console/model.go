// Package console is the interactive terminal front end: live gate and
// telemetry panels over a driver, plus the audit chat.
package console

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/danielpatrickdp/mirror-console/internal/audit"
	"github.com/danielpatrickdp/mirror-console/internal/chat"
	"github.com/danielpatrickdp/mirror-console/internal/sim"
)

// #region config
// ConsoleConfig controls layout.
type ConsoleConfig struct {
	SparkWidth      int `yaml:"spark_width"`      // samples per sparkline
	TranscriptLines int `yaml:"transcript_lines"` // chat messages shown
	DefaultWidth    int `yaml:"default_width"`    // used until the terminal reports its size
}

// DefaultConsoleConfig returns the standard layout.
func DefaultConsoleConfig() ConsoleConfig {
	return ConsoleConfig{
		SparkWidth:      32,
		TranscriptLines: 8,
		DefaultWidth:    120,
	}
}

// #endregion config

// #region messages
type snapshotMsg struct{ state *sim.SimulationState }

type chatMsg struct{}

// subscriptionClosedMsg is sent once the driver subscription has been
// cancelled.
type subscriptionClosedMsg struct{}

func waitSnapshot(ch <-chan *sim.SimulationState) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return subscriptionClosedMsg{}
		}
		return snapshotMsg{state: s}
	}
}

func waitChat(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return chatMsg{}
	}
}

// #endregion messages

// #region model
// Model is the bubbletea model. The driver owns all simulation state; the
// model only holds the newest snapshot it has been sent.
type Model struct {
	config  ConsoleConfig
	ctx     context.Context
	driver  *sim.Driver
	session *chat.Session
	auditor *audit.Auditor

	state   *sim.SimulationState
	updates <-chan *sim.SimulationState
	cancel  func()

	input    textinput.Model
	help     help.Model
	showHelp bool
	notice   string

	width  int
	height int
}

// New builds the model and subscribes to driver. Narration requests run on
// ctx, so cancelling it aborts any pending reply.
func New(ctx context.Context, config ConsoleConfig, driver *sim.Driver, session *chat.Session, auditor *audit.Auditor) Model {
	input := textinput.New()
	input.Prompt = "❯ "
	input.Placeholder = "audit query (tab to focus)"
	input.CharLimit = 2000

	updates, cancel := driver.Subscribe(1)
	return Model{
		config:  config,
		ctx:     ctx,
		driver:  driver,
		session: session,
		auditor: auditor,
		state:   driver.Snapshot(),
		updates: updates,
		cancel:  cancel,
		input:   input,
		help:    help.New(),
		width:   config.DefaultWidth,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		waitSnapshot(m.updates),
		waitChat(m.session.Changed()),
		textinput.Blink,
	)
}

// State returns the snapshot currently on screen.
func (m Model) State() *sim.SimulationState {
	return m.state
}

// #endregion model

// #region update
// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.input.Width = max(10, msg.Width-8)
		return m, nil

	case snapshotMsg:
		m.state = msg.state
		return m, waitSnapshot(m.updates)

	case subscriptionClosedMsg:
		return m, nil

	case chatMsg:
		return m, waitChat(m.session.Changed())

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m.quit()
		}
		if m.input.Focused() {
			return m.updateInput(msg)
		}
		return m.updateControls(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateControls(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m.quit()
	case key.Matches(msg, keys.Toggle):
		m.state = m.driver.ToggleRunning()
		m.notice = ""
	case key.Matches(msg, keys.Focus):
		m.notice = ""
		return m, m.input.Focus()
	case key.Matches(msg, keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
	}
	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Blur):
		m.input.Blur()
		return m, nil
	case key.Matches(msg, keys.Send):
		return m.send()
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) send() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	_, err := m.session.Send(m.ctx, text)
	switch {
	case errors.Is(err, chat.ErrEmptyInput):
		m.notice = "query is empty"
	case errors.Is(err, chat.ErrBusy):
		m.notice = "narration pending; wait for the reply"
	case err != nil:
		m.notice = err.Error()
	default:
		m.notice = ""
		m.input.Reset()
	}
	return m, nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.cancel != nil {
		m.cancel()
	}
	return m, tea.Quit
}

// #endregion update
