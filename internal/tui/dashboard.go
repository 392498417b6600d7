package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/manav03panchal/timeblock/internal/errors"
	"github.com/manav03panchal/timeblock/internal/model"
	"github.com/manav03panchal/timeblock/internal/theme"
)

// BlockStore is the part of the block store the dashboard drives.
type BlockStore interface {
	List() []*model.TimeBlock
	Load(ctx context.Context) ([]*model.TimeBlock, error)
	Delete(ctx context.Context, id string) error
}

// ThemeSwitcher is the part of the theme manager the dashboard drives.
type ThemeSwitcher interface {
	Current() theme.Palette
	Cycle(ctx context.Context) (theme.Palette, error)
}

// tickMsg is sent when the clock ticks.
type tickMsg time.Time

// refreshMsg is sent when blocks need to be reloaded.
type refreshMsg struct{}

// errMsg is sent when an error occurs.
type errMsg struct {
	err error
}

// BlocksModel is the bubbletea model listing time blocks.
type BlocksModel struct {
	store  BlockStore
	themes ThemeSwitcher

	blocks     []*model.TimeBlock
	cursor     int
	confirming bool

	width      int
	height     int
	err        error
	message    string
	messageExp time.Time

	now             func() time.Time
	refreshInterval time.Duration
}

// DashboardConfig holds configuration for the dashboard.
type DashboardConfig struct {
	Store           BlockStore
	Themes          ThemeSwitcher
	RefreshInterval time.Duration
	Now             func() time.Time
}

// NewBlocksModel creates a new dashboard model.
func NewBlocksModel(config DashboardConfig) *BlocksModel {
	if config.RefreshInterval == 0 {
		config.RefreshInterval = time.Second
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &BlocksModel{
		store:           config.Store,
		themes:          config.Themes,
		blocks:          config.Store.List(),
		now:             config.Now,
		refreshInterval: config.RefreshInterval,
	}
}

// Init initializes the model.
func (m *BlocksModel) Init() tea.Cmd {
	return tea.Batch(
		m.tickCmd(),
		m.refreshCmd(),
	)
}

// Update handles messages and updates the model.
func (m *BlocksModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		if !m.messageExp.IsZero() && m.now().After(m.messageExp) {
			m.message = ""
			m.messageExp = time.Time{}
		}
		return m, m.tickCmd()

	case refreshMsg:
		m.reload()
		return m, nil

	case errMsg:
		m.err = msg.err
		return m, nil
	}

	return m, nil
}

// handleKeyPress handles keyboard input.
func (m *BlocksModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if m.confirming {
		m.confirming = false
		if key == "y" || key == "d" {
			m.deleteSelected()
		} else {
			m.setMessage("Delete cancelled", time.Second)
		}
		return m, nil
	}

	switch key {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.blocks)-1 {
			m.cursor++
		}

	case "d", "delete", "backspace":
		if b := m.Selected(); b != nil {
			m.confirming = true
			m.setMessage(fmt.Sprintf("Delete %q? Press y to confirm", b.DisplayLabel()), 10*time.Second)
		}

	case "t":
		p, err := m.themes.Cycle(context.Background())
		if err != nil {
			m.err = err
		}
		m.setMessage("Theme: "+p.Name, 2*time.Second)

	case "r":
		m.reload()
		if m.err == nil {
			m.setMessage("Reloaded", time.Second)
		}
	}

	return m, nil
}

// Selected returns the block under the cursor.
func (m *BlocksModel) Selected() *model.TimeBlock {
	if m.cursor < 0 || m.cursor >= len(m.blocks) {
		return nil
	}
	return m.blocks[m.cursor]
}

// Blocks returns the blocks currently shown.
func (m *BlocksModel) Blocks() []*model.TimeBlock {
	return m.blocks
}

// Confirming reports whether a delete is waiting for confirmation.
func (m *BlocksModel) Confirming() bool {
	return m.confirming
}

// Err returns the last error shown.
func (m *BlocksModel) Err() error {
	return m.err
}

// Message returns the status message.
func (m *BlocksModel) Message() string {
	return m.message
}

func (m *BlocksModel) deleteSelected() {
	b := m.Selected()
	if b == nil {
		return
	}
	err := m.store.Delete(context.Background(), b.ID)
	m.blocks = m.store.List()
	m.clampCursor()
	m.err = err
	switch {
	case err == nil:
		m.setMessage("Deleted "+b.DisplayLabel(), 2*time.Second)
	case errors.IsStorageError(err):
		m.setMessage("Deleted, but the change was not saved", 3*time.Second)
	}
}

func (m *BlocksModel) reload() {
	_, err := m.store.Load(context.Background())
	m.blocks = m.store.List()
	m.clampCursor()
	m.err = err
}

func (m *BlocksModel) clampCursor() {
	if m.cursor >= len(m.blocks) {
		m.cursor = len(m.blocks) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// View renders the dashboard.
func (m *BlocksModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	p := m.themes.Current()
	s := p.Styles()
	now := m.now()

	var sections []string

	title := s.Title.Render("Time Blocks")
	clock := s.Subtitle.Render(now.Format("Mon Jan 2, 15:04"))
	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", clock)+"\n")

	if m.err != nil {
		sections = append(sections, s.Error.Render(fmt.Sprintf("Error: %v", m.err)))
	}
	if m.message != "" {
		sections = append(sections, s.Warning.Render(m.message))
	}

	next := &NextComponent{Blocks: m.blocks, Now: now, Palette: p, Width: m.width}
	sections = append(sections, next.View())

	list := &BlockListComponent{Blocks: m.blocks, Selected: m.cursor, Now: now, Palette: p, Width: m.width}
	sections = append(sections, list.View())

	sections = append(sections, HelpBar(s, m.confirming))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// setMessage sets a temporary message.
func (m *BlocksModel) setMessage(msg string, duration time.Duration) {
	m.message = msg
	m.messageExp = m.now().Add(duration)
}

// tickCmd returns a command that sends a tick message.
func (m *BlocksModel) tickCmd() tea.Cmd {
	return tea.Tick(m.refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// refreshCmd returns a command that sends a refresh message.
func (m *BlocksModel) refreshCmd() tea.Cmd {
	return func() tea.Msg {
		return refreshMsg{}
	}
}

// Run starts the dashboard TUI.
func Run(config DashboardConfig) error {
	p := tea.NewProgram(NewBlocksModel(config), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
