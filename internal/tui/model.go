// Package tui renders the dashboard in the terminal with Bubble Tea. The
// model never polls on its own: it follows the store and asks the scheduler
// for a refresh when the user presses r.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tejusbharadwaj/renugrid/internal/dashboard"
)

// Refresher triggers an out-of-band poll.
type Refresher interface {
	Trigger() error
}

// Model is the Bubble Tea model for the power dashboard.
type Model struct {
	state     dashboard.State
	updates   <-chan dashboard.State
	cancel    func()
	refresher Refresher
	loc       *time.Location

	width    int
	height   int
	quitting bool
	notice   string // last refresh problem, cleared by the next update

	spinnerFrame int
}

// stateMsg carries a store snapshot.
type stateMsg dashboard.State

// storeClosedMsg signals that the store will publish nothing more.
type storeClosedMsg struct{}

// spinnerTickMsg signals a spinner animation frame update.
type spinnerTickMsg time.Time

const spinnerInterval = 150 * time.Millisecond

// NewModel subscribes to store. refresher may be nil, which disables the
// refresh key.
func NewModel(store *dashboard.Store, refresher Refresher, loc *time.Location) Model {
	if loc == nil {
		loc = time.Local
	}
	updates, cancel := store.Subscribe(1)
	return Model{
		state:     store.Snapshot(),
		updates:   updates,
		cancel:    cancel,
		refresher: refresher,
		loc:       loc,
	}
}

// Init waits for the first update and starts the spinner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.waitForState(),
		m.spinnerTickCmd(),
	)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case KeyQuit, KeyQuitAlt:
			m.quitting = true
			m.cancel()
			return m, tea.Quit
		case KeyRefresh:
			if m.refresher == nil {
				return m, nil
			}
			if err := m.refresher.Trigger(); err != nil {
				m.notice = "refresh failed: " + err.Error()
			} else {
				m.notice = ""
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case stateMsg:
		m.state = dashboard.State(msg)
		m.notice = ""
		return m, m.waitForState()

	case storeClosedMsg:
		m.quitting = true
		return m, tea.Quit

	case spinnerTickMsg:
		m.spinnerFrame = (m.spinnerFrame + 1) % len(SpinnerFrames)
		return m, m.spinnerTickCmd()
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	return m.renderDashboard()
}

// State returns the snapshot currently shown.
func (m Model) State() dashboard.State { return m.state }

// waitForState blocks on the subscription until the next snapshot.
func (m Model) waitForState() tea.Cmd {
	updates := m.updates
	return func() tea.Msg {
		st, ok := <-updates
		if !ok {
			return storeClosedMsg{}
		}
		return stateMsg(st)
	}
}

// spinnerTickCmd returns a command that sends a spinner tick for animation.
func (m Model) spinnerTickCmd() tea.Cmd {
	return tea.Tick(spinnerInterval, func(t time.Time) tea.Msg {
		return spinnerTickMsg(t)
	})
}
