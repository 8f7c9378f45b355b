// Package ui is a terminal viewer that plays episodes live.
package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	log "github.com/sirupsen/logrus"

	"github.com/amalg/bomberarena/internal/episode"
	"github.com/amalg/bomberarena/internal/game"
)

// Options configures the viewer.
type Options struct {
	Config      game.Config
	Policies    episode.PolicyFactory
	TickRate    int           // Ticks per second
	StartPaused bool          // Wait for Space or N before the first tick
	AutoRestart time.Duration // Delay before the next seed starts, 0 to stay on the result
}

// frame is one state published by the engine of a given episode.
type frame struct {
	episode int
	state   game.State
}

// stateUpdateMsg carries a new state from the running engine.
type stateUpdateMsg frame

// runDoneMsg reports that the engine loop of an episode returned.
type runDoneMsg struct {
	episode int
	err     error
}

// restartMsg asks for the next seed after an episode ended.
type restartMsg struct{ episode int }

// Model is the Bubbletea model for the arena viewer.
type Model struct {
	opts    Options
	episode int
	engine  *game.Engine
	state   *game.State
	updates chan frame
	done    chan runDoneMsg
	cancel  context.CancelFunc

	err      error
	quitting bool
}

// NewModel sets up the first episode and starts its engine loop.
func NewModel(opts Options) (Model, error) {
	if opts.Policies == nil {
		return Model{}, fmt.Errorf("%w: no policy factory", game.ErrInvalidConfig)
	}
	if opts.TickRate <= 0 {
		return Model{}, fmt.Errorf("%w: tick rate %d must be positive", game.ErrInvalidConfig, opts.TickRate)
	}
	m := Model{
		opts:    opts,
		updates: make(chan frame, 1),
		done:    make(chan runDoneMsg, 4),
	}
	if err := m.start(); err != nil {
		return Model{}, err
	}
	return m, nil
}

// Stop cancels the running engine loop.
func (m Model) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
}

// State returns the last state received from the engine.
func (m Model) State() *game.State { return m.state }

// Episode returns the number of the episode on screen.
func (m Model) Episode() int { return m.episode }

// Err returns the error that ended the viewer, if any.
func (m Model) Err() error { return m.err }

// start builds the engine for the current episode and runs it in the background.
func (m *Model) start() error {
	cfg := m.opts.Config
	cfg.Seed = m.opts.Config.Seed + int64(m.episode)

	e, err := episode.Setup(cfg, m.opts.Policies)
	if err != nil {
		return err
	}
	if m.opts.StartPaused {
		e.SetPaused(true)
	}

	ep, updates := m.episode, m.updates
	e.OnTick(func(s game.State) {
		publish(updates, frame{episode: ep, state: s})
	})

	initial := e.GetStateCopy()
	m.engine = e
	m.state = &initial

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	done, rate := m.done, m.opts.TickRate
	go func() {
		err := e.Run(ctx, rate)
		done <- runDoneMsg{episode: ep, err: err}
	}()

	log.WithFields(log.Fields{"episode": ep, "seed": cfg.Seed}).Info("viewer episode started")
	return nil
}

// publish stores f, dropping the oldest pending frame if the viewer is behind.
func publish(ch chan frame, f frame) {
	for {
		select {
		case ch <- f:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// Init starts listening for engine updates.
func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForState(m.updates), waitForDone(m.done))
}

// Update handles incoming messages (key presses, state updates).
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case stateUpdateMsg:
		if msg.episode == m.episode {
			s := msg.state
			m.state = &s
		}
		return m, waitForState(m.updates)

	case runDoneMsg:
		next := waitForDone(m.done)
		if msg.episode != m.episode {
			return m, next
		}
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
			m.err = msg.err
			m.Stop()
			return m, tea.Quit
		}
		if msg.err == nil && m.opts.AutoRestart > 0 {
			ep := m.episode
			return m, tea.Batch(next, tea.Tick(m.opts.AutoRestart, func(time.Time) tea.Msg {
				return restartMsg{episode: ep}
			}))
		}
		return m, next

	case restartMsg:
		if msg.episode != m.episode {
			return m, nil
		}
		return m.restart()
	}

	return m, nil
}

// View renders the current state.
func (m Model) View() string {
	if m.quitting {
		return "Goodbye! 👋\n"
	}

	if m.err != nil {
		return lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff4444")).
			Render("Error: "+m.err.Error()) + "\n"
	}

	paused := m.engine != nil && m.engine.Paused()
	board := RenderBoard(m.state)
	hud := RenderHUD(m.state, m.episode, paused)

	// Layout: board on the left, HUD on the right
	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		board,
		"  ",
		hud,
	) + "\n"
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		m.Stop()
		return m, tea.Quit

	case " ", "space", "p":
		m.engine.SetPaused(!m.engine.Paused())

	case "n":
		if !m.engine.Paused() {
			m.engine.SetPaused(true)
		}
		if err := m.engine.Step(); err != nil && !errors.Is(err, game.ErrFinished) {
			m.err = err
			m.Stop()
			return m, tea.Quit
		}

	case "r":
		return m.restart()
	}

	return m, nil
}

// restart stops the current episode and starts the next seed.
func (m Model) restart() (tea.Model, tea.Cmd) {
	m.Stop()
	m.episode++
	if err := m.start(); err != nil {
		m.err = err
		return m, tea.Quit
	}
	return m, nil
}

// waitForState returns a Cmd that waits for the next state from the engine.
func waitForState(updates chan frame) tea.Cmd {
	return func() tea.Msg {
		return stateUpdateMsg(<-updates)
	}
}

// waitForDone returns a Cmd that waits for an engine loop to return.
func waitForDone(done chan runDoneMsg) tea.Cmd {
	return func() tea.Msg {
		return <-done
	}
}
