package ui

import (
	"math/rand"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/amalg/bomberarena/internal/game"
)

func idlePolicies(int, *rand.Rand) (game.Policy, error) {
	return game.PolicyFunc(func(*game.State, int) game.Move { return game.MoveIdle }), nil
}

func pausedModel(t *testing.T) Model {
	t.Helper()
	cfg := game.DefaultConfig()
	cfg.Size = 7
	m, err := NewModel(Options{
		Config:      cfg,
		Policies:    idlePolicies,
		TickRate:    1000,
		StartPaused: true,
	})
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	t.Cleanup(m.Stop)
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return nm, cmd
}

func TestGlyphWidth(t *testing.T) {
	items := []game.Item{
		game.ItemPassage, game.ItemRigid, game.ItemWood, game.ItemBomb, game.ItemFlame,
		game.ItemExtraBomb, game.ItemIncrRange, game.ItemKick, game.AgentItem(0), game.AgentItem(3),
	}
	seen := map[string]bool{}
	for _, it := range items {
		g := Glyph(it)
		if n := len([]rune(g)); n != 2 {
			t.Errorf("Glyph(%v) = %q has %d runes", it, g, n)
		}
		if seen[g] {
			t.Errorf("Glyph(%v) = %q is not unique", it, g)
		}
		seen[g] = true
	}
}

func TestRenderBoardRows(t *testing.T) {
	cfg := game.DefaultConfig()
	cfg.Agents = 2
	s, err := game.NewStateFromLayout([]string{
		"0.#",
		".w.",
		"b.1",
	}, cfg)
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	out := RenderBoard(s)
	if n := len(strings.Split(out, "\n")); n != 3 {
		t.Errorf("rendered %d rows, want 3", n)
	}
	for _, want := range []string{"A0", "A1", "()", "▒▒", "██"} {
		if !strings.Contains(out, want) {
			t.Errorf("board missing %q:\n%s", want, out)
		}
	}
	if got := RenderBoard(nil); got != "Waiting for arena..." {
		t.Errorf("RenderBoard(nil) = %q", got)
	}
}

func TestStatus(t *testing.T) {
	s := &game.State{WinningAgent: -1}
	if got := Status(s, false); got != "RUNNING" {
		t.Errorf("running status = %q", got)
	}
	if got := Status(s, true); got != "PAUSED" {
		t.Errorf("paused status = %q", got)
	}
	s.Finished, s.WinningAgent = true, 2
	if got := Status(s, true); got != "AGENT 2 WINS" {
		t.Errorf("agent win status = %q", got)
	}
	s.WinningAgent, s.WinningTeam = -1, 1
	if got := Status(s, false); got != "TEAM 1 WINS" {
		t.Errorf("team win status = %q", got)
	}
	s.WinningTeam, s.IsDraw = 0, true
	if got := Status(s, false); got != "DRAW: no agent survived" {
		t.Errorf("draw status = %q", got)
	}
}

func TestNewModelRejectsOptions(t *testing.T) {
	if _, err := NewModel(Options{Config: game.DefaultConfig(), TickRate: 1}); err == nil {
		t.Error("missing policies accepted")
	}
	if _, err := NewModel(Options{Config: game.DefaultConfig(), Policies: idlePolicies}); err == nil {
		t.Error("zero tick rate accepted")
	}
	bad := game.DefaultConfig()
	bad.Agents = 7
	if _, err := NewModel(Options{Config: bad, Policies: idlePolicies, TickRate: 1}); err == nil {
		t.Error("invalid arena accepted")
	}
}

func TestStepKeyAdvancesOneTick(t *testing.T) {
	m := pausedModel(t)
	if m.State().Tick != 0 {
		t.Fatalf("initial tick = %d", m.State().Tick)
	}

	m, _ = update(t, m, runes("n"))
	msg := waitForState(m.updates)()
	m, cmd := update(t, m, msg)
	if m.State().Tick != 1 {
		t.Errorf("tick after step = %d, want 1", m.State().Tick)
	}
	if cmd == nil {
		t.Error("state update did not resubscribe")
	}
	if !strings.Contains(m.View(), "PAUSED") {
		t.Error("view does not show the paused engine")
	}
}

func TestPauseToggle(t *testing.T) {
	m := pausedModel(t)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeySpace})
	if m.engine.Paused() {
		t.Error("space did not resume")
	}
	m, _ = update(t, m, runes("p"))
	if !m.engine.Paused() {
		t.Error("p did not pause")
	}
}

func TestRestartUsesNextSeed(t *testing.T) {
	m := pausedModel(t)
	seed := m.State().Config.Seed

	m, _ = update(t, m, runes("r"))
	t.Cleanup(m.Stop)
	if m.Episode() != 1 {
		t.Errorf("episode = %d, want 1", m.Episode())
	}
	if got := m.State().Config.Seed; got != seed+1 {
		t.Errorf("seed = %d, want %d", got, seed+1)
	}

	// Frames from the previous episode are ignored.
	stale := stateUpdateMsg{episode: 0, state: game.State{Tick: 42}}
	m, _ = update(t, m, stale)
	if m.State().Tick != 0 {
		t.Errorf("stale frame applied: tick %d", m.State().Tick)
	}
}

func TestQuit(t *testing.T) {
	m := pausedModel(t)
	m, cmd := update(t, m, runes("q"))
	if cmd == nil || !m.quitting {
		t.Fatal("q did not quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("quit command did not return QuitMsg")
	}
}

func TestPublishDropsOldest(t *testing.T) {
	ch := make(chan frame, 1)
	publish(ch, frame{state: game.State{Tick: 1}})
	publish(ch, frame{state: game.State{Tick: 2}})
	if got := (<-ch).state.Tick; got != 2 {
		t.Errorf("kept tick %d, want 2", got)
	}
}
