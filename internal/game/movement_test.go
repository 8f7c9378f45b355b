package game

import (
	"testing"
)

// layoutConfig returns a config for hand-built layouts with kick enabled and
// long fuses so bombs do not go off mid-test.
func layoutConfig(agents int) Config {
	cfg := DefaultConfig()
	cfg.Agents = agents
	cfg.CanKick = true
	cfg.Strength = 1
	return cfg
}

func mustLayout(t *testing.T, cfg Config, rows ...string) *State {
	t.Helper()
	s, err := NewStateFromLayout(rows, cfg)
	if err != nil {
		t.Fatalf("NewStateFromLayout: %v", err)
	}
	return s
}

func expectAgentAt(t *testing.T, s *State, id int, want Position) {
	t.Helper()
	got := s.Agents[id].Pos
	if got != want {
		t.Errorf("agent %d at (%d,%d), want (%d,%d)", id, got.X, got.Y, want.X, want.Y)
	}
	if it := s.Board.At(want); it != AgentItem(id) {
		t.Errorf("cell (%d,%d) holds %v, want agent%d", want.X, want.Y, it, id)
	}
}

func TestDesiredAndOriginPosition(t *testing.T) {
	origin := Position{X: 3, Y: 3}
	tests := []struct {
		move Move
		want Position
	}{
		{MoveIdle, Position{X: 3, Y: 3}},
		{MoveBomb, Position{X: 3, Y: 3}},
		{MoveUp, Position{X: 3, Y: 2}},
		{MoveDown, Position{X: 3, Y: 4}},
		{MoveLeft, Position{X: 2, Y: 3}},
		{MoveRight, Position{X: 4, Y: 3}},
	}
	for _, tt := range tests {
		got := DesiredPosition(origin, tt.move)
		if got != tt.want {
			t.Errorf("DesiredPosition(%v) = %v, want %v", tt.move, got, tt.want)
		}
		if back := OriginPosition(got, tt.move); back != origin {
			t.Errorf("OriginPosition(%v, %v) = %v, want %v", got, tt.move, back, origin)
		}
	}
}

func TestIsOutOfBounds(t *testing.T) {
	for _, p := range []Position{{X: -1, Y: 0}, {X: 0, Y: -1}, {X: 5, Y: 0}, {X: 0, Y: 5}} {
		if !IsOutOfBounds(p, 5) {
			t.Errorf("(%d,%d) should be out of bounds on a 5x5 board", p.X, p.Y)
		}
	}
	if IsOutOfBounds(Position{X: 4, Y: 4}, 5) {
		t.Error("(4,4) should be on a 5x5 board")
	}
	if got := DesiredPosition(Position{}, MoveUp); !IsOutOfBounds(got, 5) {
		t.Errorf("moving up from the top row should leave the board, got %v", got)
	}
}

func TestSwapIsVetoed(t *testing.T) {
	s := mustLayout(t, layoutConfig(2),
		"01.",
		"...",
		"...",
	)
	s.Step([]Move{MoveRight, MoveLeft})

	expectAgentAt(t, s, 0, Position{X: 0, Y: 0})
	expectAgentAt(t, s, 1, Position{X: 1, Y: 0})
}

func TestSameDestinationIsVetoed(t *testing.T) {
	s := mustLayout(t, layoutConfig(2),
		"0.1",
		"...",
		"...",
	)
	s.Step([]Move{MoveRight, MoveLeft})

	expectAgentAt(t, s, 0, Position{X: 0, Y: 0})
	expectAgentAt(t, s, 1, Position{X: 2, Y: 0})
	if it := s.Board.At(Position{X: 1, Y: 0}); it != ItemPassage {
		t.Errorf("contested cell should stay empty, got %v", it)
	}
}

func TestChainCommitsInOneTick(t *testing.T) {
	s := mustLayout(t, layoutConfig(3),
		"012.",
		"....",
		"....",
		"....",
	)
	s.Step([]Move{MoveRight, MoveRight, MoveRight})

	expectAgentAt(t, s, 0, Position{X: 1, Y: 0})
	expectAgentAt(t, s, 1, Position{X: 2, Y: 0})
	expectAgentAt(t, s, 2, Position{X: 3, Y: 0})
	if it := s.Board.At(Position{X: 0, Y: 0}); it != ItemPassage {
		t.Errorf("tail cell should be vacated, got %v", it)
	}
}

func TestChainCollapsesBehindBlockedHead(t *testing.T) {
	s := mustLayout(t, layoutConfig(3),
		"012#",
		"....",
		"....",
		"....",
	)
	s.Step([]Move{MoveRight, MoveRight, MoveRight})

	expectAgentAt(t, s, 0, Position{X: 0, Y: 0})
	expectAgentAt(t, s, 1, Position{X: 1, Y: 0})
	expectAgentAt(t, s, 2, Position{X: 2, Y: 0})
}

func TestChainCollapsesBehindIdleAgent(t *testing.T) {
	s := mustLayout(t, layoutConfig(3),
		"012.",
		"....",
		"....",
		"....",
	)
	s.Step([]Move{MoveRight, MoveRight, MoveIdle})

	expectAgentAt(t, s, 0, Position{X: 0, Y: 0})
	expectAgentAt(t, s, 1, Position{X: 1, Y: 0})
	expectAgentAt(t, s, 2, Position{X: 2, Y: 0})
}

func TestRotationCycleStaysPut(t *testing.T) {
	s := mustLayout(t, layoutConfig(4),
		"01.",
		"32.",
		"...",
	)
	s.Step([]Move{MoveRight, MoveDown, MoveLeft, MoveUp})

	expectAgentAt(t, s, 0, Position{X: 0, Y: 0})
	expectAgentAt(t, s, 1, Position{X: 1, Y: 0})
	expectAgentAt(t, s, 2, Position{X: 1, Y: 1})
	expectAgentAt(t, s, 3, Position{X: 0, Y: 1})
}

func TestStaticObstaclesVetoMoves(t *testing.T) {
	tests := []struct {
		name string
		rows []string
		move Move
	}{
		{"rigid", []string{"0#.", "...", "..1"}, MoveRight},
		{"wood", []string{"0w.", "...", "..1"}, MoveRight},
		{"flame", []string{"0f.", "...", "..1"}, MoveRight},
		{"board edge", []string{"0..", "...", "..1"}, MoveUp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mustLayout(t, layoutConfig(2), tt.rows...)
			s.Step([]Move{tt.move, MoveIdle})
			expectAgentAt(t, s, 0, Position{X: 0, Y: 0})
		})
	}
}

func TestBombWithoutKickVetoesMove(t *testing.T) {
	cfg := layoutConfig(2)
	cfg.CanKick = false
	s := mustLayout(t, cfg,
		"0b.",
		"...",
		"..1",
	)
	s.Step([]Move{MoveRight, MoveIdle})

	expectAgentAt(t, s, 0, Position{X: 0, Y: 0})
	if b := s.Bombs[0]; b.Pos != (Position{X: 1, Y: 0}) || b.Dir != DirIdle {
		t.Errorf("bomb should not move, got pos %v dir %v", b.Pos, b.Dir)
	}
}

func TestDeadAgentNeverMoves(t *testing.T) {
	s := mustLayout(t, layoutConfig(3),
		"01.",
		"...",
		"..2",
	)
	s.Kill(1)
	s.Step([]Move{MoveRight, MoveRight, MoveIdle})

	if got := s.Agents[1].Pos; got != (Position{X: 1, Y: 0}) {
		t.Errorf("dead agent moved to %v", got)
	}
	// The dead agent no longer occupies its cell, so agent 0 can step in.
	expectAgentAt(t, s, 0, Position{X: 1, Y: 0})
}

func TestUnknownMoveCountsAsIdle(t *testing.T) {
	s := mustLayout(t, layoutConfig(2),
		"0..",
		"...",
		"..1",
	)
	s.Step([]Move{Move(42)})

	expectAgentAt(t, s, 0, Position{X: 0, Y: 0})
	expectAgentAt(t, s, 1, Position{X: 2, Y: 2})
	if s.Tick != 1 {
		t.Errorf("tick = %d, want 1", s.Tick)
	}
}

func TestValidateMoves(t *testing.T) {
	if err := ValidateMoves([]Move{MoveIdle, MoveBomb}, 2); err != nil {
		t.Errorf("valid moves rejected: %v", err)
	}
	if err := ValidateMoves([]Move{MoveIdle}, 2); err == nil {
		t.Error("short move list should be rejected")
	}
	if err := ValidateMoves([]Move{MoveIdle, Move(-1)}, 2); err == nil {
		t.Error("out-of-range move should be rejected")
	}
}
