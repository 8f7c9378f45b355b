package game

import (
	"fmt"
	"math/rand"
	"testing"
)

// checkInvariants verifies the board and the entity lists agree after a tick.
func checkInvariants(s *State) error {
	seen := make(map[Position]int)
	for i, a := range s.Agents {
		if a.Dead {
			continue
		}
		if j, ok := seen[a.Pos]; ok {
			return fmt.Errorf("agents %d and %d share %v", j, i, a.Pos)
		}
		seen[a.Pos] = i
		if it := s.Board.At(a.Pos); it != AgentItem(i) {
			return fmt.Errorf("agent %d at %v but cell holds %v", i, a.Pos, it)
		}
		owned := 0
		for _, b := range s.Bombs {
			if b.Owner == i {
				owned++
			}
		}
		if owned != a.BombCount || a.BombCount > a.MaxBombs {
			return fmt.Errorf("agent %d: %d bombs owned, count %d, max %d", i, owned, a.BombCount, a.MaxBombs)
		}
	}

	bombs := make(map[Position]bool)
	for i, b := range s.Bombs {
		if bombs[b.Pos] {
			return fmt.Errorf("two bombs at %v", b.Pos)
		}
		bombs[b.Pos] = true
		if b.Fuse <= 0 {
			return fmt.Errorf("bomb %d at %v has fuse %d", i, b.Pos, b.Fuse)
		}
		if i > 0 && s.Bombs[i-1].Fuse > b.Fuse {
			return fmt.Errorf("bombs out of fuse order at %d", i)
		}
		it := s.Board.At(b.Pos)
		if it != ItemBomb && !it.IsAgent() {
			return fmt.Errorf("bomb at %v but cell holds %v", b.Pos, it)
		}
		if it.IsAgent() && b.Moved {
			return fmt.Errorf("bomb moved onto agent%d at %v", it.AgentID(), b.Pos)
		}
	}

	burning := 0
	for i, c := range s.Board.Cells {
		p := Position{X: i % s.Board.Size, Y: i / s.Board.Size}
		switch {
		case c.Item == ItemFlame:
			burning++
		case c.Item == ItemBomb && !bombs[p]:
			return fmt.Errorf("stale bomb marker at %v", p)
		case c.Item.IsAgent():
			id := c.Item.AgentID()
			if id >= len(s.Agents) || s.Agents[id].Dead || s.Agents[id].Pos != p {
				return fmt.Errorf("stale agent%d marker at %v", id, p)
			}
		}
	}
	if burning != s.Flames.Len() {
		return fmt.Errorf("%d burning cells, %d queued flames", burning, s.Flames.Len())
	}
	for i := 0; i < s.Flames.Len(); i++ {
		f := s.Flames.At(i)
		if f.TimeLeft < 0 || s.FlameAt(f.Pos) != i {
			return fmt.Errorf("flame %d at %v is inconsistent", i, f.Pos)
		}
	}
	return nil
}

func TestRandomPlayKeepsInvariants(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		cfg := DefaultConfig()
		cfg.Size = 9
		cfg.CanKick = seed%2 == 0
		cfg.MaxBombs = 2
		cfg.BombLifetime = 5
		cfg.Seed = seed
		s, err := NewState(cfg, nil)
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		rng := rand.New(rand.NewSource(seed))
		moves := make([]Move, cfg.Agents)

		for tick := 0; tick < 300 && !s.Finished; tick++ {
			for i := range moves {
				moves[i] = Move(rng.Intn(int(MoveBomb) + 1))
			}
			s.Step(moves)
			if err := checkInvariants(s); err != nil {
				t.Fatalf("seed %d tick %d: %v", seed, s.Tick, err)
			}
		}
	}
}

func TestStepIsDeterministic(t *testing.T) {
	run := func() *State {
		cfg := DefaultConfig()
		cfg.CanKick = true
		s, err := NewState(cfg, nil)
		if err != nil {
			t.Fatalf("NewState: %v", err)
		}
		rng := rand.New(rand.NewSource(42))
		moves := make([]Move, cfg.Agents)
		for tick := 0; tick < 200 && !s.Finished; tick++ {
			for i := range moves {
				moves[i] = Move(rng.Intn(int(MoveBomb) + 1))
			}
			s.Step(moves)
		}
		return s
	}
	a, b := run(), run()
	if a.Tick != b.Tick || a.Finished != b.Finished || a.AliveAgents != b.AliveAgents {
		t.Fatalf("runs diverged: tick %d/%d alive %d/%d", a.Tick, b.Tick, a.AliveAgents, b.AliveAgents)
	}
	for i := range a.Board.Cells {
		if a.Board.Cells[i] != b.Board.Cells[i] {
			t.Fatalf("runs diverged at cell %d", i)
		}
	}
}

func BenchmarkStep(b *testing.B) {
	cfg := DefaultConfig()
	cfg.CanKick = true
	rng := rand.New(rand.NewSource(1))
	moves := make([]Move, cfg.Agents)
	s, _ := NewState(cfg, nil)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if s.Finished {
			s, _ = NewState(cfg, nil)
		}
		for j := range moves {
			moves[j] = Move(rng.Intn(int(MoveBomb) + 1))
		}
		s.Step(moves)
	}
}
