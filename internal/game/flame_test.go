package game

import (
	"math/rand"
	"testing"
)

func emptyArena(t *testing.T, size int) *State {
	t.Helper()
	rows := make([]string, size)
	for y := range rows {
		row := make([]byte, size)
		for x := range row {
			row[x] = '.'
		}
		rows[y] = string(row)
	}
	rows[0] = "0" + rows[0][1:]
	rows[size-1] = rows[size-1][:size-1] + "1"
	return mustLayout(t, layoutConfig(2), rows...)
}

// checkFlameQueue verifies that every queued flame sits on a burning cell that
// points back at it, and that deltas are never negative.
func checkFlameQueue(t *testing.T, s *State) {
	t.Helper()
	burning := 0
	for _, c := range s.Board.Cells {
		if c.Item == ItemFlame {
			burning++
		}
	}
	if burning != s.Flames.Len() {
		t.Fatalf("%d burning cells but %d queued flames", burning, s.Flames.Len())
	}
	for i := 0; i < s.Flames.Len(); i++ {
		f := s.Flames.At(i)
		if f.TimeLeft < 0 {
			t.Fatalf("flame %d has negative delta %d", i, f.TimeLeft)
		}
		if got := s.FlameAt(f.Pos); got != i {
			t.Fatalf("cell %v maps to flame %d, want %d", f.Pos, got, i)
		}
	}
}

func TestFlameQueueOrdersByExpiry(t *testing.T) {
	s := emptyArena(t, 5)
	a, b, c := Position{X: 1, Y: 1}, Position{X: 2, Y: 1}, Position{X: 3, Y: 3}

	s.SpawnFlames([]Position{a, b}, 5)
	s.tickFlames()
	s.tickFlames()
	s.SpawnFlames([]Position{c}, 2)
	checkFlameQueue(t, s)

	if got := s.FlameAt(c); got != 0 {
		t.Errorf("newest flame expires first but sits at %d", got)
	}
	wantDeltas := []int{2, 1, 0}
	for i, want := range wantDeltas {
		if got := s.Flames.At(i).TimeLeft; got != want {
			t.Errorf("delta %d = %d, want %d", i, got, want)
		}
	}
	if got := s.Flames.Remaining(); got != 3 {
		t.Errorf("remaining = %d, want 3", got)
	}

	s.tickFlames()
	s.tickFlames()
	expectFlame(t, s, c, false)
	expectFlame(t, s, a, true)
	s.tickFlames()
	expectFlame(t, s, a, false)
	expectFlame(t, s, b, false)
	if s.Flames.Len() != 0 {
		t.Errorf("queue should be empty, has %d", s.Flames.Len())
	}
}

func TestOverlappingFlameKeepsLaterExpiry(t *testing.T) {
	s := emptyArena(t, 5)
	p := Position{X: 2, Y: 2}

	s.SpawnFlames([]Position{p}, 5)
	s.tickFlames()
	s.SpawnFlames([]Position{p}, 2)
	if s.Flames.Len() != 1 || s.Flames.Remaining() != 4 {
		t.Fatalf("len %d remaining %d, want 1 and 4", s.Flames.Len(), s.Flames.Remaining())
	}

	s.SpawnFlames([]Position{p}, 9)
	if s.Flames.Remaining() != 9 {
		t.Errorf("remaining = %d, want 9", s.Flames.Remaining())
	}
	checkFlameQueue(t, s)
}

func TestFlameQueueMatchesAbsoluteExpiry(t *testing.T) {
	s := emptyArena(t, 9)
	rng := rand.New(rand.NewSource(7))
	expires := make(map[Position]int)
	now := 0

	for round := 0; round < 200; round++ {
		p := Position{X: rng.Intn(9), Y: rng.Intn(9)}
		if s.Board.At(p) == ItemPassage {
			life := 1 + rng.Intn(8)
			s.SpawnFlames([]Position{p}, life)
			expires[p] = now + life
		}
		checkFlameQueue(t, s)
		for i := 0; i < s.Flames.Len(); i++ {
			f := s.Flames.At(i)
			if got, want := s.Flames.Expiry(i), expires[f.Pos]-now; got != want {
				t.Fatalf("round %d: flame at %v expires in %d, want %d", round, f.Pos, got, want)
			}
		}

		s.tickFlames()
		now++
		for p, at := range expires {
			if burning := s.Board.At(p) == ItemFlame; burning != (at > now) {
				t.Fatalf("round %d: cell %v burning = %v, expiry %d", round, p, burning, at)
			}
		}
	}
}
