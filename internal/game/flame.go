package game

import (
	"cmp"
	"encoding/json"
	"slices"
)

// FlameQueue holds burning cells ordered by absolute expiry. Each entry's
// TimeLeft is relative to the entry before it, so aging the whole queue by one
// tick only touches the head.
type FlameQueue struct {
	items []Flame
	base  int // slot number of items[0]; grows as the head is popped
}

// Len returns the number of burning cells.
func (q *FlameQueue) Len() int { return len(q.items) }

// Peek returns the flame that expires next.
func (q *FlameQueue) Peek() (Flame, bool) {
	if len(q.items) == 0 {
		return Flame{}, false
	}
	return q.items[0], true
}

// At returns the i-th flame in expiry order.
func (q *FlameQueue) At(i int) Flame { return q.items[i] }

// Expiry returns the number of ticks until the i-th flame burns out.
func (q *FlameQueue) Expiry(i int) int {
	t := 0
	for j := 0; j <= i; j++ {
		t += q.items[j].TimeLeft
	}
	return t
}

// Remaining returns the ticks until the last flame burns out.
func (q *FlameQueue) Remaining() int {
	if len(q.items) == 0 {
		return 0
	}
	return q.Expiry(len(q.items) - 1)
}

// index converts a cell's flame slot into an index into items.
func (q *FlameQueue) index(slot int) int { return slot - q.base }

func (q *FlameQueue) pop() Flame {
	f := q.items[0]
	q.items = q.items[1:]
	q.base++
	return f
}

func (q *FlameQueue) clone() FlameQueue {
	return FlameQueue{items: append([]Flame(nil), q.items...), base: q.base}
}

// absolutize rewrites every TimeLeft as ticks from now.
func (q *FlameQueue) absolutize() {
	t := 0
	for i := range q.items {
		t += q.items[i].TimeLeft
		q.items[i].TimeLeft = t
	}
}

// relinearize sorts absolute entries by expiry and turns them back into
// deltas, reporting each entry's new slot. It returns the total time left.
func (q *FlameQueue) relinearize(reslot func(f Flame, slot int)) int {
	slices.SortStableFunc(q.items, func(a, b Flame) int {
		return cmp.Compare(a.TimeLeft, b.TimeLeft)
	})
	prev := 0
	for i := range q.items {
		f := &q.items[i]
		abs := f.TimeLeft
		f.TimeLeft -= prev
		prev = abs
		reslot(*f, q.base+i)
	}
	return prev
}

// MarshalJSON encodes the queue as its flames in expiry order.
func (q FlameQueue) MarshalJSON() ([]byte, error) {
	if q.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(q.items)
}

// tickFlames ages the flame queue by one tick and restores every cell whose
// flame burned out.
func (s *State) tickFlames() {
	q := &s.Flames
	if len(q.items) == 0 {
		return
	}
	q.items[0].TimeLeft--
	for len(q.items) > 0 && q.items[0].TimeLeft <= 0 {
		f := q.pop()
		c := s.Board.Cell(f.Pos)
		c.Item = c.Hidden
		c.Hidden = ItemPassage
	}
}

// SpawnFlames sets every cell in cells on fire for lifetime ticks. A cell
// that is already burning keeps whichever expiry is later. Cell contents are
// not inspected; callers resolve what the fire destroys.
func (s *State) SpawnFlames(cells []Position, lifetime int) {
	q := &s.Flames
	q.absolutize()
	for _, p := range cells {
		c := s.Board.Cell(p)
		if c.Item == ItemFlame {
			f := &q.items[q.index(c.slot)]
			f.TimeLeft = max(f.TimeLeft, lifetime)
			continue
		}
		c.Item = ItemFlame
		c.slot = q.base + len(q.items)
		q.items = append(q.items, Flame{Pos: p, TimeLeft: lifetime})
	}
	s.optimizeFlames()
}

// optimizeFlames re-sorts the queue and rewrites the lookup slot stored in
// every burning cell. The queue must hold absolute expiries on entry.
func (s *State) optimizeFlames() int {
	return s.Flames.relinearize(func(f Flame, slot int) {
		s.Board.Cell(f.Pos).slot = slot
	})
}

// FlameAt returns the queue index of the flame burning at p, or -1.
func (s *State) FlameAt(p Position) int {
	if s.Board.At(p) != ItemFlame {
		return -1
	}
	return s.Flames.index(s.Board.Cell(p).slot)
}
