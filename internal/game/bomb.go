package game

import (
	"cmp"
	"slices"
)

var blastDirections = [4]Move{MoveUp, MoveDown, MoveLeft, MoveRight}

// PlantBomb places a bomb under agent id. It reports whether a bomb was placed;
// dead agents, agents at their bomb limit and occupied cells are refused.
func (s *State) PlantBomb(id int) bool {
	a := &s.Agents[id]
	if a.Dead || a.BombCount >= a.MaxBombs {
		return false
	}
	if s.BombAt(a.Pos) >= 0 {
		return false
	}
	s.insertBomb(Bomb{
		Owner:    id,
		Pos:      a.Pos,
		Fuse:     s.Config.BombLifetime,
		Strength: a.Strength,
		Kicker:   -1,
	})
	a.BombCount++
	return true
}

// AddBomb puts an existing bomb on the board, used by board setup and tests.
// The owner's bomb count is not changed.
func (s *State) AddBomb(b Bomb) {
	b.Kicker = -1
	b.Moved = false
	s.insertBomb(b)
	if !s.Board.At(b.Pos).IsAgent() {
		s.Board.Set(b.Pos, ItemBomb)
	}
}

// insertBomb keeps s.Bombs sorted by fuse, after any bombs with an equal fuse.
func (s *State) insertBomb(b Bomb) {
	i, _ := slices.BinarySearchFunc(s.Bombs, b.Fuse+1, func(e Bomb, fuse int) int {
		return cmp.Compare(e.Fuse, fuse)
	})
	s.Bombs = slices.Insert(s.Bombs, i, b)
}

func (s *State) plantBombs(moves []Move) {
	for i := range s.Agents {
		if moves[i] == MoveBomb {
			s.PlantBomb(i)
		}
	}
}

func (s *State) resetBombFlags() {
	for i := range s.Bombs {
		s.Bombs[i].Moved = false
		s.Bombs[i].Kicker = -1
	}
}

// bombCanEnter reports whether a sliding bomb may move onto p.
func (s *State) bombCanEnter(p Position) bool {
	return s.Board.InBounds(p) && s.Board.At(p) == ItemPassage
}

// moveBombs advances every sliding bomb by one cell. Agents have already
// committed, so any agent in the way blocks the bomb. Bombs heading for the
// same cell, or into a cell that held a bomb when the tick started, stop.
func (s *State) moveBombs(moves []Move) {
	n := len(s.Bombs)
	dest := s.scratch.bombDest[:n]
	stop := s.scratch.bombStop[:n]

	for i := range s.Bombs {
		b := &s.Bombs[i]
		dest[i] = b.Pos
		stop[i] = false
		if b.Dir == DirIdle {
			continue
		}
		dest[i] = DesiredPosition(b.Pos, b.Dir.Move())
		stop[i] = !s.bombCanEnter(dest[i])
	}

	for i := 0; i < n; i++ {
		if s.Bombs[i].Dir == DirIdle {
			continue
		}
		for j := i + 1; j < n; j++ {
			if s.Bombs[j].Dir != DirIdle && dest[i] == dest[j] {
				stop[i] = true
				stop[j] = true
			}
		}
	}

	for i := range s.Bombs {
		b := &s.Bombs[i]
		if b.Dir == DirIdle {
			continue
		}
		// An agent may have bounced back onto dest since the first pass.
		if stop[i] || !s.bombCanEnter(dest[i]) {
			s.stopBomb(i, moves)
			continue
		}
		if s.Board.At(b.Pos) == ItemBomb {
			s.Board.Set(b.Pos, ItemPassage)
		}
		b.Pos = dest[i]
		b.Moved = true
		s.Board.Set(b.Pos, ItemBomb)
	}
}

// stopBomb cancels the movement of bomb i. If an agent pushed it this tick and
// is standing on it, that agent and everything that followed it bounce back.
func (s *State) stopBomb(i int, moves []Move) {
	b := &s.Bombs[i]
	b.Dir = DirIdle
	k := b.Kicker
	if k >= 0 && s.scratch.moved[k] && s.Agents[k].Pos == b.Pos {
		s.bounceBack(k, moves)
	}
	if !s.Board.At(b.Pos).IsAgent() {
		s.Board.Set(b.Pos, ItemBomb)
	}
}

// tickBombs shortens every fuse and detonates the bombs that ran out. The
// collection is sorted by fuse, so only the front ever needs checking.
func (s *State) tickBombs() {
	for i := range s.Bombs {
		s.Bombs[i].Fuse--
	}
	for len(s.Bombs) > 0 && s.Bombs[0].Fuse <= 0 {
		b := s.Bombs[0]
		s.Bombs = slices.Delete(s.Bombs, 0, 1)
		s.explode(b)
	}
}

// ExplodeBomb detonates the bomb at index i immediately, along with any bombs
// caught in the chain reaction.
func (s *State) ExplodeBomb(i int) {
	s.Bombs[i].Fuse = 0
	s.sortBombs()
	for len(s.Bombs) > 0 && s.Bombs[0].Fuse <= 0 {
		b := s.Bombs[0]
		s.Bombs = slices.Delete(s.Bombs, 0, 1)
		s.explode(b)
	}
	s.countAlive()
}

func (s *State) sortBombs() {
	slices.SortStableFunc(s.Bombs, func(a, b Bomb) int { return cmp.Compare(a.Fuse, b.Fuse) })
}

// explode burns the blast pattern of b. Rays stop before rigid blocks and
// right after wood. Agents caught in the blast die at once; bombs caught in it
// have their fuse cut to zero so the running scan picks them up.
func (s *State) explode(b Bomb) {
	if b.Owner >= 0 && b.Owner < len(s.Agents) && s.Agents[b.Owner].BombCount > 0 {
		s.Agents[b.Owner].BombCount--
	}

	cells := s.scratch.blast[:0]
	chained := false

	burn := func(p Position) {
		c := s.Board.Cell(p)
		if id := c.Item.AgentID(); id >= 0 {
			s.kill(id)
		}
		if c.Item != ItemWood && c.Item != ItemFlame {
			c.Hidden = ItemPassage
		}
		if bi := s.BombAt(p); bi >= 0 && s.Bombs[bi].Fuse > 0 {
			s.Bombs[bi].Fuse = 0
			chained = true
		}
		cells = append(cells, p)
	}

	burn(b.Pos)
	for _, dir := range blastDirections {
		p := b.Pos
		for r := 1; r <= b.Strength; r++ {
			p = DesiredPosition(p, dir)
			if !s.Board.InBounds(p) {
				break
			}
			it := s.Board.At(p)
			if it == ItemRigid {
				break
			}
			burn(p)
			if it == ItemWood {
				break
			}
		}
	}

	s.SpawnFlames(cells, s.Config.FlameLifetime)
	s.scratch.blast = cells[:0]
	if chained {
		s.sortBombs()
	}
}
