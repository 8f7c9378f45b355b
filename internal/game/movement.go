package game

// moveAgents resolves one directional move per agent into a conflict-free set
// of committed moves.
//
// Destinations that collide or swap are vetoed for both agents. An agent whose
// destination is another live agent's current cell depends on that agent and
// commits only after it; if the agent ahead stays, the dependent collapses to
// staying as well. Agents caught in a pure cycle are never reached from a root
// and stay where they are.
func (s *State) moveAgents(moves []Move) {
	sc := &s.scratch
	dest := sc.dest
	dependent := sc.dependent
	roots := sc.roots[:0]

	for i := range s.Agents {
		a := &s.Agents[i]
		dest[i] = a.Pos
		dependent[i] = -1
		sc.moved[i] = false
		if a.Dead || !moves[i].IsDirectional() {
			continue
		}
		d := DesiredPosition(a.Pos, moves[i])
		if s.blocksAgent(i, d) {
			continue
		}
		dest[i] = d
	}

	s.fixDestinations(dest)

	for i := range s.Agents {
		if s.Agents[i].Dead {
			roots = append(roots, i)
			continue
		}
		root := true
		for j := range s.Agents {
			if i == j || s.Agents[j].Dead {
				continue
			}
			if dest[i] == s.Agents[j].Pos {
				dependent[j] = i
				root = false
				break
			}
		}
		if root {
			roots = append(roots, i)
		}
	}
	sc.roots = roots

	for _, r := range roots {
		for cur := r; cur != -1; cur = dependent[cur] {
			if s.commitAgent(cur, dest[cur], moves[cur]) {
				continue
			}
			if next := dependent[cur]; next != -1 {
				dest[next] = s.Agents[next].Pos
			}
		}
	}
}

// blocksAgent reports whether the static contents of d veto agent id moving
// there. Other agents are not considered; they are resolved by dependency.
func (s *State) blocksAgent(id int, d Position) bool {
	if !s.Board.InBounds(d) {
		return true
	}
	switch s.Board.At(d) {
	case ItemRigid, ItemWood, ItemFlame:
		return true
	}
	if s.BombAt(d) >= 0 && !s.Agents[id].CanKick {
		return true
	}
	return false
}

// fixDestinations sends both agents of every colliding or swapping pair back
// to their current cell.
func (s *State) fixDestinations(dest []Position) {
	n := len(s.Agents)
	var fix [MaxAgents]bool
	for i := 0; i < n; i++ {
		if s.Agents[i].Dead {
			continue
		}
		for j := i + 1; j < n; j++ {
			if s.Agents[j].Dead {
				continue
			}
			swap := dest[i] == s.Agents[j].Pos && dest[j] == s.Agents[i].Pos
			if dest[i] == dest[j] || swap {
				fix[i] = true
				fix[j] = true
			}
		}
	}
	for i := 0; i < n; i++ {
		if fix[i] {
			dest[i] = s.Agents[i].Pos
		}
	}
}

// commitAgent moves agent id onto d if the cell is still free. Moving onto a
// bomb kicks it in the direction of the move. It reports whether the agent
// moved.
func (s *State) commitAgent(id int, d Position, move Move) bool {
	a := &s.Agents[id]
	if a.Dead || d == a.Pos {
		return false
	}
	c := s.Board.Cell(d)
	if c.Item.IsAgent() {
		return false
	}
	if bi := s.BombAt(d); bi >= 0 {
		if !a.CanKick {
			return false
		}
		s.Bombs[bi].Dir = move.Direction()
		s.Bombs[bi].Kicker = id
	}
	if c.Item.IsPowerup() {
		s.scratch.pickups = append(s.scratch.pickups, pickup{agent: id, pos: d, item: c.Item})
	}
	s.vacate(a.Pos)
	c.Item = AgentItem(id)
	a.Pos = d
	s.scratch.moved[id] = true
	return true
}

// bounceBack walks agent id back to the cell it left this tick. Whatever moved
// onto that cell in the meantime is walked back as well, continuing until a
// cell is reached that nothing else moved onto. Each entity moves back at most
// once, so the walk is bounded by the number of agents and bombs.
func (s *State) bounceBack(id int, moves []Move) {
	limit := len(s.Agents) + len(s.Bombs)
	for step := 0; id >= 0 && step <= limit; step++ {
		a := &s.Agents[id]
		if !s.scratch.moved[id] {
			return
		}
		origin := OriginPosition(a.Pos, moves[id])
		if !s.Board.InBounds(origin) {
			return
		}

		next := -1
		occupant := s.Board.At(origin)
		if other := occupant.AgentID(); other >= 0 && s.scratch.moved[other] {
			next = other
		} else if bi := s.movedBombAt(origin); bi >= 0 {
			b := &s.Bombs[bi]
			from := OriginPosition(b.Pos, b.Dir.Move())
			b.Pos = from
			b.Dir = DirIdle
			b.Moved = false
			if o := s.Board.At(from).AgentID(); o >= 0 {
				next = o
			} else {
				s.Board.Set(from, ItemBomb)
			}
		}

		// A previous step may already have claimed this agent's cell.
		if s.Board.At(a.Pos) == AgentItem(id) {
			s.vacate(a.Pos)
		}
		a.Pos = origin
		s.Board.Set(origin, AgentItem(id))
		s.scratch.moved[id] = false
		id = next
	}
}
