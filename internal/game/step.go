package game

// Step advances the state by one tick. moves[i] is the move of agent i; missing
// entries and unknown codes count as MoveIdle. Step never fails: illegal moves
// resolve to staying in place.
//
// Order within a tick: flames decay, bombs are planted, agents commit their
// moves, sliding bombs advance (bouncing back their kickers when blocked),
// pickups apply, fuses burn down and explosions fire, and finally the terminal
// state is evaluated.
func (s *State) Step(moves []Move) {
	n := len(s.Agents)
	// Every agent may plant one bomb this tick.
	s.scratch.grow(n, len(s.Bombs)+n)
	s.scratch.pickups = s.scratch.pickups[:0]
	m := s.normalizeMoves(moves)

	s.Tick++
	s.resetBombFlags()
	s.tickFlames()
	s.plantBombs(m)
	s.moveAgents(m)
	s.moveBombs(m)
	s.applyPickups()
	s.tickBombs()
	s.countAlive()
	s.CheckTerminalState()
}

// normalizeMoves copies moves into a buffer of exactly one valid move per agent.
func (s *State) normalizeMoves(moves []Move) []Move {
	n := len(s.Agents)
	if cap(s.scratch.moves) < n {
		s.scratch.moves = make([]Move, n)
	}
	m := s.scratch.moves[:n]
	for i := range m {
		m[i] = MoveIdle
		if i < len(moves) && moves[i].Valid() {
			m[i] = moves[i]
		}
	}
	return m
}
