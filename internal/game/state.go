package game

// Cell is one square of the board.
type Cell struct {
	Item   Item `json:"item"`
	Hidden Item `json:"hidden,omitempty"` // Powerup revealed when the covering wood burns out

	// slot is the flame queue slot of the flame burning here. Only valid
	// while Item == ItemFlame.
	slot int
}

// Board is a square grid of cells stored row-major.
type Board struct {
	Size  int    `json:"size"`
	Cells []Cell `json:"cells"`
}

// NewBoard returns an empty size x size board.
func NewBoard(size int) Board {
	return Board{Size: size, Cells: make([]Cell, size*size)}
}

// InBounds reports whether p is on the board.
func (b *Board) InBounds(p Position) bool { return !IsOutOfBounds(p, b.Size) }

// At returns the item at p. Off-board positions read as rigid.
func (b *Board) At(p Position) Item {
	if !b.InBounds(p) {
		return ItemRigid
	}
	return b.Cells[p.Y*b.Size+p.X].Item
}

// Set stores it at p.
func (b *Board) Set(p Position, it Item) {
	b.Cells[p.Y*b.Size+p.X].Item = it
}

// Cell returns the cell at p. p must be on the board.
func (b *Board) Cell(p Position) *Cell {
	return &b.Cells[p.Y*b.Size+p.X]
}

// State is everything that changes between ticks. It is exclusively owned by
// whoever steps it; independent states share nothing.
type State struct {
	Config Config     `json:"config"`
	Board  Board      `json:"board"`
	Agents []Agent    `json:"agents"`
	Bombs  []Bomb     `json:"bombs"` // Sorted by ascending fuse
	Flames FlameQueue `json:"flames"`

	Tick         int  `json:"tick"`
	Finished     bool `json:"finished"`
	IsDraw       bool `json:"is_draw"`
	WinningTeam  int  `json:"winning_team"`
	WinningAgent int  `json:"winning_agent"` // -1 if no single agent won
	AliveAgents  int  `json:"alive_agents"`

	scratch scratch
}

// scratch holds per-tick buffers reused across ticks to keep Step allocation free.
type scratch struct {
	moves     []Move
	dest      []Position
	dependent []int
	roots     []int
	moved     []bool
	bombDest  []Position
	bombStop  []bool
	pickups   []pickup
	blast     []Position
}

type pickup struct {
	agent int
	pos   Position
	item  Item
}

// newState allocates an empty board with default agents for cfg.
func newState(cfg Config) *State {
	s := &State{
		Config:       cfg,
		Board:        NewBoard(cfg.Size),
		Agents:       make([]Agent, cfg.Agents),
		Bombs:        make([]Bomb, 0, cfg.Agents*4),
		WinningAgent: -1,
		AliveAgents:  cfg.Agents,
	}
	for i := range s.Agents {
		s.Agents[i] = Agent{
			Team:     cfg.TeamOf(i),
			MaxBombs: cfg.MaxBombs,
			Strength: cfg.Strength,
			CanKick:  cfg.CanKick,
		}
	}
	return s
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	c := &State{
		Config:       s.Config,
		Board:        Board{Size: s.Board.Size, Cells: make([]Cell, len(s.Board.Cells))},
		Agents:       make([]Agent, len(s.Agents)),
		Bombs:        make([]Bomb, len(s.Bombs)),
		Flames:       s.Flames.clone(),
		Tick:         s.Tick,
		Finished:     s.Finished,
		IsDraw:       s.IsDraw,
		WinningTeam:  s.WinningTeam,
		WinningAgent: s.WinningAgent,
		AliveAgents:  s.AliveAgents,
	}
	c.Config.Teams = append([]int(nil), s.Config.Teams...)
	copy(c.Board.Cells, s.Board.Cells)
	copy(c.Agents, s.Agents)
	copy(c.Bombs, s.Bombs)
	return c
}

// AgentAt returns the id of the live agent standing on p, or -1.
func (s *State) AgentAt(p Position) int {
	if !s.Board.InBounds(p) {
		return -1
	}
	return s.Board.At(p).AgentID()
}

// BombAt returns the index in s.Bombs of the bomb at p, or -1.
func (s *State) BombAt(p Position) int {
	for i := range s.Bombs {
		if s.Bombs[i].Pos == p {
			return i
		}
	}
	return -1
}

// movedBombAt returns the index of a bomb that moved onto p this tick, or -1.
func (s *State) movedBombAt(p Position) int {
	for i := range s.Bombs {
		if s.Bombs[i].Moved && s.Bombs[i].Pos == p {
			return i
		}
	}
	return -1
}

// vacate clears an agent from p, leaving behind a bomb if one sits there.
func (s *State) vacate(p Position) {
	if s.BombAt(p) >= 0 {
		s.Board.Set(p, ItemBomb)
		return
	}
	s.Board.Set(p, ItemPassage)
}

// kill marks an agent dead. Dead agents keep their last position but are no
// longer drawn on the board.
func (s *State) kill(id int) {
	a := &s.Agents[id]
	if a.Dead {
		return
	}
	a.Dead = true
	a.Won = false
	if s.Board.At(a.Pos) == AgentItem(id) {
		s.vacate(a.Pos)
	}
}

// Kill marks agent id dead and removes it from the board.
func (s *State) Kill(id int) {
	if id < 0 || id >= len(s.Agents) {
		return
	}
	s.kill(id)
	s.countAlive()
}

func (s *State) countAlive() {
	alive := 0
	for i := range s.Agents {
		if !s.Agents[i].Dead {
			alive++
		}
	}
	s.AliveAgents = alive
}

// grow resizes the scratch buffers for the current agent and bomb counts.
func (sc *scratch) grow(agents, bombs int) {
	if cap(sc.dest) < agents {
		sc.dest = make([]Position, agents)
		sc.dependent = make([]int, agents)
		sc.roots = make([]int, 0, agents)
		sc.moved = make([]bool, agents)
	}
	sc.dest = sc.dest[:agents]
	sc.dependent = sc.dependent[:agents]
	sc.moved = sc.moved[:agents]
	if cap(sc.bombDest) < bombs {
		sc.bombDest = make([]Position, bombs, bombs*2)
		sc.bombStop = make([]bool, bombs, bombs*2)
	}
	sc.bombDest = sc.bombDest[:bombs]
	sc.bombStop = sc.bombStop[:bombs]
}
