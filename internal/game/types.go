package game

import (
	"errors"
	"fmt"
)

// Item is the code stored in a single board cell.
type Item int

const (
	ItemPassage Item = iota
	ItemRigid        // Indestructible
	ItemWood         // Destroyed by blasts
	ItemBomb
	ItemFlame
	ItemExtraBomb
	ItemIncrRange
	ItemKick

	// ItemAgent0 is the code of agent 0; agent N is stored as ItemAgent0+N.
	ItemAgent0 Item = 10
)

// AgentItem returns the cell code for the agent with the given id.
func AgentItem(id int) Item { return ItemAgent0 + Item(id) }

// IsAgent reports whether the item is an agent code.
func (it Item) IsAgent() bool { return it >= ItemAgent0 }

// AgentID returns the agent id encoded in an agent item, or -1.
func (it Item) AgentID() int {
	if !it.IsAgent() {
		return -1
	}
	return int(it - ItemAgent0)
}

// IsPowerup reports whether the item is a collectible powerup.
func (it Item) IsPowerup() bool {
	return it == ItemExtraBomb || it == ItemIncrRange || it == ItemKick
}

func (it Item) String() string {
	switch it {
	case ItemPassage:
		return "passage"
	case ItemRigid:
		return "rigid"
	case ItemWood:
		return "wood"
	case ItemBomb:
		return "bomb"
	case ItemFlame:
		return "flame"
	case ItemExtraBomb:
		return "extra_bomb"
	case ItemIncrRange:
		return "incr_range"
	case ItemKick:
		return "kick"
	}
	if it.IsAgent() {
		return fmt.Sprintf("agent%d", it.AgentID())
	}
	return fmt.Sprintf("item(%d)", int(it))
}

// Move is the action an agent takes in a single tick.
type Move int

const (
	MoveIdle Move = iota
	MoveUp
	MoveDown
	MoveLeft
	MoveRight
	MoveBomb // Place a bomb on the current cell
)

// Valid reports whether m is one of the known moves.
func (m Move) Valid() bool { return m >= MoveIdle && m <= MoveBomb }

// IsDirectional reports whether m moves the agent to another cell.
func (m Move) IsDirectional() bool { return m >= MoveUp && m <= MoveRight }

// Direction returns the travel direction of a directional move, DirIdle otherwise.
func (m Move) Direction() Direction {
	switch m {
	case MoveUp:
		return DirUp
	case MoveDown:
		return DirDown
	case MoveLeft:
		return DirLeft
	case MoveRight:
		return DirRight
	}
	return DirIdle
}

func (m Move) String() string {
	switch m {
	case MoveIdle:
		return "idle"
	case MoveUp:
		return "up"
	case MoveDown:
		return "down"
	case MoveLeft:
		return "left"
	case MoveRight:
		return "right"
	case MoveBomb:
		return "bomb"
	}
	return fmt.Sprintf("move(%d)", int(m))
}

// Direction is the travel direction of a kicked bomb.
type Direction int

const (
	DirIdle Direction = iota
	DirUp
	DirDown
	DirLeft
	DirRight
)

// Move returns the directional move matching d.
func (d Direction) Move() Move {
	switch d {
	case DirUp:
		return MoveUp
	case DirDown:
		return MoveDown
	case DirLeft:
		return MoveLeft
	case DirRight:
		return MoveRight
	}
	return MoveIdle
}

// Position represents a coordinate on the board.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Agent is one participant in the arena. Agents are never removed from the
// state; a dead agent stays in place as an inert entry.
type Agent struct {
	Pos       Position `json:"pos"`
	Dead      bool     `json:"dead"`
	Team      int      `json:"team"`       // 0 means no team
	MaxBombs  int      `json:"max_bombs"`  // Max simultaneous bombs
	BombCount int      `json:"bomb_count"` // Bombs currently on the board
	Strength  int      `json:"strength"`   // Blast reach in cells
	CanKick   bool     `json:"can_kick"`
	Won       bool     `json:"won"`
}

// Bomb is a placed bomb. Strength is copied from the owner at placement.
type Bomb struct {
	Owner    int       `json:"owner"`
	Pos      Position  `json:"pos"`
	Fuse     int       `json:"fuse"` // Ticks until it explodes
	Strength int       `json:"strength"`
	Dir      Direction `json:"dir"`
	Moved    bool      `json:"moved"`  // Moved during the current tick
	Kicker   int       `json:"kicker"` // Agent that pushed it this tick, -1 if none
}

// Flame is a burning cell. TimeLeft is relative to the absolute expiry of the
// previous entry in the flame queue.
type Flame struct {
	Pos      Position `json:"pos"`
	TimeLeft int      `json:"time_left"`
}

// ErrInvalidConfig is returned when a board or agent configuration is rejected.
var ErrInvalidConfig = errors.New("invalid arena config")

// ErrInvalidMove is returned by ValidateMoves for malformed policy output.
var ErrInvalidMove = errors.New("invalid move")

// MaxAgents is the number of spawn corners on the board.
const MaxAgents = 4

// Config holds the parameters of an arena. Board size and agent count are
// fixed for the lifetime of a state.
type Config struct {
	Size          int     `yaml:"size" json:"size"`
	Agents        int     `yaml:"agents" json:"agents"`
	Teams         []int   `yaml:"teams,omitempty" json:"teams,omitempty"` // Team id per agent, 0 = none
	BombLifetime  int     `yaml:"bomb_lifetime" json:"bomb_lifetime"`     // Fuse in ticks
	FlameLifetime int     `yaml:"flame_lifetime" json:"flame_lifetime"`   // Ticks a flame burns
	Strength      int     `yaml:"strength" json:"strength"`               // Initial blast strength
	MaxBombs      int     `yaml:"max_bombs" json:"max_bombs"`             // Initial bomb limit
	CanKick       bool    `yaml:"can_kick" json:"can_kick"`               // Agents start with kick
	WoodDensity   float64 `yaml:"wood_density" json:"wood_density"`       // 0.0 to 1.0
	PowerupChance float64 `yaml:"powerup_chance" json:"powerup_chance"`   // Chance wood hides a powerup
	Pillars       bool    `yaml:"pillars" json:"pillars"`                 // Rigid blocks on odd/odd cells
	Seed          int64   `yaml:"seed" json:"seed"`
}

// DefaultConfig returns the standard four-agent free-for-all arena.
func DefaultConfig() Config {
	return Config{
		Size:          11,
		Agents:        4,
		BombLifetime:  10,
		FlameLifetime: 3,
		Strength:      2,
		MaxBombs:      1,
		WoodDensity:   2.0 / 7.0,
		PowerupChance: 0.5,
		Seed:          0x1337,
	}
}

// Validate rejects configurations the engine cannot run.
func (c Config) Validate() error {
	switch {
	case c.Size < 3:
		return fmt.Errorf("%w: board size %d is below 3", ErrInvalidConfig, c.Size)
	case c.Agents < 1 || c.Agents > MaxAgents:
		return fmt.Errorf("%w: agent count %d outside 1..%d", ErrInvalidConfig, c.Agents, MaxAgents)
	case c.BombLifetime < 1:
		return fmt.Errorf("%w: bomb lifetime %d must be positive", ErrInvalidConfig, c.BombLifetime)
	case c.FlameLifetime < 1:
		return fmt.Errorf("%w: flame lifetime %d must be positive", ErrInvalidConfig, c.FlameLifetime)
	case c.Strength < 1:
		return fmt.Errorf("%w: strength %d must be positive", ErrInvalidConfig, c.Strength)
	case c.MaxBombs < 0:
		return fmt.Errorf("%w: max bombs %d is negative", ErrInvalidConfig, c.MaxBombs)
	case c.WoodDensity < 0 || c.WoodDensity > 1:
		return fmt.Errorf("%w: wood density %v outside [0,1]", ErrInvalidConfig, c.WoodDensity)
	case c.PowerupChance < 0 || c.PowerupChance > 1:
		return fmt.Errorf("%w: powerup chance %v outside [0,1]", ErrInvalidConfig, c.PowerupChance)
	}
	if len(c.Teams) != 0 && len(c.Teams) != c.Agents {
		return fmt.Errorf("%w: %d team entries for %d agents", ErrInvalidConfig, len(c.Teams), c.Agents)
	}
	for i, t := range c.Teams {
		if t < 0 {
			return fmt.Errorf("%w: agent %d has negative team %d", ErrInvalidConfig, i, t)
		}
	}
	return nil
}

// TeamOf returns the configured team of agent id.
func (c Config) TeamOf(id int) int {
	if id < len(c.Teams) {
		return c.Teams[id]
	}
	return 0
}

// ValidateMoves checks that moves holds exactly one known move per agent.
func ValidateMoves(moves []Move, agents int) error {
	if len(moves) != agents {
		return fmt.Errorf("%w: got %d moves for %d agents", ErrInvalidMove, len(moves), agents)
	}
	for i, m := range moves {
		if !m.Valid() {
			return fmt.Errorf("%w: agent %d sent %d", ErrInvalidMove, i, int(m))
		}
	}
	return nil
}
