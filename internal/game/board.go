package game

import (
	"fmt"
	"math/rand"

	"github.com/zyedidia/generic/mapset"
)

var hiddenPowerups = [3]Item{ItemExtraBomb, ItemIncrRange, ItemKick}

// NewRand returns a generator seeded with seed. Each state gets its own
// generator so parallel episodes never share one.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = 1
	}
	return rand.New(rand.NewSource(seed))
}

// NewState generates a fresh arena.
//
// Layout rules:
//   - No wall border; agents start in the four corners, clockwise from top-left
//   - With Pillars set, rigid blocks on every odd/odd cell
//   - Random wood at the configured density, each hiding a powerup with
//     PowerupChance
//   - Spawn corners and the two cells next to them are kept clear
//
// rng may be nil, in which case one is seeded from cfg.Seed.
func NewState(cfg Config, rng *rand.Rand) (*State, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = NewRand(cfg.Seed)
	}

	s := newState(cfg)
	spawns := SpawnPositions(cfg.Size)[:cfg.Agents]
	safe := makeSafeSet(spawns)

	for y := 0; y < cfg.Size; y++ {
		for x := 0; x < cfg.Size; x++ {
			p := Position{X: x, Y: y}
			if cfg.Pillars && x%2 == 1 && y%2 == 1 {
				s.Board.Set(p, ItemRigid)
				continue
			}
			if safe.Has(p) {
				continue
			}
			if rng.Float64() < cfg.WoodDensity {
				c := s.Board.Cell(p)
				c.Item = ItemWood
				if rng.Float64() < cfg.PowerupChance {
					c.Hidden = hiddenPowerups[rng.Intn(len(hiddenPowerups))]
				}
			}
		}
	}

	for i, sp := range spawns {
		s.Agents[i].Pos = sp
		s.Board.Set(sp, AgentItem(i))
	}
	return s, nil
}

// SpawnPositions returns the corner spawn positions for agents 0..3.
func SpawnPositions(size int) []Position {
	return []Position{
		{X: 0, Y: 0},               // Top-left
		{X: size - 1, Y: 0},        // Top-right
		{X: size - 1, Y: size - 1}, // Bottom-right
		{X: 0, Y: size - 1},        // Bottom-left
	}
}

// makeSafeSet returns the cells that must stay clear so every agent can leave
// its corner on the first tick.
func makeSafeSet(spawns []Position) mapset.Set[Position] {
	safe := mapset.New[Position]()
	for _, sp := range spawns {
		safe.Put(sp)
		safe.Put(Position{X: sp.X + 1, Y: sp.Y})
		safe.Put(Position{X: sp.X - 1, Y: sp.Y})
		safe.Put(Position{X: sp.X, Y: sp.Y + 1})
		safe.Put(Position{X: sp.X, Y: sp.Y - 1})
	}
	return safe
}

// NewStateFromLayout builds a state from rows of glyphs, one byte per cell:
//
//	.  passage     #  rigid      w  wood
//	b  bomb        f  flame
//	e  extra bomb  r  range      k  kick
//	0-3 agent
//
// The layout must be square and contain exactly cfg.Agents agents numbered
// from 0. Bombs are owned by nobody (-1) and use the configured lifetime;
// flames use the configured flame lifetime.
func NewStateFromLayout(rows []string, cfg Config) (*State, error) {
	cfg.Size = len(rows)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := newState(cfg)
	seen := make([]bool, cfg.Agents)
	var flames []Position

	for y, row := range rows {
		if len(row) != cfg.Size {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrInvalidConfig, y, len(row), cfg.Size)
		}
		for x := 0; x < len(row); x++ {
			p := Position{X: x, Y: y}
			switch g := row[x]; g {
			case '.':
			case '#':
				s.Board.Set(p, ItemRigid)
			case 'w':
				s.Board.Set(p, ItemWood)
			case 'b':
				s.AddBomb(Bomb{Owner: -1, Pos: p, Fuse: cfg.BombLifetime, Strength: cfg.Strength})
			case 'f':
				flames = append(flames, p)
			case 'e':
				s.Board.Set(p, ItemExtraBomb)
			case 'r':
				s.Board.Set(p, ItemIncrRange)
			case 'k':
				s.Board.Set(p, ItemKick)
			default:
				id := int(g - '0')
				if g < '0' || g > '9' || id >= cfg.Agents {
					return nil, fmt.Errorf("%w: unexpected glyph %q at (%d,%d)", ErrInvalidConfig, g, x, y)
				}
				if seen[id] {
					return nil, fmt.Errorf("%w: agent %d placed twice", ErrInvalidConfig, id)
				}
				seen[id] = true
				s.Agents[id].Pos = p
				s.Board.Set(p, AgentItem(id))
			}
		}
	}
	for id, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("%w: agent %d missing from layout", ErrInvalidConfig, id)
		}
	}
	if len(flames) > 0 {
		s.SpawnFlames(flames, cfg.FlameLifetime)
	}
	return s, nil
}
