package agents

import (
	"math/rand"

	"github.com/amalg/bomberarena/internal/game"
)

// Simple is a rule-based policy:
//  1. If its cell is about to burn, run to the nearest cell no blast reaches.
//  2. If wood or an enemy is in range and an escape route exists, plant a bomb.
//  3. Otherwise walk towards the nearest powerup or bombing spot.
//  4. Otherwise wander to a random safe neighbour.
type Simple struct {
	rng *rand.Rand
}

// NewSimple returns a Simple policy drawing tie-breaks from rng.
func NewSimple(rng *rand.Rand) *Simple {
	if rng == nil {
		rng = game.NewRand(1)
	}
	return &Simple{rng: rng}
}

// Act picks the move for agent id.
func (p *Simple) Act(s *game.State, id int) game.Move {
	a := s.Agents[id]
	if a.Dead {
		return game.MoveIdle
	}
	df := newDangerField(s, nil)

	if df.threatened(a.Pos) {
		m, _ := search(s, df, a.Pos, 0, func(q game.Position, _ int) bool {
			return !df.threatened(q)
		})
		return m
	}

	if p.shouldPlant(s, id) {
		return game.MoveBomb
	}

	m, ok := search(s, df, a.Pos, 0, func(q game.Position, _ int) bool {
		if df.threatened(q) {
			return false
		}
		return s.Board.At(q).IsPowerup() || worthBombing(s, id, q)
	})
	if ok {
		return m
	}
	return p.wander(s, df, a.Pos)
}

// shouldPlant reports whether planting now hits something and leaves a way out.
func (p *Simple) shouldPlant(s *game.State, id int) bool {
	a := s.Agents[id]
	if a.BombCount >= a.MaxBombs || s.BombAt(a.Pos) >= 0 || !worthBombing(s, id, a.Pos) {
		return false
	}
	planted := &game.Bomb{Owner: id, Pos: a.Pos, Fuse: s.Config.BombLifetime, Strength: a.Strength}
	df := newDangerField(s, planted)
	_, ok := search(s, df, a.Pos, 1, func(q game.Position, _ int) bool {
		return !df.threatened(q)
	})
	return ok
}

// worthBombing reports whether a bomb of agent id placed at pos would hit
// wood or an enemy.
func worthBombing(s *game.State, id int, pos game.Position) bool {
	me := s.Agents[id]
	for _, q := range blastCells(s, pos, me.Strength) {
		it := s.Board.At(q)
		if it == game.ItemWood {
			return true
		}
		if other := it.AgentID(); other >= 0 && other != id {
			o := s.Agents[other]
			if me.Team == 0 || o.Team != me.Team {
				return true
			}
		}
	}
	return false
}

func (p *Simple) wander(s *game.State, df *dangerField, from game.Position) game.Move {
	var options [4]game.Move
	n := 0
	for _, m := range directions {
		q := game.DesiredPosition(from, m)
		if walkable(s, q) && !df.threatened(q) {
			options[n] = m
			n++
		}
	}
	if n == 0 {
		return game.MoveIdle
	}
	return options[p.rng.Intn(n)]
}
