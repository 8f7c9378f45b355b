package agents

import (
	"math"

	"github.com/amalg/bomberarena/internal/game"
)

const noDanger = math.MaxInt32

var directions = [4]game.Move{game.MoveUp, game.MoveDown, game.MoveLeft, game.MoveRight}

// dangerField records, per cell, the number of ticks until it is hit by a
// blast. Chain reactions are propagated, so a bomb caught by an earlier blast
// counts with the earlier time.
type dangerField struct {
	size int
	at   []int
}

// newDangerField builds the field for the bombs on the board plus extra, a
// bomb the caller is thinking of planting.
func newDangerField(s *game.State, extra *game.Bomb) *dangerField {
	bombs := s.Bombs
	if extra != nil {
		bombs = append(append([]game.Bomb(nil), s.Bombs...), *extra)
	}

	fuse := make([]int, len(bombs))
	blasts := make([][]game.Position, len(bombs))
	for i, b := range bombs {
		fuse[i] = b.Fuse
		blasts[i] = blastCells(s, b.Pos, b.Strength)
	}

	// Propagate chain explosions until stable.
	for changed := true; changed; {
		changed = false
		for i := range bombs {
			for _, p := range blasts[i] {
				for j := range bombs {
					if j != i && bombs[j].Pos == p && fuse[j] > fuse[i] {
						fuse[j] = fuse[i]
						changed = true
					}
				}
			}
		}
	}

	df := &dangerField{size: s.Board.Size, at: make([]int, len(s.Board.Cells))}
	for i := range df.at {
		df.at[i] = noDanger
	}
	for i := range bombs {
		for _, p := range blasts[i] {
			df.at[df.index(p)] = min(df.at[df.index(p)], fuse[i])
		}
	}
	for i := 0; i < s.Flames.Len(); i++ {
		df.at[df.index(s.Flames.At(i).Pos)] = 0
	}
	return df
}

func (df *dangerField) index(p game.Position) int { return p.Y*df.size + p.X }

// when returns the ticks until p is hit, or noDanger.
func (df *dangerField) when(p game.Position) int {
	if game.IsOutOfBounds(p, df.size) {
		return 0
	}
	return df.at[df.index(p)]
}

func (df *dangerField) threatened(p game.Position) bool { return df.when(p) != noDanger }

// blastCells returns the cells a bomb at origin would burn, following the same
// rules as an explosion: rays stop before rigid blocks and right after wood.
func blastCells(s *game.State, origin game.Position, strength int) []game.Position {
	cells := []game.Position{origin}
	for _, dir := range directions {
		p := origin
		for r := 1; r <= strength; r++ {
			p = game.DesiredPosition(p, dir)
			it := s.Board.At(p)
			if !s.Board.InBounds(p) || it == game.ItemRigid {
				break
			}
			cells = append(cells, p)
			if it == game.ItemWood {
				break
			}
		}
	}
	return cells
}

// walkable reports whether an agent can step onto p without kicking.
func walkable(s *game.State, p game.Position) bool {
	if !s.Board.InBounds(p) {
		return false
	}
	it := s.Board.At(p)
	return it == game.ItemPassage || it.IsPowerup()
}

type step struct {
	pos   game.Position
	first game.Move
	dist  int
}

// search runs a breadth-first search from start over walkable cells and
// returns the first move towards the nearest cell accepted by goal. delay is
// the number of ticks before the first move is taken; a cell may only be
// crossed if it will not burn while the agent is on it.
func search(s *game.State, df *dangerField, start game.Position, delay int, goal func(p game.Position, dist int) bool) (game.Move, bool) {
	visited := make([]bool, len(s.Board.Cells))
	visited[df.index(start)] = true
	queue := []step{{pos: start, first: game.MoveIdle}}

	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if n.dist > 0 && goal(n.pos, n.dist) {
			return n.first, true
		}
		for _, m := range directions {
			p := game.DesiredPosition(n.pos, m)
			if !walkable(s, p) || visited[df.index(p)] {
				continue
			}
			arrive := n.dist + 1 + delay
			if df.when(p) <= arrive {
				continue
			}
			visited[df.index(p)] = true
			first := n.first
			if n.dist == 0 {
				first = m
			}
			queue = append(queue, step{pos: p, first: first, dist: n.dist + 1})
		}
	}
	return game.MoveIdle, false
}
