// Package agents provides built-in policies for driving arena agents.
package agents

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/amalg/bomberarena/internal/game"
)

// ErrUnknownPolicy is returned by New for names it does not recognize.
var ErrUnknownPolicy = errors.New("unknown policy")

// Names lists the built-in policies accepted by New.
var Names = []string{"idle", "random", "simple"}

// New returns the policy called name. Policies that need randomness draw
// from rng, so a policy must not be shared between concurrently running
// episodes.
func New(name string, rng *rand.Rand) (game.Policy, error) {
	switch strings.ToLower(name) {
	case "idle":
		return Idle{}, nil
	case "random":
		return NewRandom(rng), nil
	case "simple":
		return NewSimple(rng), nil
	}
	return nil, fmt.Errorf("%w %q (want one of %s)", ErrUnknownPolicy, name, strings.Join(Names, ", "))
}

// Idle never moves.
type Idle struct{}

// Act always returns MoveIdle.
func (Idle) Act(*game.State, int) game.Move { return game.MoveIdle }

// Random picks a uniformly random move every tick, bombs included.
type Random struct {
	rng *rand.Rand
}

// NewRandom returns a Random policy drawing from rng.
func NewRandom(rng *rand.Rand) *Random {
	if rng == nil {
		rng = game.NewRand(1)
	}
	return &Random{rng: rng}
}

// Act returns a random move.
func (r *Random) Act(*game.State, int) game.Move {
	return game.Move(r.rng.Intn(int(game.MoveBomb) + 1))
}
