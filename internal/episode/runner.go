package episode

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/amalg/bomberarena/internal/game"
)

// PolicyFactory builds the policy for one agent of one episode. rng is owned
// by the episode and may be kept by the policy.
type PolicyFactory func(agent int, rng *rand.Rand) (game.Policy, error)

// Runner plays Episodes independent episodes across Workers goroutines.
// Episode i is seeded with Config.Seed+i, so a run is reproducible regardless
// of scheduling.
type Runner struct {
	Config      game.Config
	Episodes    int
	Workers     int
	MaxTicks    int
	Policies    PolicyFactory
	PolicyNames []string // Recorded in RunInfo only
	Sinks       []Sink
}

// Run plays all episodes, feeding outcomes to the sinks as they complete.
// When ctx is canceled, running episodes stop between ticks, are not
// recorded, and Run returns the partial summary with ctx.Err().
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	if err := r.validate(); err != nil {
		return Summary{}, err
	}

	info := RunInfo{
		ID:       uuid.New().String(),
		Started:  time.Now(),
		Episodes: r.Episodes,
		MaxTicks: r.MaxTicks,
		Config:   r.Config,
		Policies: r.PolicyNames,
	}
	logger := log.WithField("run", info.ID)
	for i, s := range r.Sinks {
		if err := s.Begin(info); err != nil {
			for _, open := range r.Sinks[:i] {
				_ = open.Close()
			}
			return Summary{}, fmt.Errorf("begin run: %w", err)
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		firstErr error
		errOnce  sync.Once
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	jobs := make(chan int)
	results := make(chan Outcome, r.Workers)
	var wg sync.WaitGroup
	for w := 0; w < r.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				o, err := r.play(ctx, info.ID, i)
				if err != nil {
					if ctx.Err() == nil {
						fail(fmt.Errorf("episode %d: %w", i, err))
					}
					continue
				}
				results <- o
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := 0; i < r.Episodes; i++ {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	sum := newSummary(info.ID, r.Config.Agents)
	for o := range results {
		sum.Add(o)
		logger.WithFields(log.Fields{
			"episode":  o.Episode,
			"ticks":    o.Ticks,
			"finished": o.Finished,
			"draw":     o.Draw,
			"winners":  o.Winners,
		}).Debug("episode done")
		for _, s := range r.Sinks {
			if err := s.Record(o); err != nil {
				logger.WithError(err).Warn("failed to record episode")
			}
		}
	}
	sum.Elapsed = time.Since(info.Started)

	var closeErr error
	for _, s := range r.Sinks {
		closeErr = errors.Join(closeErr, s.Close())
	}

	logger.WithFields(log.Fields{
		"episodes": sum.Episodes,
		"draws":    sum.Draws,
		"timeouts": sum.Timeouts,
		"ticks":    sum.TotalTicks,
		"elapsed":  sum.Elapsed.Round(time.Millisecond),
	}).Info("run complete")

	switch {
	case firstErr != nil:
		return sum, errors.Join(firstErr, closeErr)
	case ctx.Err() != nil && sum.Episodes < r.Episodes:
		return sum, errors.Join(ctx.Err(), closeErr)
	}
	return sum, closeErr
}

func (r *Runner) validate() error {
	if err := r.Config.Validate(); err != nil {
		return err
	}
	switch {
	case r.Episodes < 1:
		return fmt.Errorf("%w: episodes %d must be positive", game.ErrInvalidConfig, r.Episodes)
	case r.Workers < 1:
		return fmt.Errorf("%w: workers %d must be positive", game.ErrInvalidConfig, r.Workers)
	case r.MaxTicks < 1:
		return fmt.Errorf("%w: max ticks %d must be positive", game.ErrInvalidConfig, r.MaxTicks)
	case r.Policies == nil:
		return fmt.Errorf("%w: no policy factory", game.ErrInvalidConfig)
	}
	return nil
}

// Setup builds the state and engine of one episode. The board and every
// policy draw from a single generator seeded with cfg.Seed.
func Setup(cfg game.Config, policies PolicyFactory) (*game.Engine, error) {
	rng := game.NewRand(cfg.Seed)
	s, err := game.NewState(cfg, rng)
	if err != nil {
		return nil, err
	}
	ps := make([]game.Policy, cfg.Agents)
	for a := range ps {
		if ps[a], err = policies(a, rng); err != nil {
			return nil, fmt.Errorf("agent %d: %w", a, err)
		}
	}
	return game.NewEngine(s, ps)
}

// play runs episode i to completion or until the tick limit.
func (r *Runner) play(ctx context.Context, runID string, i int) (Outcome, error) {
	start := time.Now()
	cfg := r.Config
	cfg.Seed = r.Config.Seed + int64(i)

	e, err := Setup(cfg, r.Policies)
	if err != nil {
		return Outcome{}, err
	}
	s := e.State
	for !s.Finished && s.Tick < r.MaxTicks {
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}
		if err := e.Step(); err != nil {
			return Outcome{}, err
		}
	}
	return newOutcome(runID, i, cfg.Seed, s, time.Since(start)), nil
}
