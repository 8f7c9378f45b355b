// Package episode runs batches of arena episodes and reports their outcomes.
package episode

import (
	"time"

	"github.com/amalg/bomberarena/internal/game"
)

// Outcome is the result of one episode.
type Outcome struct {
	RunID        string        `json:"run_id"`
	Episode      int           `json:"episode"`
	Seed         int64         `json:"seed"`
	Ticks        int           `json:"ticks"`
	Finished     bool          `json:"finished"`
	Draw         bool          `json:"draw"`
	WinningTeam  int           `json:"winning_team"`
	WinningAgent int           `json:"winning_agent"`
	Winners      []int         `json:"winners"`
	Alive        int           `json:"alive"`
	Duration     time.Duration `json:"duration_ns"`
}

// TimedOut reports whether the episode hit the tick limit before finishing.
func (o Outcome) TimedOut() bool { return !o.Finished }

func newOutcome(runID string, episode int, seed int64, s *game.State, elapsed time.Duration) Outcome {
	o := Outcome{
		RunID:        runID,
		Episode:      episode,
		Seed:         seed,
		Ticks:        s.Tick,
		Finished:     s.Finished,
		Draw:         s.IsDraw,
		WinningTeam:  s.WinningTeam,
		WinningAgent: s.WinningAgent,
		Winners:      []int{},
		Alive:        s.AliveAgents,
		Duration:     elapsed,
	}
	for i, a := range s.Agents {
		if a.Won {
			o.Winners = append(o.Winners, i)
		}
	}
	return o
}

// RunInfo describes a batch before its first episode starts.
type RunInfo struct {
	ID       string      `json:"id"`
	Started  time.Time   `json:"started"`
	Episodes int         `json:"episodes"`
	MaxTicks int         `json:"max_ticks"`
	Config   game.Config `json:"config"`
	Policies []string    `json:"policies"`
}

// Sink receives outcomes as episodes complete. Record is called from a single
// goroutine, in completion order.
type Sink interface {
	Begin(info RunInfo) error
	Record(o Outcome) error
	Close() error
}

// Summary aggregates the outcomes of a run.
type Summary struct {
	RunID      string
	Episodes   int // Episodes that completed, finished or timed out
	Finished   int
	Draws      int
	Timeouts   int
	AgentWins  []int       // Indexed by agent id
	TeamWins   map[int]int // Keyed by team id
	TotalTicks int
	Elapsed    time.Duration
}

func newSummary(runID string, agents int) Summary {
	return Summary{
		RunID:     runID,
		AgentWins: make([]int, agents),
		TeamWins:  make(map[int]int),
	}
}

// Add folds one outcome into the summary.
func (s *Summary) Add(o Outcome) {
	s.Episodes++
	s.TotalTicks += o.Ticks
	switch {
	case !o.Finished:
		s.Timeouts++
		return
	case o.Draw:
		s.Finished++
		s.Draws++
		return
	}
	s.Finished++
	if o.WinningTeam != 0 {
		s.TeamWins[o.WinningTeam]++
	}
	for _, id := range o.Winners {
		if id < len(s.AgentWins) {
			s.AgentWins[id]++
		}
	}
}

// TicksPerSecond returns the simulation throughput of the run.
func (s Summary) TicksPerSecond() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.TotalTicks) / s.Elapsed.Seconds()
}
