// Package store persists episode outcomes.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/amalg/bomberarena/internal/episode"
)

// ErrClosed is returned when writing to a closed store.
var ErrClosed = errors.New("store closed")

const commitEvery = 256

// SQLite writes runs and outcomes to a SQLite database. Writes are queued and
// applied by a single goroutine, so Record never waits on disk.
type SQLite struct {
	db *sql.DB

	ch     chan episode.Outcome
	wg     sync.WaitGroup
	once   sync.Once
	closed atomic.Bool

	mu       sync.Mutex
	writeErr error
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	s := &SQLite{db: db, ch: make(chan episode.Outcome, 1024)}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			episodes INTEGER NOT NULL,
			max_ticks INTEGER NOT NULL,
			seed INTEGER NOT NULL,
			config_json TEXT NOT NULL,
			policies_json TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS episodes (
			run_id TEXT NOT NULL REFERENCES runs(id),
			episode INTEGER NOT NULL,
			seed INTEGER NOT NULL,
			ticks INTEGER NOT NULL,
			finished INTEGER NOT NULL,
			draw INTEGER NOT NULL,
			winning_team INTEGER NOT NULL,
			winning_agent INTEGER NOT NULL,
			winners_json TEXT NOT NULL,
			alive INTEGER NOT NULL,
			duration_ns INTEGER NOT NULL,
			PRIMARY KEY (run_id, episode)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_episodes_winner ON episodes(run_id, winning_agent);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Begin stores the run row. It must be called before the first Record.
func (s *SQLite) Begin(info episode.RunInfo) error {
	cfg, err := json.Marshal(info.Config)
	if err != nil {
		return err
	}
	policies, err := json.Marshal(info.Policies)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO runs(id,started_at,episodes,max_ticks,seed,config_json,policies_json) VALUES(?,?,?,?,?,?,?)`,
		info.ID, info.Started.UTC().Format(time.RFC3339Nano), info.Episodes, info.MaxTicks, info.Config.Seed,
		string(cfg), string(policies),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Record queues o for writing.
func (s *SQLite) Record(o episode.Outcome) error {
	if s.closed.Load() {
		return ErrClosed
	}
	s.ch <- o
	return s.err()
}

// Close flushes queued outcomes and closes the database. It returns the first
// write error, if any.
func (s *SQLite) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = errors.Join(s.err(), s.db.Close())
	})
	return err
}

func (s *SQLite) err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeErr
}

func (s *SQLite) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr == nil {
		s.writeErr = err
	}
}

func (s *SQLite) loop() {
	var (
		tx      *sql.Tx
		pending int
	)
	commit := func() {
		if tx == nil {
			return
		}
		if err := tx.Commit(); err != nil {
			log.WithError(err).Warn("sqlite commit failed")
			s.setErr(err)
		}
		tx = nil
		pending = 0
	}
	defer commit()

	for o := range s.ch {
		if tx == nil {
			var err error
			if tx, err = s.db.Begin(); err != nil {
				log.WithError(err).Warn("sqlite begin failed")
				s.setErr(err)
				continue
			}
		}
		if err := insertOutcome(tx, o); err != nil {
			log.WithError(err).WithField("episode", o.Episode).Warn("sqlite insert failed")
			s.setErr(err)
			continue
		}
		pending++
		if pending >= commitEvery || len(s.ch) == 0 {
			commit()
		}
	}
}

func insertOutcome(tx *sql.Tx, o episode.Outcome) error {
	winners, err := json.Marshal(o.Winners)
	if err != nil {
		return err
	}
	_, err = tx.Exec(
		`INSERT OR REPLACE INTO episodes(run_id,episode,seed,ticks,finished,draw,winning_team,winning_agent,winners_json,alive,duration_ns) VALUES(?,?,?,?,?,?,?,?,?,?,?)`,
		o.RunID, o.Episode, o.Seed, o.Ticks, boolInt(o.Finished), boolInt(o.Draw), o.WinningTeam, o.WinningAgent,
		string(winners), o.Alive, int64(o.Duration),
	)
	return err
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
