// Package config loads arena run files.
package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"slices"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/amalg/bomberarena/internal/agents"
	"github.com/amalg/bomberarena/internal/episode"
	"github.com/amalg/bomberarena/internal/game"
)

// ErrInvalid is returned when a run file is malformed or out of range.
var ErrInvalid = errors.New("invalid run config")

//go:embed arena.schema.json
var schemaJSON string

var schema = jsonschema.MustCompileString("arena.schema.json", schemaJSON)

// File is the content of an arena YAML file.
type File struct {
	Game      game.Config `yaml:"game"`
	Run       Run         `yaml:"run"`
	Output    Output      `yaml:"output"`
	LogLevel  string      `yaml:"log_level"`
	LogFormat string      `yaml:"log_format"` // text or json
}

// Run holds the batch runner and viewer settings.
type Run struct {
	Episodes int      `yaml:"episodes"`
	Workers  int      `yaml:"workers"`
	MaxTicks int      `yaml:"max_ticks"` // Episodes still running after this many ticks time out
	TickRate int      `yaml:"tick_rate"` // Viewer ticks per second
	Policies []string `yaml:"policies"`  // One per agent, or a single name for all
}

// Output lists where episode outcomes are written. Empty paths are skipped.
type Output struct {
	SQLite string `yaml:"sqlite"`
	JSONL  string `yaml:"jsonl"`
}

// Default returns the settings used when no file is given.
func Default() File {
	return File{
		Game: game.DefaultConfig(),
		Run: Run{
			Episodes: 100,
			Workers:  4,
			MaxTicks: 800,
			TickRate: 8,
			Policies: []string{"simple"},
		},
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load reads and validates the file at path.
func Load(path string) (File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return File{}, err
	}
	f, err := Parse(raw)
	if err != nil {
		return File{}, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes raw YAML over the defaults. The document is checked against
// the embedded schema before decoding, so unknown keys are rejected.
func Parse(raw []byte) (File, error) {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return File{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if doc != nil {
		if err := validateSchema(doc); err != nil {
			return File{}, err
		}
	}

	f := Default()
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return File{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := f.Validate(); err != nil {
		return File{}, err
	}
	return f, nil
}

// validateSchema round-trips the YAML document through JSON so the schema
// sees plain JSON types.
func validateSchema(doc any) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Validate checks cross-field constraints the schema cannot express.
func (f File) Validate() error {
	if err := f.Game.Validate(); err != nil {
		return err
	}
	switch {
	case f.Run.Episodes < 1:
		return fmt.Errorf("%w: episodes %d must be positive", ErrInvalid, f.Run.Episodes)
	case f.Run.Workers < 1:
		return fmt.Errorf("%w: workers %d must be positive", ErrInvalid, f.Run.Workers)
	case f.Run.MaxTicks < 1:
		return fmt.Errorf("%w: max ticks %d must be positive", ErrInvalid, f.Run.MaxTicks)
	case f.Run.TickRate < 1:
		return fmt.Errorf("%w: tick rate %d must be positive", ErrInvalid, f.Run.TickRate)
	}
	if n := len(f.Run.Policies); n > 1 && n != f.Game.Agents {
		return fmt.Errorf("%w: %d policies for %d agents", ErrInvalid, n, f.Game.Agents)
	}
	for _, p := range f.Run.Policies {
		if !slices.Contains(agents.Names, strings.ToLower(p)) {
			return fmt.Errorf("%w: %w %q", ErrInvalid, agents.ErrUnknownPolicy, p)
		}
	}
	return nil
}

// PolicyFor returns the policy name configured for agent id.
func (f File) PolicyFor(id int) string {
	switch len(f.Run.Policies) {
	case 0:
		return "simple"
	case 1:
		return f.Run.Policies[0]
	}
	return f.Run.Policies[id]
}

// PolicyFactory builds the configured policy of each agent.
func (f File) PolicyFactory() episode.PolicyFactory {
	return func(id int, rng *rand.Rand) (game.Policy, error) {
		return agents.New(f.PolicyFor(id), rng)
	}
}

// PolicyNames returns the policy name of every agent.
func (f File) PolicyNames() []string {
	names := make([]string, f.Game.Agents)
	for i := range names {
		names[i] = strings.ToLower(f.PolicyFor(i))
	}
	return names
}

// ConfigureLogging applies the level and format to the standard logrus logger.
func ConfigureLogging(level, format string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	log.SetLevel(lvl)

	switch format {
	case "", "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalid, format)
	}
	return nil
}
