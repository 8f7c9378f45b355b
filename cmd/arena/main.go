package main

import (
	"context"
	"flag"
	"fmt"
	"maps"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"

	"github.com/amalg/bomberarena/internal/config"
	"github.com/amalg/bomberarena/internal/episode"
	"github.com/amalg/bomberarena/internal/episode/store"
)

func main() {
	configPath := flag.String("config", "", "Arena YAML file (default: built-in settings)")
	episodes := flag.Int("episodes", 0, "Number of episodes to play")
	workers := flag.Int("workers", 0, "Episodes played in parallel")
	maxTicks := flag.Int("max-ticks", 0, "Tick limit per episode")
	seed := flag.Int64("seed", 0, "Seed of the first episode")
	policies := flag.String("policies", "", "Comma-separated policy per agent, or one for all")
	sqlitePath := flag.String("sqlite", "", "Write outcomes to this SQLite database")
	jsonlPath := flag.String("jsonl", "", "Append outcomes to this zstd JSONL file")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
	}

	// Flags given on the command line win over the file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "episodes":
			cfg.Run.Episodes = *episodes
		case "workers":
			cfg.Run.Workers = *workers
		case "max-ticks":
			cfg.Run.MaxTicks = *maxTicks
		case "seed":
			cfg.Game.Seed = *seed
		case "policies":
			cfg.Run.Policies = strings.Split(*policies, ",")
		case "sqlite":
			cfg.Output.SQLite = *sqlitePath
		case "jsonl":
			cfg.Output.JSONL = *jsonlPath
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid settings: %v\n", err)
		os.Exit(1)
	}
	if err := config.ConfigureLogging(cfg.LogLevel, cfg.LogFormat); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid logging settings: %v\n", err)
		os.Exit(1)
	}

	sinks, err := openSinks(cfg.Output)
	if err != nil {
		log.WithError(err).Fatal("failed to open outputs")
	}

	// Handle OS signals for clean shutdown; finished episodes are still flushed
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warn("interrupted, stopping run")
		cancel()
	}()

	runner := episode.Runner{
		Config:      cfg.Game,
		Episodes:    cfg.Run.Episodes,
		Workers:     cfg.Run.Workers,
		MaxTicks:    cfg.Run.MaxTicks,
		Policies:    cfg.PolicyFactory(),
		PolicyNames: cfg.PolicyNames(),
		Sinks:       sinks,
	}
	sum, err := runner.Run(ctx)
	printSummary(sum)
	if err != nil {
		log.WithError(err).Error("run failed")
		os.Exit(1)
	}
}

// openSinks opens every configured output. Already opened outputs are closed
// when a later one fails.
func openSinks(out config.Output) ([]episode.Sink, error) {
	var sinks []episode.Sink
	if out.SQLite != "" {
		db, err := store.OpenSQLite(out.SQLite)
		if err != nil {
			return nil, fmt.Errorf("sqlite %s: %w", out.SQLite, err)
		}
		sinks = append(sinks, db)
	}
	if out.JSONL != "" {
		j, err := store.OpenJSONL(out.JSONL)
		if err != nil {
			for _, s := range sinks {
				_ = s.Close()
			}
			return nil, fmt.Errorf("jsonl %s: %w", out.JSONL, err)
		}
		sinks = append(sinks, j)
	}
	return sinks, nil
}

func printSummary(sum episode.Summary) {
	if sum.Episodes == 0 {
		fmt.Println("No episodes completed.")
		return
	}
	fmt.Printf("💣 Run %s\n", sum.RunID)
	fmt.Printf("  episodes  %s (%s finished, %s draws, %s timed out)\n",
		humanize.Comma(int64(sum.Episodes)),
		humanize.Comma(int64(sum.Finished)),
		humanize.Comma(int64(sum.Draws)),
		humanize.Comma(int64(sum.Timeouts)),
	)
	fmt.Printf("  ticks     %s in %s (%s ticks/s)\n",
		humanize.Comma(int64(sum.TotalTicks)),
		sum.Elapsed.Round(time.Millisecond),
		humanize.CommafWithDigits(sum.TicksPerSecond(), 0),
	)
	for id, wins := range sum.AgentWins {
		fmt.Printf("  agent %d   %s wins (%s)\n", id, humanize.Comma(int64(wins)), percent(wins, sum.Episodes))
	}
	for _, team := range slices.Sorted(maps.Keys(sum.TeamWins)) {
		wins := sum.TeamWins[team]
		fmt.Printf("  team %d    %s wins (%s)\n", team, humanize.Comma(int64(wins)), percent(wins, sum.Episodes))
	}
}

func percent(n, total int) string {
	return humanize.FtoaWithDigits(100*float64(n)/float64(total), 1) + "%"
}
