package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"github.com/amalg/bomberarena/internal/config"
	"github.com/amalg/bomberarena/internal/ui"
)

func main() {
	configPath := flag.String("config", "", "Arena YAML file (default: built-in settings)")
	seed := flag.Int64("seed", 0, "Seed of the first episode")
	tickRate := flag.Int("tick-rate", 0, "Ticks per second")
	policies := flag.String("policies", "", "Comma-separated policy per agent, or one for all")
	paused := flag.Bool("paused", false, "Start paused; press N to step")
	auto := flag.Duration("auto", 0, "Start the next seed this long after an episode ends (0 = off)")
	logFile := flag.String("log", "", "Log file path (default: discard logs)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "seed":
			cfg.Game.Seed = *seed
		case "tick-rate":
			cfg.Run.TickRate = *tickRate
		case "policies":
			cfg.Run.Policies = strings.Split(*policies, ",")
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid settings: %v\n", err)
		os.Exit(1)
	}

	// Redirect log output before the engine starts. Any stderr output will
	// corrupt Bubbletea's terminal rendering.
	if err := config.ConfigureLogging(cfg.LogLevel, cfg.LogFormat); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid logging settings: %v\n", err)
		os.Exit(1)
	}
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		log.SetOutput(f)
	} else {
		log.SetOutput(io.Discard)
	}

	model, err := ui.NewModel(ui.Options{
		Config:      cfg.Game,
		Policies:    cfg.PolicyFactory(),
		TickRate:    cfg.Run.TickRate,
		StartPaused: *paused,
		AutoRestart: *auto,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start arena: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(model, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		model.Stop()
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
	if m, ok := final.(ui.Model); ok {
		// The last model owns the engine of the episode on screen
		m.Stop()
		if m.Err() != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", m.Err())
			os.Exit(1)
		}
	}
}
