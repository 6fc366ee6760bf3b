package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lazysearch/lazysearch/internal/bootstrap"
	"github.com/lazysearch/lazysearch/internal/config"
	"github.com/lazysearch/lazysearch/internal/tui"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	indexName := flag.String("index", "", "Index to search (defaults to search.default_index)")
	filters := flag.String("filters", "", "Semicolon-separated filter presets cycled with ctrl+f")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration:\n%v\n", err)
		os.Exit(1)
	}

	// The terminal belongs to the UI, so logs only go to the log file.
	log := bootstrap.NewLogger(cfg, io.Discard)
	defer log.Close()

	provider, err := bootstrap.NewProvider(cfg, log.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to configure indexes: %v\n", err)
		os.Exit(1)
	}

	name := *indexName
	if name == "" {
		name = cfg.DefaultIndex()
	}
	if _, ok := provider.Resolve(name); !ok {
		fmt.Fprintf(os.Stderr, "unknown index %q (available: %s)\n", name, strings.Join(provider.Names(), ", "))
		os.Exit(1)
	}

	var presets []string
	for _, f := range strings.Split(*filters, ";") {
		if f = strings.TrimSpace(f); f != "" {
			presets = append(presets, f)
		}
	}

	model := tui.New(provider, tui.Config{
		Index:         name,
		Delay:         cfg.Search.Delay,
		HitsPerPage:   cfg.Search.HitsPerPage,
		PingTimeout:   cfg.Search.PingTimeout,
		FilterPresets: presets,
		StaleResults:  cfg.Search.StaleResults,
	}, log.Logger)
	defer model.Close()

	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		log.Error().Err(err).Msg("terminal UI failed")
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
