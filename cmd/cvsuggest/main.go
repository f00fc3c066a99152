// Copyright 2025 The cvsuggest Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the cvsuggest IPC server and interactive CLI.

cvsuggest serves CV interest and skill suggestions: fuzzy search over a seeded
interest catalog, filtering by category, tags and relevance, CV-based
recommendations, custom interests and selection validation. It runs as a
MessagePack IPC server for embedding in editors and web backends, or as a CLI
that drives a real autocomplete widget for trying things out.

# Usage

Start the IPC server with the embedded seed catalog:

	cvsuggest

Use a custom seed directory and enable debug logging:

	cvsuggest -seeds /path/to/seeds -d

Run the interactive widget over the interest catalog, or over locations:

	cvsuggest -c
	cvsuggest -c -mode location

# Configuration

Runtime configuration lives in a TOML file, created with defaults on first run
under the user config dir:

	[widget]
	min_chars = 2
	debounce_ms = 200

	[catalog]
	seed_dir = ""
	search_limit = 50

	[geocoder]
	url = "https://nominatim.openstreetmap.org/search"

A .env file in the working directory is loaded at startup. CVSUGGEST_GEOCODER_URL
and CVSUGGEST_SESSION_KEY override the file.

# IPC Protocol

Requests and responses are MessagePack maps on stdin/stdout; see package server.

	{"id": "r1", "action": "search", "q": "java", "l": 10}
	{"id": "r1", "status": "ok", "items": [...], "c": 2, "t": 145}

# Command Line Flags

	-config string
	    Path to a config file (default: user config dir)
	-seeds string
	    Directory of seed TOML files (default: embedded seeds)
	-d  Enable debug mode with detailed logging
	-c  Run the interactive CLI instead of the server
	-mode string
	    CLI data source: interests or location (default "interests")
	-rebuild-config
	    Overwrite the default config file with defaults and exit
	-version
	    Show current version
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/bastiangx/cvsuggest/internal/cli"
	"github.com/bastiangx/cvsuggest/internal/logger"
	"github.com/bastiangx/cvsuggest/pkg/cache"
	"github.com/bastiangx/cvsuggest/pkg/catalog"
	"github.com/bastiangx/cvsuggest/pkg/config"
	"github.com/bastiangx/cvsuggest/pkg/server"
	"github.com/bastiangx/cvsuggest/pkg/suggest"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const (
	Version = "0.1.0"
	AppName = "cvsuggest"
	gh      = "https://github.com/bastiangx/cvsuggest"
)

const (
	modeInterests = "interests"
	modeLocation  = "location"
)

// sigHandler cancels ctx on interrupt so the server loop can return.
func sigHandler(cancel context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		cancel()
		os.Exit(0)
	}()
}

// main wires config, catalog and cache into the server or the CLI.
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigHandler(cancel)

	showVersion := flag.Bool("version", false, "Show current version")
	configPath := flag.String("config", "", "Path to a config file")
	seedDir := flag.String("seeds", "", "Directory of seed TOML files (default: embedded seeds)")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	cliMode := flag.Bool("c", false, "Run the interactive CLI")
	mode := flag.String("mode", modeInterests, "CLI data source: interests or location")
	rebuild := flag.Bool("rebuild-config", false, "Rewrite the default config file and exit")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if *debugMode {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
	} else {
		log.SetLevel(log.WarnLevel)
	}

	if *rebuild {
		path, err := config.RebuildConfigFile()
		if err != nil {
			log.Fatalf("Failed to rebuild config: %v", err)
		}
		log.Printf("Wrote default config to %s", path)
		return
	}

	if err := config.LoadEnv(); err != nil {
		log.Warnf("Failed to load .env: %v", err)
	}
	cfg, usedPath := config.LoadConfigWithPriority(*configPath)
	cfg.ApplyEnv()
	log.Debugf("Using config file: (%s)", config.GetActiveConfigPath(usedPath))

	if *seedDir != "" {
		cfg.Catalog.SeedDir = *seedDir
	}
	cat, err := loadCatalog(ctx, cfg.Catalog.SeedDir)
	if err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}
	log.Debugf("Catalog ready with %d items", cat.Len())

	store := cache.NewMemoryStore(cfg.Cache.MaxEntries)

	if *cliMode {
		log.SetReportTimestamp(false)
		runCLI(cfg, cat, store, *mode)
		return
	}

	srv := server.NewServer(cat, store, server.Limits{
		MaxLimit:       cfg.Server.MaxLimit,
		SearchLimit:    cfg.Catalog.SearchLimit,
		RecommendLimit: cfg.Catalog.RecommendLimit,
		CompleteLimit:  cfg.Catalog.CompleteLimit,
		SessionKey:     cfg.Widget.SessionKey,
	}, os.Stdin, os.Stdout, logger.New("server"))

	showStartupInfo(cat, usedPath)
	if err := srv.Start(ctx); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

func loadCatalog(ctx context.Context, seedDir string) (*catalog.Catalog, error) {
	if seedDir == "" {
		return catalog.Default(ctx)
	}
	log.Debugf("Loading seeds from: %s", seedDir)
	return catalog.Load(ctx, catalog.SeedDir(seedDir))
}

func runCLI(cfg *config.Config, cat *catalog.Catalog, store cache.Store, mode string) {
	var h *cli.InputHandler
	acfg := cfg.AutocompleteConfig()
	logs := logger.New("widget")

	switch mode {
	case modeInterests:
		acfg.SessionKey += "/" + modeInterests
		h = cli.NewCatalogHandler(cat, store, acfg, cfg.Catalog.SearchLimit, os.Stdin, os.Stdout, logs)
	case modeLocation:
		var fetcher suggest.Fetcher
		if cfg.Geocoder.URL != "" {
			client := &http.Client{Timeout: cfg.GeocoderTimeout()}
			fetcher = suggest.NewGeocodeFetcher(cfg.Geocoder.URL, cfg.Geocoder.UserAgent, cfg.Geocoder.Limit, client)
		} else {
			log.Debug("No geocoder url configured, using fallback locations")
			fetcher = suggest.NewListFetcher("loc-", cfg.Geocoder.FallbackLocations, cfg.Geocoder.Limit)
		}
		acfg.SessionKey += "/" + modeLocation
		h = cli.NewInputHandler(fetcher, store, acfg, nil, os.Stdin, os.Stdout, logs)
	default:
		log.Fatalf("Unknown mode %q, expected %s or %s", mode, modeInterests, modeLocation)
	}

	log.Debug("Widget config:",
		"minChars", acfg.MinChars,
		"debounce", acfg.Debounce,
		"session", acfg.SessionKey)

	if err := h.Start(); err != nil {
		log.Fatalf("CLI error: %v", err)
	}
}

func printVersion() {
	l := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"}).
		Background(lipgloss.AdaptiveColor{Light: "#f2e9e1", Dark: "#26233a"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	l.SetStyles(styles)

	l.Print("")
	l.Print("[ cvsuggest ] CV interest and skill suggestions")
	l.Print("", "version", Version)
	l.Print("")
	l.Print("use -h or --help to see available options")
	l.Print("Github Repo", "gh", gh)
}

// showStartupInfo writes basic init info to stderr; stdout carries the IPC stream.
func showStartupInfo(cat *catalog.Catalog, configPath string) {
	l := logger.New(AppName)
	l.SetLevel(log.InfoLevel)
	l.Infof("Version: %s", Version)
	l.Infof("Process ID: [ %d ]", os.Getpid())
	l.Infof("catalog: %d items", cat.Len())
	l.Infof("config: ( %s )", config.GetActiveConfigPath(configPath))
	l.Info("status: ready")
}
