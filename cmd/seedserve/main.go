// Copyright 2025 The SeedServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the neighborhood seed server and an interactive CLI for debugging.

SeedServe expands every fixed-size word of a query sequence into the set of
words that score at least a threshold against it under a substitution matrix,
the seeding step of BLAST-style search. It can operate as a MessagePack IPC
server for integration with search pipelines, or as a CLI application for
testing and debugging.

# Usage

Start the server with default settings:

	seedserve

Serve DNA words of size 11 with debug logs:

	seedserve -matrix DNA -w 11 -t 30 -d

Run in CLI mode for interactive testing:

	seedserve -c -matrix BLOSUM62 -w 3 -t 11

Matrices other than the built-in BLOSUM62 and DNA are read from the data
directory, one file per matrix in NCBI text layout (.txt, .mat or no
extension) or TOML (.toml), and resolved by file name.

# Configuration

Runtime configuration is managed through a TOML file:

	[search]
	matrix = "BLOSUM62"
	alphabet = "ACDEFGHIKLMNPQRSTVWY"
	word_size = 3
	threshold = 11
	threads = 0

	[server]
	max_query_len = 10000
	max_word_size = 6
	cache_entries = 32

	[cli]
	default_limit = 10
	color = true

The config file is automatically created with defaults if it doesn't exist.
SEEDSERVE_MATRIX, SEEDSERVE_ALPHABET, SEEDSERVE_WORD_SIZE, SEEDSERVE_THRESHOLD,
SEEDSERVE_THREADS and SEEDSERVE_DATA override it, and may be set in a .env file.
Flags override both.

# Command Line Flags

	-version  Show current version
	-d        Enable debug mode with detailed logging
	-c        Run in CLI mode instead of server mode
	-config   Path to a config file
	-data     Directory containing matrix files
	-matrix   Substitution matrix name
	-alphabet Restrict the matrix to these symbols
	-w        Word size
	-t        Neighborhood score threshold
	-threads  Worker goroutines (0 for all CPUs)

See package server for the IPC protocol.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bastiangx/seedserve/internal/cli"
	"github.com/bastiangx/seedserve/internal/logger"
	"github.com/bastiangx/seedserve/internal/utils"
	"github.com/bastiangx/seedserve/pkg/config"
	"github.com/bastiangx/seedserve/pkg/matrix"
	"github.com/bastiangx/seedserve/pkg/neighborhood"
	"github.com/bastiangx/seedserve/pkg/server"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

const (
	Version = "0.3.0-beta"
	AppName = "seedserve"
	gh      = "https://github.com/bastiangx/seedserve"
)

// sigHandler is a simple handler for OS signals to exit normally.
func sigHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(0)
	}()
}

// main wires config, matrices and the engine into the server or the CLI.
// main() does not implement logic for them and only manages the flow.
func main() {
	sigHandler()
	_ = godotenv.Load()
	defaults := config.DefaultConfig()

	showVersion := flag.Bool("version", false, "Show current version")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	cliMode := flag.Bool("c", false, "Run CLI -- useful for testing and debugging")
	configFile := flag.String("config", "", "Path to config file (default: user config dir)")
	dataDir := flag.String("data", "", "Directory containing matrix files")
	matrixName := flag.String("matrix", defaults.Search.Matrix, "Substitution matrix")
	alphabet := flag.String("alphabet", defaults.Search.Alphabet, "Restrict the matrix to these symbols")
	wordSize := flag.Int("w", defaults.Search.WordSize, "Word size")
	threshold := flag.Int("t", defaults.Search.Threshold, "Neighborhood score threshold")
	threads := flag.Int("threads", defaults.Search.Threads, "Worker goroutines (0 for all CPUs)")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	logger.Setup(*debugMode)

	cfg, configPath, err := config.LoadConfigWithPriority(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg.ApplyEnv()

	// explicit flags win over file and environment
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["matrix"] {
		cfg.SetMatrix(*matrixName)
	}
	if set["alphabet"] {
		cfg.Search.Alphabet = *alphabet
	}
	if set["w"] {
		cfg.Search.WordSize = *wordSize
	}
	if set["t"] {
		cfg.Search.Threshold = *threshold
	}
	if set["threads"] {
		cfg.Search.Threads = *threads
	}
	if set["data"] {
		cfg.Search.DataDir = *dataDir
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	log.Debugf("Using config file: (%s)", config.GetActiveConfigPath(configPath))

	pathResolver, err := utils.NewPathResolver(AppName)
	if err != nil {
		log.Fatalf("Failed to initialize path resolver: %v", err)
	}
	resolvedDataDir := pathResolver.GetDataDir(cfg.Search.DataDir, matrixExtensions()...)
	log.Debugf("Using data dir at: %s", resolvedDataDir)

	registry := matrix.NewRegistry(resolvedDataDir)

	// CLI would be mainly used for testing and dbg purposes.
	if *cliMode {
		m, err := registry.Resolve(cfg.Search.Matrix, cfg.Search.Alphabet)
		if err != nil {
			log.Fatalf("Failed to load matrix: %v", err)
		}
		engine, err := neighborhood.New(m)
		if err != nil {
			log.Fatalf("Failed to compile matrix %s: %v", m.Name(), err)
		}
		opts := neighborhood.Options{
			WordSize:  cfg.Search.WordSize,
			Threshold: cfg.Search.Threshold,
			Threads:   cfg.Search.EffectiveThreads(),
		}
		log.Debug("Input info:", "matrix", m.Name(), "alphabet", string(engine.Alphabet()),
			"w", opts.WordSize, "t", opts.Threshold, "threads", opts.Threads)

		inputHandler := cli.NewInputHandler(engine, m.Name(), opts, cfg.CLI.DefaultLimit, cfg.CLI.Color)
		if err := inputHandler.Start(context.Background()); err != nil {
			log.Fatalf("CLI error: %v", err)
		}
		return
	}

	log.Debug("spawning IPC")
	srv := server.NewServer(registry, cfg)
	showStartupInfo(resolvedDataDir, cfg)

	if err := srv.Start(context.Background()); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

// matrixExtensions lists the file extensions a data dir may hold matrices under.
func matrixExtensions() []string {
	var exts []string
	for _, info := range matrix.ListSupportedFormats() {
		for _, ext := range info.Extensions {
			if ext != "" {
				exts = append(exts, ext)
			}
		}
	}
	return exts
}

func printVersion() {
	banner := log.NewWithOptions(os.Stderr, log.Options{
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
	banner.SetStyles(styles)

	banner.Print("")
	banner.Print("[ SeedServe ] BLAST word neighborhoods, served fast!")
	banner.Print("", "version", Version)
	banner.Print("")
	banner.Print("use -h or --help to see available options")
	banner.Print("Github Repo", "gh", gh)
}

// showStartupInfo displays some basic info about the init process on stderr.
func showStartupInfo(dataDir string, cfg *config.Config) {
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	println("===========")
	println(" SeedServe ")
	println("===========")
	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", os.Getpid())
	log.Infof("matrix: %s  w=%d  t=%d  threads=%d",
		cfg.Search.Matrix, cfg.Search.WordSize, cfg.Search.Threshold, cfg.Search.EffectiveThreads())
	log.Infof("data dir: ( %s )", dataDir)
	log.Info("status: ready")
	println("===========")
	println("Press Ctrl+C to exit")

	log.SetLevel(currentLevel)
}
