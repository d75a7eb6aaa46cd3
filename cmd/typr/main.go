// Copyright 2025 The WordServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the typr completion server and CLI [DBG] application.

Note: This is a BETA release. APIs and functionality may rapidly change.

typr merges completions from several providers: front matter keys and values,
callout types, LaTeX commands, an optional LLM endpoint, words seen in scanned
documents and word list files. It can operate as a MessagePack IPC server for
integration with text editors, or as a CLI application for testing and
debugging.

# Usage

Start the server with default settings:

	typr

Load word lists from a directory, index a notes vault and enable debug mode:

	typr -words /path/to/lists -scan ~/notes -d

Run in CLI mode for interactive testing:

	typr -c -limit 10

# Configuration

Runtime configuration lives in a TOML file that is created with defaults if it
doesn't exist:

	[trigger]
	character_regex = "a-zA-ZöäüÖÄÜß"
	max_look_back_distance = 50
	auto_trigger = true

	[words]
	insertion_mode = "ignore-case-replace"

	[providers]
	llm = false
	word_lists = ["/path/to/en.txt"]

	[llm]
	endpoint = "http://localhost:11434/v1/chat/completions"
	timeout_ms = 5000

Both modes reload the file on change without restart.

# IPC Protocol

The server communicates via MessagePack over stdin/stdout. See package server
for the message shapes.

	{"id": "req1", "text": "the wor"}

	{"id": "req1", "s": [{"d": "word", "r": "word", "k": 1}], "c": 1, "st": {"ln": 0, "ch": 4}, "t": 145}

# Command Line Flags

	-config string
	    Path to the TOML config file
	-words string
	    Directory containing *.txt word lists (default "data/")
	-scan string
	    Directory of markdown/text documents to index
	-d  Enable debug mode with detailed logging
	-c  Run in CLI mode instead of server mode
	-limit int
	    Number of suggestions to show in CLI mode
	-version
	    Show current version

Blacklisted words are kept in blacklist.txt next to the config file.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"

	"github.com/bastiangx/typr/internal/cli"
	"github.com/bastiangx/typr/internal/utils"
	"github.com/bastiangx/typr/pkg/config"
	"github.com/bastiangx/typr/pkg/popup"
	"github.com/bastiangx/typr/pkg/provider"
	"github.com/bastiangx/typr/pkg/server"
	"github.com/bastiangx/typr/pkg/suggest"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const (
	Version = "0.1.0-beta"
	AppName = "typr"
	gh      = "https://github.com/bastiangx/typr"
)

// sigHandler cancels the returned context on the first signal and exits on the second.
func sigHandler() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		cancel()
		<-c
		os.Exit(0)
	}()
	return ctx
}

// main wires the providers and hands them to the server or CLI.
// main() does not implement logic for them and only manages the flow.
func main() {
	ctx := sigHandler()
	defaultConfig := config.DefaultConfig()

	showVersion := flag.Bool("version", false, "Show current version")
	configFile := flag.String("config", "", "Path to the TOML config file")
	wordsDir := flag.String("words", "data/", "Directory containing *.txt word lists")
	scanDir := flag.String("scan", "", "Directory of markdown/text documents to index")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	cliMode := flag.Bool("c", false, "Run CLI -- useful for testing and debugging")
	limit := flag.Int("limit", defaultConfig.CLI.DefaultLimit, "Number of suggestions to show in CLI mode")

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

	pathResolver, err := utils.NewPathResolver()
	if err != nil {
		log.Fatalf("Failed to initialize path resolver: %v", err)
	}

	appConfig, configPath, err := config.LoadConfigWithPriority(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	var active atomic.Pointer[config.Config]
	active.Store(appConfig)
	log.Debugf("Using config file: (%s)", configPath)

	set := provider.NewSet(nil)
	loadWords(set, appConfig, pathResolver.GetWordListDir(*wordsDir))
	if *scanDir != "" {
		scanDocuments(set, appConfig, *scanDir)
	}

	blacklist := loadBlacklist(pathResolver, configPath)
	agg := suggest.NewAggregator(blacklist, set.Ordered()...)

	// CLI would be mainly used for testing and dbg purposes.
	// Any new features or changes should be tested in CLI mode first.
	if *cliMode {
		log.SetReportTimestamp(false)
		log.Debug("Input info:", "limit", *limit)
		watchConfig(ctx, configPath, func(cfg *config.Config) { active.Store(cfg) })

		ctrl := popup.NewController(agg, active.Load)
		inputHandler := cli.NewInputHandler(ctrl, *limit, os.Stdout)
		if err := inputHandler.Start(ctx, os.Stdin); err != nil {
			log.Fatalf("CLI error: %v", err)
		}
		return
	}

	log.Debug("spawning IPC")
	srv := server.NewServer(agg, blacklist, appConfig, os.Stdin, os.Stdout)
	watchConfig(ctx, configPath, srv.UpdateConfig)

	showStartupInfo(configPath, set)
	log.Debug("runtime", "info", pathResolver.GetRuntimeInfo())

	if err := srv.Start(ctx); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

func loadWords(set *provider.Set, cfg *config.Config, dir string) {
	paths := append(utils.ListWordLists(dir), cfg.Providers.WordLists...)
	if len(paths) == 0 {
		log.Warn("No word lists found, running with empty dict...")
		return
	}
	added, err := set.WordList.LoadFiles(paths...)
	if err != nil {
		log.Warnf("Some word lists failed to load: %v", err)
	}
	log.Debugf("Loaded %d words from %d lists", added, len(paths))
}

func scanDocuments(set *provider.Set, cfg *config.Config, dir string) {
	indexed, err := set.FileScanner.ScanDir(dir, cfg, func(path, text string) {
		if err := set.FrontMatter.ScanDocument(text); err != nil {
			log.Debugf("Skipping front matter in %s: %v", path, err)
		}
	})
	if err != nil {
		log.Warnf("Failed to scan %s: %v", dir, err)
		return
	}
	log.Debugf("Indexed %d words from %s", indexed, dir)
}

// loadBlacklist keeps blacklist.txt next to the config file, or in the first
// writable config location when running without one.
func loadBlacklist(pr *utils.PathResolver, configPath string) *suggest.WordBlacklist {
	path := filepath.Join(filepath.Dir(configPath), "blacklist.txt")
	if configPath == "" {
		var err error
		if path, err = pr.GetConfigPath("blacklist.txt"); err != nil {
			log.Warnf("Blacklist will not be saved: %v", err)
			return suggest.NewWordBlacklist()
		}
	}
	log.Debugf("Using blacklist: (%s)", path)
	blacklist, err := suggest.LoadBlacklist(path)
	if err != nil {
		log.Warnf("Failed to load blacklist: %v", err)
	}
	return blacklist
}

func watchConfig(ctx context.Context, configPath string, onReload func(*config.Config)) {
	if configPath == "" {
		return
	}
	go func() {
		if err := config.Watch(ctx, configPath, onReload); err != nil {
			log.Warnf("Config reload disabled: %v", err)
		}
	}()
}

func printVersion() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
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
	logger.SetStyles(styles)

	logger.Print("")
	logger.Print("[ typr ] Completions from everything you type!")
	logger.Print("", "version", Version)
	logger.Print("")
	logger.Print("use -h or --help to see available options")
	logger.Print("Github Repo", "gh", gh)
}

// showStartupInfo displays some basic info about the init process.
func showStartupInfo(configPath string, set *provider.Set) {
	pid := os.Getpid()
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)
	defer log.SetLevel(currentLevel)

	fmt.Fprintln(os.Stderr, "===========")
	fmt.Fprintln(os.Stderr, "   typr    ")
	fmt.Fprintln(os.Stderr, "===========")
	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", pid)
	log.Infof("config: ( %s )", config.GetActiveConfigPath(configPath))
	log.Infof("words: [ %d ] listed, [ %d ] scanned", set.WordList.Engine().Size(), set.FileScanner.Engine().Size())
	log.Info("status: ready")
	fmt.Fprintln(os.Stderr, "===========")
	fmt.Fprintln(os.Stderr, "Press Ctrl+C to exit")
}
