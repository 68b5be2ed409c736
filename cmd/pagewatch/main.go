// Package main provides the entry point for pagewatch.
//
// pagewatch monitors the availability of web pages: every page is fetched on
// a fixed interval, each result is stored, and the latest state of every page
// and website is served over a JSON API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"pagewatch/internal/config"
	"pagewatch/internal/logger"
	"pagewatch/internal/server"
)

// Version information set during build time
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// main is the entry point of pagewatch.
//
// The startup sequence is as follows:
//  1. Parse flags
//  2. Load configuration
//  3. Initialize logger
//  4. Setup graceful shutdown handling
//  5. Start the main server
func main() {
	configFile := pflag.StringP("config", "c", "", "path to the configuration file")
	printConfig := pflag.Bool("print-config", false, "print the effective configuration and exit")
	showVersion := pflag.BoolP("version", "v", false, "print version information and exit")
	pflag.Parse()

	if *showVersion {
		fmt.Printf("pagewatch %s (commit %s, built %s)\n", Version, GitCommit, BuildTime)
		return
	}

	// Load application configuration (fails fast on error)
	cfg := loadConfig(*configFile)

	if *printConfig {
		fmt.Print(cfg)
		return
	}

	logger.Setup(cfg.Log)
	log.Info().
		Str("version", Version).
		Str("commit", GitCommit).
		Msg("Starting pagewatch")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.New(cfg).Start(ctx); err != nil {
		log.Error().Err(err).Msg("Server terminated with error")
		stop()
		os.Exit(1)
	}
}

// loadConfig loads application configuration and terminates the program
// immediately if configuration cannot be loaded.
func loadConfig(configFile string) *config.Config {
	cfg, err := config.Load(configFile)
	if err != nil {
		log.Fatal().
			Err(err).
			Msg("Failed to load configuration")
	}
	return cfg
}
