// Package main is the entry point for the suggest CLI.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/p-blackswan/todo-suggest/internal/cli"
	"github.com/p-blackswan/todo-suggest/internal/config"
)

// version is set at build time using -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger = logger.Level(level)

	return cli.NewRootCommand(cfg, logger, version).Execute()
}
