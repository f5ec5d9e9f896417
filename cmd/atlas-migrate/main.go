// Package main is the entry point for the Atlas accounts migration tool.
// For SQLite it applies the embedded schema; for MongoDB it ensures the
// unique email index exists.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/prn-tf/atlas-accounts/internal/config"
	"github.com/prn-tf/atlas-accounts/internal/repository/factory"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "version":
		fmt.Printf("Atlas Accounts Migration Tool\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

	case "up":
		if err := runUp(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Schema is up to date")

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

// runUp opens the configured backend; opening applies SQLite migrations and
// ensures MongoDB indexes as a side effect of initialization.
func runUp() error {
	ctx := context.Background()

	cfg, err := config.Load(os.Getenv("ATLAS_CONFIG"))
	if err != nil {
		return err
	}

	logger := zerolog.New(os.Stderr).Level(zerolog.InfoLevel).With().Timestamp().Logger()

	repos, err := factory.New(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	return repos.Health.Close(ctx)
}

func printUsage() {
	fmt.Println(`Atlas Accounts Migration Tool

Usage:
  atlas-migrate <command>

Commands:
  up          Apply schema migrations / ensure indexes
  version     Print version information
  help        Show this help message

Environment Variables:
  ATLAS_CONFIG            Path to the YAML config file (optional)
  ATLAS_DATABASE_DRIVER   Persistence backend: mongo or sqlite
  ATLAS_DATABASE_URI      MongoDB connection string

Examples:
  atlas-migrate up`)
}
