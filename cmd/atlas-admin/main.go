// Package main is the entry point for the Atlas accounts admin CLI.
// This tool provides administrative commands for managing accounts and
// generating server secrets.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/prn-tf/atlas-accounts/internal/config"
	"github.com/prn-tf/atlas-accounts/internal/pkg/crypto"
	"github.com/prn-tf/atlas-accounts/internal/repository/factory"
	"github.com/prn-tf/atlas-accounts/internal/service"
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
		fmt.Printf("Atlas Accounts Admin CLI\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

	case "account":
		if err := runAccountCommand(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "secret":
		if len(os.Args) < 3 || os.Args[2] != "generate" {
			fmt.Fprintln(os.Stderr, "Usage: atlas-admin secret generate")
			os.Exit(1)
		}
		secret, err := crypto.GenerateTokenSecret()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(secret)

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

// runAccountCommand dispatches account subcommands against the configured
// store.
func runAccountCommand(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: atlas-admin account <create|list|delete> [arguments]")
	}

	ctx := context.Background()

	cfg, err := config.Load(os.Getenv("ATLAS_CONFIG"))
	if err != nil {
		return err
	}

	logger := zerolog.New(os.Stderr).Level(zerolog.WarnLevel)

	repos, err := factory.New(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer repos.Health.Close(ctx)

	accounts := service.NewAccountService(repos.Accounts, nil, logger)

	switch args[0] {
	case "create":
		if len(args) != 4 {
			return fmt.Errorf("usage: atlas-admin account create <name> <email> <password>")
		}
		account, err := accounts.Create(ctx, service.CreateAccountInput{
			Name:     args[1],
			Email:    args[2],
			Password: args[3],
		})
		if err != nil {
			return err
		}
		fmt.Printf("Created account %s (%s)\n", account.ID, account.Email)
		return nil

	case "list":
		out, err := accounts.List(ctx, service.ListAccountsInput{Limit: 100})
		if err != nil {
			return err
		}
		fmt.Printf("%d account(s):\n", out.TotalCount)
		for _, a := range out.Accounts {
			fmt.Printf("  %s  %-30s  %s\n", a.ID, a.Email, a.Name)
		}
		return nil

	case "delete":
		if len(args) != 2 {
			return fmt.Errorf("usage: atlas-admin account delete <id>")
		}
		if _, err := accounts.Delete(ctx, args[1]); err != nil {
			return err
		}
		fmt.Printf("Deleted account %s\n", args[1])
		return nil

	default:
		return fmt.Errorf("unknown account subcommand: %s", args[0])
	}
}

func printUsage() {
	fmt.Println(`Atlas Accounts Admin CLI

Usage:
  atlas-admin <command> [arguments]

Commands:
  account create <name> <email> <password>   Create an account
  account list                               List accounts
  account delete <id>                        Delete an account and its sessions
  secret generate                            Generate a token-signing secret
  version                                    Print version information
  help                                       Show this help message

Environment Variables:
  ATLAS_CONFIG            Path to the YAML config file (optional)
  ATLAS_DATABASE_DRIVER   Persistence backend: mongo or sqlite
  ATLAS_DATABASE_URI      MongoDB connection string
  ATLAS_AUTH_TOKEN_SECRET Token-signing secret (required by config validation)

Examples:
  atlas-admin account create "Andrew" a@x.com pass9999
  atlas-admin account list
  atlas-admin secret generate`)
}
