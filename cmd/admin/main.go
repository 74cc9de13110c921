package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"finlink/internal/domain/link"
	"finlink/internal/infrastructure/database"
	"finlink/internal/shared/config"
	"finlink/internal/shared/logger"
)

const usage = `Finlink Admin CLI - Management commands for the Finlink API

Usage:
  admin <command> [options]

Commands:
  migrate up           Apply all pending schema migrations
  migrate down [N]     Roll back the last N migrations (default 1)
  migrate version      Print the applied schema version
  links                List the aggregator links stored for a user

Examples:
  # Create or upgrade the schema
  admin migrate up

  # Undo the most recent migration
  admin migrate down 1

  # Show the links of a user as JSON
  admin links --email=ana@example.com
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage + "\n")
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "migrate":
		withDatabase(func(db *database.DB, zl *zap.Logger) error {
			return runMigrate(db, zl, os.Args[2:], os.Stdout)
		})
	case "links":
		runLinksCommand(os.Args[2:])
	case "help", "-h", "--help":
		fmt.Print(usage + "\n")
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		fmt.Print(usage + "\n")
		os.Exit(1)
	}
}

// withDatabase opens the configured database and runs fn, exiting non-zero
// on any failure.
func withDatabase(fn func(db *database.DB, zl *zap.Logger) error) {
	db, zl, err := openDatabase()
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	defer zl.Sync()

	if err := fn(db, zl); err != nil {
		db.Close()
		log.Fatalf("Error: %v", err)
	}
	db.Close()
}

// openDatabase needs only the database and log settings.
func openDatabase() (*database.DB, *zap.Logger, error) {
	cfg, err := config.LoadDatabase()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	zl, err := logger.New(cfg.Log.Development, logger.LogLevel(cfg.Log.Level))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}

	db, err := database.Open(cfg.Database.Driver, cfg.Database.ConnectionString())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, zl, nil
}

// runMigrate executes one migrate subcommand. The migrator takes ownership
// of db and closes it.
func runMigrate(db *database.DB, zl *zap.Logger, args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("migrate requires a subcommand: up, down or version")
	}

	m, err := database.NewMigrator(db, zl)
	if err != nil {
		return err
	}
	defer m.Close()

	switch args[0] {
	case "up":
		if err := database.MigrateUp(m); err != nil {
			return err
		}
	case "down":
		steps := 1
		if len(args) > 1 {
			steps, err = strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid step count %q", args[1])
			}
		}
		if err := database.MigrateDown(m, steps); err != nil {
			return err
		}
	case "version":
	default:
		return fmt.Errorf("unknown migrate subcommand %q", args[0])
	}

	version, dirty, err := database.Version(m)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "schema version: %d (dirty: %t)\n", version, dirty)
	return nil
}

func runLinksCommand(args []string) {
	fs := flag.NewFlagSet("links", flag.ExitOnError)

	email := fs.String("email", "", "Email of the user whose links to list")
	timeoutStr := fs.String("timeout", "30s", "Timeout for the operation (e.g., 10s, 1m)")

	fs.Usage = func() {
		fmt.Println("Usage: admin links [options]")
		fmt.Println("\nOptions:")
		fs.PrintDefaults()
		fmt.Println("\nExamples:")
		fmt.Println("  admin links --email=ana@example.com")
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if *email == "" {
		fmt.Println("Error: must specify --email")
		fs.Usage()
		os.Exit(1)
	}

	timeout, err := time.ParseDuration(*timeoutStr)
	if err != nil {
		log.Fatalf("Invalid timeout format: %v", err)
	}

	withDatabase(func(db *database.DB, zl *zap.Logger) error {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		service := link.NewService(database.NewLinkRepository(db), database.NewUserRepository(db))
		return listLinks(ctx, service, *email, os.Stdout)
	})
}

func listLinks(ctx context.Context, service *link.Service, email string, out io.Writer) error {
	links, err := service.ListForUser(ctx, email)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(links)
}
