package db

import (
	"fmt"
	"io"
	"log"
	"strconv"
)

// RunMigrateCommand handles the 'migrate' subcommand. It returns an error
// instead of exiting so the caller decides how to report it.
func RunMigrateCommand(args []string, dbPath string, out io.Writer) error {
	if len(args) < 1 {
		PrintMigrateHelp(out)
		return fmt.Errorf("missing migrate action")
	}

	database, err := OpenDB(dbPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	migrations := MigrationsFS()

	switch action := args[0]; action {
	case "up":
		log.Printf("Running migrations...")
		if err := database.MigrateUp(migrations); err != nil {
			return err
		}
		log.Println("✓ All migrations applied successfully")

	case "down":
		log.Printf("Rolling back one migration...")
		if err := database.MigrateDown(migrations); err != nil {
			return err
		}
		log.Println("✓ Migration rolled back successfully")

	case "status":

	case "version", "force":
		if len(args) < 2 {
			return fmt.Errorf("usage: skittles migrate %s <version_number>", action)
		}
		v, err := strconv.Atoi(args[1])
		if err != nil || v < 0 {
			return fmt.Errorf("invalid version number: %s", args[1])
		}
		if action == "version" {
			err = database.MigrateTo(migrations, uint(v))
		} else {
			err = database.MigrateForce(migrations, v)
		}
		if err != nil {
			return err
		}

	case "help":
		PrintMigrateHelp(out)
		return nil

	default:
		PrintMigrateHelp(out)
		return fmt.Errorf("unknown migrate action: %s", action)
	}

	version, dirty, err := database.MigrateVersion(migrations)
	if err != nil {
		return fmt.Errorf("failed to get migration status: %w", err)
	}
	fmt.Fprintf(out, "Current version: %d (dirty: %v)\n", version, dirty)
	if dirty {
		fmt.Fprintln(out, "⚠️  WARNING: Database is in a dirty state! Fix it manually, then run: skittles migrate force <version>")
	}
	return nil
}

// PrintMigrateHelp prints usage for the migrate subcommand.
func PrintMigrateHelp(out io.Writer) {
	fmt.Fprint(out, `Usage: skittles migrate <action> [args]

Actions:
  up                 Apply all pending migrations
  down               Roll back the most recent migration
  status             Show the current schema version
  version <n>        Migrate up or down to version n
  force <n>          Force the recorded version (recovery only)
  help               Show this help
`)
}
