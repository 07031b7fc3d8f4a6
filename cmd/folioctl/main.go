// main.go - admin tool for folio
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"folio/internal"
	"folio/internal/auth"
	"folio/internal/config"
	"folio/internal/database"
	"folio/internal/seeder"
	"folio/internal/sessions"
)

const (
	defaultShutdownTimeout = 30 * time.Second
)

// Command is one folioctl subcommand.
type Command interface {
	Name() string
	Description() string
	// NeedsApp reports whether Execute requires an initialised application.
	NeedsApp() bool
	Execute(ctx context.Context, app *internal.Application, args []string) error
}

var commands = []Command{
	&MigrateCommand{},
	&StatusCommand{},
	&SweepSessionsCommand{},
	&CopyCommand{},
	&CheckPasswordCommand{},
	&SeedCommand{},
	&HelpCommand{},
}

func main() {
	flag.Parse()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sig := <-sigChan
		log.Printf("Received signal: %v, initiating cleanup...", sig)
		cancel()
	}()

	cmdName, args := parseArgs()

	cmd := findCommand(cmdName)
	if cmd == nil {
		showUsageAndExit()
	}

	var app *internal.Application
	if cmd.NeedsApp() {
		var err error
		app, err = internal.NewApp()
		if err != nil {
			log.Fatalf("Failed to initialize app: %v", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
			defer cancel()
			if err := app.Shutdown(shutdownCtx); err != nil {
				log.Printf("Warning: Cleanup error: %v", err)
			}
		}()
	}

	if err := cmd.Execute(ctx, app, args); err != nil {
		log.Fatalf("Command failed: %v", err)
	}

	log.Printf("Command %s completed successfully", cmd.Name())
}

// MigrateCommand runs database migrations.
type MigrateCommand struct{}

func (c *MigrateCommand) Name() string        { return "migrate" }
func (c *MigrateCommand) Description() string { return "Runs database migrations" }
func (c *MigrateCommand) NeedsApp() bool      { return true }

func (c *MigrateCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	log.Println("Running database migrations...")
	if err := app.DBManager.MigrateDatabase(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	log.Println("Migrations completed successfully")
	return nil
}

// StatusCommand prints row counts and connection pool statistics.
type StatusCommand struct{}

func (c *StatusCommand) Name() string        { return "status" }
func (c *StatusCommand) Description() string { return "Shows table sizes and connection statistics" }
func (c *StatusCommand) NeedsApp() bool      { return true }

func (c *StatusCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	db := app.DBManager.GetConnection()

	counts, err := database.TableCounts(db)
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}

	log.Println("System Status:")
	log.Println("- Database: Connected")
	for _, table := range database.Tables() {
		log.Printf("- %s: %d", table, counts[table])
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get SQL DB: %w", err)
	}
	stats := sqlDB.Stats()
	log.Printf("- Max Open Connections: %d", stats.MaxOpenConnections)
	log.Printf("- Open Connections: %d", stats.OpenConnections)
	log.Printf("- In Use: %d", stats.InUse)
	log.Printf("- Idle: %d", stats.Idle)
	return nil
}

// SweepSessionsCommand closes sessions idle past the session window, the
// same work the scheduled sweeper does.
type SweepSessionsCommand struct{}

func (c *SweepSessionsCommand) Name() string        { return "sweep-sessions" }
func (c *SweepSessionsCommand) Description() string { return "Closes idle sessions now" }
func (c *SweepSessionsCommand) NeedsApp() bool      { return true }

func (c *SweepSessionsCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	window := config.GetConfig().SessionWindow()
	closed, err := sessions.CloseExpired(app.DBManager.GetConnection(), slog.Default(), time.Now().UTC(), window)
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}
	log.Printf("Closed %d sessions", closed)
	return nil
}

// CopyCommand copies analytics rows between stores, for example from the
// sqlite file into Postgres.
type CopyCommand struct{}

func (c *CopyCommand) Name() string { return "copy" }
func (c *CopyCommand) Description() string {
	return "Copies analytics data between databases (-from, -to, -batch)"
}
func (c *CopyCommand) NeedsApp() bool { return false }

func (c *CopyCommand) Execute(ctx context.Context, _ *internal.Application, args []string) error {
	fs := flag.NewFlagSet("copy", flag.ContinueOnError)
	from := fs.String("from", "", "source DSN (defaults to the configured database)")
	to := fs.String("to", "", "target DSN (sqlite path or postgres:// URL)")
	batch := fs.Int("batch", database.DefaultBatchSize, "rows per insert batch")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *to == "" {
		return errors.New("-to is required")
	}
	if *from == "" {
		*from = config.GetConfig().GetDatabasePath()
	}
	if *from == *to {
		return errors.New("source and target are the same database")
	}

	src, err := database.OpenStore(*from)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	dst, err := database.OpenStore(*to)
	if err != nil {
		return fmt.Errorf("open target: %w", err)
	}

	log.Printf("Copying %s -> %s", database.RedactDSN(*from), database.RedactDSN(*to))
	result, err := database.Copy(ctx, src, dst, *batch, slog.Default())
	if err != nil {
		return err
	}
	for _, table := range database.Tables() {
		log.Printf("- %s: %d rows", table, result.Tables[table])
	}
	log.Printf("Copied %d rows", result.Total())
	return nil
}

// CheckPasswordCommand verifies a password against the configured
// dashboard secret without starting the server.
type CheckPasswordCommand struct{}

func (c *CheckPasswordCommand) Name() string { return "check-password" }
func (c *CheckPasswordCommand) Description() string {
	return "Checks a password against ANALYTICS_PASSWORD"
}
func (c *CheckPasswordCommand) NeedsApp() bool { return false }

func (c *CheckPasswordCommand) Execute(ctx context.Context, _ *internal.Application, args []string) error {
	var candidate string
	if len(args) >= 1 {
		candidate = args[0]
	} else {
		fmt.Print("Enter password: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		candidate = strings.TrimSpace(string(raw))
	}

	switch err := auth.CheckPassword(candidate, config.GetConfig().AnalyticsPassword); {
	case errors.Is(err, auth.ErrNotConfigured):
		return errors.New("ANALYTICS_PASSWORD is not set, the dashboard is locked")
	case err != nil:
		return err
	}
	fmt.Println("Password matches")
	return nil
}

// SeedCommand fills the database with sample portfolio traffic.
type SeedCommand struct{}

func (c *SeedCommand) Name() string        { return "seed" }
func (c *SeedCommand) Description() string { return "Seeds the database with sample visits" }
func (c *SeedCommand) NeedsApp() bool      { return true }

func (c *SeedCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	visitors := fs.Int("visitors", 200, "number of visitors to generate")
	days := fs.Int("days", 30, "days of history to spread visits over")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if config.GetConfig().IsProduction() {
		return errors.New("refusing to seed a production database")
	}
	if err := app.DBManager.MigrateDatabase(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	se := seeder.NewSeeder(app.DBManager.GetConnection(), slog.Default(), *visitors)
	se.Days = *days
	se.Seed = uint64(time.Now().UnixNano())

	summary, err := se.Run(ctx)
	if err != nil {
		return err
	}
	log.Printf("Seeded %d pageviews and %d events", summary.PageViews, summary.Events)
	return nil
}

// HelpCommand shows usage information.
type HelpCommand struct{}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Description() string { return "Shows usage information" }
func (c *HelpCommand) NeedsApp() bool      { return false }

func (c *HelpCommand) Execute(ctx context.Context, _ *internal.Application, args []string) error {
	printUsage()
	return nil
}

func parseArgs() (string, []string) {
	args := flag.Args()
	if len(args) == 0 {
		return "help", []string{}
	}
	return args[0], args[1:]
}

func findCommand(name string) Command {
	for _, cmd := range commands {
		if cmd.Name() == name {
			return cmd
		}
	}
	return nil
}

func printUsage() {
	fmt.Println("Usage: folioctl [command] [args...]")
	fmt.Println("Available commands:")
	for _, cmd := range commands {
		fmt.Printf("  %s: %s\n", cmd.Name(), cmd.Description())
	}
}

func showUsageAndExit() {
	printUsage()
	os.Exit(1)
}
