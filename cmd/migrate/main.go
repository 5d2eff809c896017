package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"slices"
	"strconv"

	"github.com/erp/rental/internal/infrastructure/config"
	"github.com/erp/rental/internal/infrastructure/logger"
	"github.com/erp/rental/internal/infrastructure/migration"
	"github.com/erp/rental/migrations"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const usage = `Rental Ledger Database Migration Tool

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply all pending migrations
  down -confirm         Roll back all migrations
  step <n>              Apply n migrations (negative rolls back)
  goto <version>        Migrate to a specific version
  status                Show the applied version and pending migrations
  force <version>       Record a version without running it (clears dirty)
  drop -confirm         Drop all database objects
  create <name> [desc]  Scaffold a new migration pair under -dir
  list                  List the migrations in the source
  check                 Verify every migration has a rollback and none are missing

Flags:
  -dir string           Read migrations from this directory instead of the
                        copies embedded in the binary (create defaults to ./migrations)
  -log-level string     Log level: debug, info, warn, error (default: info)

Environment Variables:
  RENTAL_DATABASE_HOST, RENTAL_DATABASE_PORT, RENTAL_DATABASE_USER,
  RENTAL_DATABASE_PASSWORD, RENTAL_DATABASE_DBNAME, RENTAL_DATABASE_SSLMODE

Examples:
  migrate up
  migrate step -1
  migrate create add_late_fees "Late fee rules per property"
`

// errUsage marks a malformed command line
var errUsage = errors.New("invalid usage")

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "%v\n\n%s", err, usage)
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	flags := flag.NewFlagSet("migrate", flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	dir := flags.String("dir", "", "migrations directory")
	logLevel := flags.String("log-level", "info", "log level")
	if err := flags.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	args = flags.Args()
	if len(args) == 0 {
		return fmt.Errorf("%w: command required", errUsage)
	}
	command, args := args[0], args[1:]

	log, err := logger.New(&logger.Config{
		Level:      *logLevel,
		Format:     "console",
		Output:     "stderr",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync(log) }()

	// Commands that only read or write files
	switch command {
	case "create":
		if len(args) == 0 {
			return fmt.Errorf("%w: create needs a migration name", errUsage)
		}
		target := *dir
		if target == "" {
			target = "migrations"
		}
		description := ""
		if len(args) > 1 {
			description = args[1]
		}
		nf, err := migration.CreateMigration(target, args[0], description)
		if err != nil {
			return err
		}
		log.Info("Migration created", zap.String("up_file", nf.UpPath), zap.String("down_file", nf.DownPath))
		return nil
	case "list", "check":
		catalog, err := migration.Catalog(source(*dir))
		if err != nil {
			return err
		}
		if command == "check" {
			if err := migration.Check(catalog); err != nil {
				return err
			}
			fmt.Fprintf(out, "%d migrations ok\n", len(catalog))
			return nil
		}
		for _, m := range catalog {
			rollback := ""
			if !m.HasDown {
				rollback = "  (no rollback)"
			}
			fmt.Fprintf(out, "%s%s\n", m, rollback)
		}
		return nil
	}

	m, err := openMigrator(*dir, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("Failed to close migrator", zap.Error(err))
		}
	}()
	return execute(m, command, args, out)
}

// source picks the embedded migrations unless dir names a directory
func source(dir string) fs.FS {
	if dir == "" {
		return migrations.FS
	}
	return os.DirFS(dir)
}

func openMigrator(dir string, log *zap.Logger) (*migration.Migrator, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if cfg.Database.Driver != config.DriverPostgres {
		return nil, fmt.Errorf("migrations run against postgres only, %s databases are created with AutoMigrate", cfg.Database.Driver)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	m, err := migration.Open(db, source(dir), log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return m, nil
}

// execute runs one database command
func execute(m *migration.Migrator, command string, args []string, out io.Writer) error {
	switch command {
	case "up":
		return m.Up()
	case "down":
		if !confirmed(args) {
			return fmt.Errorf("%w: down rolls back the whole ledger schema, pass -confirm", errUsage)
		}
		return m.Down()
	case "step":
		n, err := intArg(args, "step count")
		if err != nil {
			return err
		}
		return m.Steps(n)
	case "goto":
		n, err := intArg(args, "version")
		if err != nil {
			return err
		}
		if n < 0 {
			return fmt.Errorf("%w: version must not be negative", errUsage)
		}
		return m.GoTo(uint(n))
	case "status", "version":
		st, err := m.Status()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "version %d of %d", st.Current, st.Latest)
		if st.Dirty {
			fmt.Fprint(out, " (dirty, fix the schema then run force)")
		}
		fmt.Fprintln(out)
		for _, p := range st.Pending {
			fmt.Fprintf(out, "  pending %s\n", p)
		}
		return nil
	case "force":
		n, err := intArg(args, "version")
		if err != nil {
			return err
		}
		return m.Force(n)
	case "drop":
		if !confirmed(args) {
			return fmt.Errorf("%w: drop destroys every table, pass -confirm", errUsage)
		}
		return m.Drop()
	}
	return fmt.Errorf("%w: unknown command %q", errUsage, command)
}

func confirmed(args []string) bool {
	return slices.Contains(args, "-confirm") || slices.Contains(args, "--confirm")
}

func intArg(args []string, what string) (int, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("%w: %s required", errUsage, what)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s %q", errUsage, what, args[0])
	}
	return n, nil
}
