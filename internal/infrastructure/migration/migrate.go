// Package migration applies the ledger's PostgreSQL schema with
// golang-migrate and scaffolds new migration files.
package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

// Migrator runs the migrations of one source against one database
type Migrator struct {
	migrate *migrate.Migrate
	catalog []Migration
	logger  *zap.Logger
}

// Status is where the database stands against the migration source
type Status struct {
	Current uint
	Dirty   bool
	Latest  uint
	Pending []Migration
}

// Open creates a Migrator reading scripts from fsys: migrations.FS for the
// copies compiled into the binary, os.DirFS for a directory on disk. The
// source is checked before anything touches db.
func Open(db *sql.DB, fsys fs.FS, logger *zap.Logger) (*Migrator, error) {
	catalog, err := Catalog(fsys)
	if err != nil {
		return nil, err
	}
	if len(catalog) == 0 {
		return nil, errors.New("no migrations found")
	}
	if err := Check(catalog); err != nil {
		return nil, fmt.Errorf("invalid migrations: %w", err)
	}

	source, err := iofs.New(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("open migration source: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("create postgres driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("create migrate instance: %w", err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	return &Migrator{migrate: m, catalog: catalog, logger: logger}, nil
}

// Catalog returns the migrations the source holds
func (m *Migrator) Catalog() []Migration {
	return m.catalog
}

// Up applies every pending migration
func (m *Migrator) Up() error {
	return m.run("up", m.migrate.Up)
}

// Down rolls back every applied migration
func (m *Migrator) Down() error {
	return m.run("down", m.migrate.Down)
}

// Steps applies n migrations, rolling back when n is negative
func (m *Migrator) Steps(n int) error {
	return m.run(fmt.Sprintf("step %d", n), func() error { return m.migrate.Steps(n) })
}

// GoTo migrates up or down to version
func (m *Migrator) GoTo(version uint) error {
	if version > Latest(m.catalog) {
		return fmt.Errorf("version %d is past the latest migration %d", version, Latest(m.catalog))
	}
	return m.run(fmt.Sprintf("goto %d", version), func() error { return m.migrate.Migrate(version) })
}

// run executes one golang-migrate operation and logs where it left the schema
func (m *Migrator) run(op string, fn func() error) error {
	before, _, err := m.Version()
	if err != nil {
		return err
	}
	m.logger.Info("Migrating ledger schema", zap.String("op", op), zap.Uint("from_version", before))

	if err := fn(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.logger.Info("Schema already up to date", zap.Uint("version", before))
			return nil
		}
		return fmt.Errorf("migrate %s: %w", op, err)
	}

	after, dirty, err := m.Version()
	if err != nil {
		return err
	}
	m.logger.Info("Schema migrated",
		zap.String("op", op),
		zap.Uint("from_version", before),
		zap.Uint("version", after),
		zap.Bool("dirty", dirty),
	)
	return nil
}

// Version returns the applied version, 0 on an empty database
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.migrate.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read migration version: %w", err)
	}
	return version, dirty, nil
}

// Status compares the applied version with the source
func (m *Migrator) Status() (*Status, error) {
	current, dirty, err := m.Version()
	if err != nil {
		return nil, err
	}
	return &Status{
		Current: current,
		Dirty:   dirty,
		Latest:  Latest(m.catalog),
		Pending: Pending(m.catalog, current),
	}, nil
}

// Force records version as applied without running anything. It clears
// the dirty flag a failed migration leaves behind.
func (m *Migrator) Force(version int) error {
	m.logger.Warn("Forcing migration version", zap.Int("version", version))
	if err := m.migrate.Force(version); err != nil {
		return fmt.Errorf("force version %d: %w", version, err)
	}
	return nil
}

// Drop removes every table in the database, ledger history included
func (m *Migrator) Drop() error {
	m.logger.Warn("Dropping all ledger tables")
	if err := m.migrate.Drop(); err != nil {
		return fmt.Errorf("drop database: %w", err)
	}
	return nil
}

// Close releases the source and the database connection
func (m *Migrator) Close() error {
	sourceErr, dbErr := m.migrate.Close()
	return errors.Join(sourceErr, dbErr)
}
