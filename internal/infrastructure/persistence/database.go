package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erp/rental/internal/infrastructure/config"
	"github.com/erp/rental/internal/infrastructure/persistence/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database drivers, re-exported so callers need not import config
const (
	DriverPostgres = config.DriverPostgres
	DriverSQLite   = config.DriverSQLite
)

// Database is the GORM handle of the ledger store and the driver it sits on
type Database struct {
	DB     *gorm.DB
	Driver string
}

// Open connects with cfg and checks the connection. A nil gormLogger keeps
// GORM silent.
func Open(ctx context.Context, cfg *config.DatabaseConfig, gormLogger logger.Interface) (*Database, error) {
	if gormLogger == nil {
		gormLogger = logger.Default.LogMode(logger.Silent)
	}
	driver := cfg.Driver
	if driver == "" {
		driver = DriverPostgres
	}
	dialector, err := dialectorFor(driver, cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		TranslateError:         true,
		// sqlite's single connection gains nothing from cached statements
		PrepareStmt: driver == DriverPostgres,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	d := &Database{DB: db, Driver: driver}

	sqlDB, err := d.sqlDB()
	if err != nil {
		return nil, err
	}
	configurePool(sqlDB, driver, cfg)
	if err := d.Ping(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return d, nil
}

func dialectorFor(driver string, cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch driver {
	case DriverPostgres:
		return postgres.Open(cfg.DSN()), nil
	case DriverSQLite:
		path := cfg.Path
		if path == "" {
			path = ":memory:"
		}
		return sqlite.Open(path), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", driver)
}

// configurePool sizes the connection pool. sqlite allows one writer, and a
// single connection keeps an in-memory database alive for the pool's life.
func configurePool(sqlDB *sql.DB, driver string, cfg *config.DatabaseConfig) {
	if driver == DriverSQLite {
		sqlDB.SetMaxOpenConns(1)
		return
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)
}

// NewInMemoryDatabase opens a private sqlite database with every table
// created. Used by tests and local runs.
func NewInMemoryDatabase() (*Database, error) {
	db, err := Open(context.Background(), &config.DatabaseConfig{Driver: DriverSQLite, Path: ":memory:"}, nil)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// AutoMigrate creates or updates every table from the models. PostgreSQL
// deployments use the SQL migrations instead.
func (d *Database) AutoMigrate() error {
	if err := d.DB.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

func (d *Database) sqlDB() (*sql.DB, error) {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB, nil
}

// Ping checks the connection is alive
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.sqlDB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the pool
func (d *Database) Close() error {
	sqlDB, err := d.sqlDB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
