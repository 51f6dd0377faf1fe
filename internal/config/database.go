package config

import (
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// Database drivers supported by NewDatabase.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

//go:embed migrations
var migrations embed.FS

// Database holds database connection and configuration
type Database struct {
	*sql.DB
	driver string
	logger *logrus.Logger
}

// NewDatabase creates a new database connection
func NewDatabase(driver, dsn string, logger *logrus.Logger) (*Database, error) {
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if driver == DriverSQLite {
		// One writer at a time; the store only ever holds a handful of rows.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.WithField("driver", driver).Info("Database connection established successfully")

	return &Database{
		DB:     db,
		driver: driver,
		logger: logger,
	}, nil
}

// Driver returns the database/sql driver name.
func (d *Database) Driver() string {
	return d.driver
}

// Migrate runs the embedded migrations for the connection's driver
func (d *Database) Migrate() error {
	source, err := iofs.New(migrations, "migrations/"+d.driver)
	if err != nil {
		return fmt.Errorf("failed to open migrations: %w", err)
	}

	var driver database.Driver
	switch d.driver {
	case DriverPostgres:
		driver, err = postgres.WithInstance(d.DB, &postgres.Config{})
	case DriverSQLite:
		driver, err = sqlite3.WithInstance(d.DB, &sqlite3.Config{})
	}
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, d.driver, driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.logger.Info("Database migrations completed successfully")
	return nil
}

// Close closes the database connection
func (d *Database) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
