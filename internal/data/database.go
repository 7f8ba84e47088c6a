package data

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"blogicum/internal/config"

	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations
var migrationsFS embed.FS

// ErrNotFound is returned by the repositories when no row matches.
var ErrNotFound = errors.New("record not found")

// NewDB creates a new database connection pool.
func NewDB(cfg config.DBConfig) (*sqlx.DB, error) {
	dsn := cfg.DSN
	if cfg.Driver == "sqlite3" {
		dsn = sqliteDSN(dsn)
	}
	// sqlx.Connect opens a connection and pings it to verify it's alive.
	db, err := sqlx.Connect(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// sqliteDSN turns on foreign key enforcement through the DSN so that every
// pooled connection gets it, not only the one that ran a PRAGMA.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys=") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=on"
}

// ApplyMigrations runs all up migrations embedded for the configured driver.
// MySQL DSNs must allow multiStatements.
func ApplyMigrations(cfg config.DBConfig) error {
	src, err := iofs.New(migrationsFS, "migrations/"+cfg.Driver)
	if err != nil {
		return fmt.Errorf("failed to open migrations for %s: %w", cfg.Driver, err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, fmt.Sprintf("%s://%s", cfg.Driver, cfg.DSN))
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	// Up applies all available up migrations.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}

// Schema returns every up migration for driver joined in order, for tests
// that build an in-memory database without running the migrator.
func Schema(driver string) (string, error) {
	files, err := fs.Glob(migrationsFS, "migrations/"+driver+"/*.up.sql")
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("no migrations for %s", driver)
	}
	sort.Strings(files)

	var b strings.Builder
	for _, f := range files {
		content, err := migrationsFS.ReadFile(f)
		if err != nil {
			return "", err
		}
		b.Write(content)
		b.WriteString("\n")
	}
	return b.String(), nil
}
