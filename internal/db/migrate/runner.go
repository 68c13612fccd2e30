// Package migrate runs database migrations from embedded SQL files using golang-migrate.
package migrate

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"talentgrid/backend/internal/db"
)

// ErrNoChange is returned when Up/Down has nothing to do (already at target version).
var ErrNoChange = migrate.ErrNoChange

// Set names a migration set: the directory database schema or the schema
// applied to every regional database.
type Set string

const (
	SetDirectory Set = "directory"
	SetRegional  Set = "regional"
)

func sourceFor(set Set) (fs.FS, string, error) {
	switch set {
	case SetDirectory:
		return db.DirectoryMigrationFS, "migrations/directory", nil
	case SetRegional:
		return db.RegionalMigrationFS, "migrations/regional", nil
	default:
		return nil, "", fmt.Errorf("unknown migration set %q", set)
	}
}

// Run applies the named migration set in the given direction against dsn.
// direction must be "up" or "down". Returns nil on success, including when
// already at the target version; other errors for DB or I/O failures.
func Run(dsn string, set Set, direction string) error {
	if dsn == "" {
		return errors.New("empty DSN; set DIRECTORY_DATABASE_URL and REGION_DATABASE_URLS")
	}
	if direction != "up" && direction != "down" {
		return fmt.Errorf("direction must be up or down, got %q", direction)
	}

	fsys, path, err := sourceFor(set)
	if err != nil {
		return err
	}
	sourceDriver, err := iofs.New(fsys, path)
	if err != nil {
		return fmt.Errorf("migrate source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, dsn)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	switch direction {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
	}
	return nil
}
