package db

import (
	"embed"
	"errors"
	"fmt"

	"github.com/diewo77/goldenline/internal/models"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// AutoMigrate creates or updates the tables from the gorm models.
func AutoMigrate(db *gorm.DB) error {
	for _, m := range models.All() {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	for _, table := range []string{"collecte", "client", "users", "permissions", "profiles"} {
		if !db.Migrator().HasTable(table) {
			return errors.New("missing table after migration: " + table)
		}
	}
	return nil
}

// RunSQLMigrations applies the embedded versioned migrations to the
// PostgreSQL database at url.
func RunSQLMigrations(url string) error {
	d, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", d, url)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// MigrationVersions lists the versions of the embedded migrations.
func MigrationVersions() ([]uint, error) {
	d, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, err
	}
	defer d.Close()
	v, err := d.First()
	if err != nil {
		return nil, err
	}
	versions := []uint{v}
	for {
		next, err := d.Next(v)
		if err != nil {
			break
		}
		versions = append(versions, next)
		v = next
	}
	return versions, nil
}
