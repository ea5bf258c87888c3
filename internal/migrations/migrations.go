// Package migrations provisions the task hierarchy schema. Only the forward
// direction is shipped: the query facade never changes the schema itself.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"net/url"

	"taskHierarchy/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// ApplyPostgres brings the schema at databaseURL (postgres:// or postgresql://) up to
// date over a dedicated connection.
func ApplyPostgres(databaseURL string) error {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return fmt.Errorf("migrations: parse database url: %w", err)
	}
	u.Scheme = "pgx5"

	drv, err := (&pgxmigrate.Postgres{}).Open(u.String())
	if err != nil {
		return fmt.Errorf("migrations: postgres driver: %w", err)
	}

	m, err := newMigrate("postgres", "pgx5", drv)
	if err != nil {
		_ = drv.Close()
		return err
	}
	defer m.Close()

	return up(m, "postgres")
}

// ApplySQLite brings the schema in db up to date. db is left open.
func ApplySQLite(db *sql.DB) error {
	drv, err := sqlitemigrate.WithInstance(db, &sqlitemigrate.Config{})
	if err != nil {
		return fmt.Errorf("migrations: sqlite driver: %w", err)
	}

	m, err := newMigrate("sqlite", "sqlite", drv)
	if err != nil {
		return err
	}
	return up(m, "sqlite")
}

func newMigrate(dir, dbName string, drv database.Driver) (*migrate.Migrate, error) {
	src, err := iofs.New(files, dir)
	if err != nil {
		return nil, fmt.Errorf("migrations: read %s scripts: %w", dir, err)
	}

	m, err := migrate.NewWithInstance("iofs", src, dbName, drv)
	if err != nil {
		return nil, fmt.Errorf("migrations: init %s: %w", dir, err)
	}
	return m, nil
}

func up(m *migrate.Migrate, dialect string) error {
	logger.Info("Migrations: applying schema", zap.String("dialect", dialect))

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("Migrations: schema already current", zap.String("dialect", dialect))
			return nil
		}
		logger.Error("Migrations: apply failed", err, zap.String("dialect", dialect))
		return fmt.Errorf("migrations: apply %s: %w", dialect, err)
	}

	version, _, _ := m.Version()
	logger.Info("Migrations: schema applied",
		zap.String("dialect", dialect),
		zap.Uint("version", version))
	return nil
}
