package db

import (
	"embed"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// RunMigrations brings the schema up to the newest embedded migration.
func RunMigrations(dsn string, logger logrus.FieldLogger) error {
	return withMigrator(dsn, logger, func(m *migrate.Migrate) error {
		err := m.Up()
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return errors.Wrap(err, "migrate up")
	})
}

// RollbackMigration reverts the most recently applied migration.
func RollbackMigration(dsn string, logger logrus.FieldLogger) error {
	return withMigrator(dsn, logger, func(m *migrate.Migrate) error {
		return errors.Wrap(m.Steps(-1), "migrate down")
	})
}

func withMigrator(dsn string, logger logrus.FieldLogger, fn func(*migrate.Migrate) error) error {
	conn, err := openDB(dsn)
	if err != nil {
		return errors.Wrap(err, "open db for migrations")
	}
	defer conn.Close()

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return errors.Wrap(err, "load embedded migrations")
	}
	target, err := postgres.WithInstance(conn, &postgres.Config{})
	if err != nil {
		return errors.Wrap(err, "migration target")
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", target)
	if err != nil {
		return errors.Wrap(err, "create migrator")
	}

	if err := fn(m); err != nil {
		return err
	}

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		logger.Info("schema empty")
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "read schema version")
	}
	logger.WithFields(logrus.Fields{"version": version, "dirty": dirty}).Info("schema at version")
	return nil
}
