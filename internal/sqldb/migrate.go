package sqldb

import (
	"context"
	"embed"

	"cursor-paging/pkg/gallery"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

//go:embed migrations
var migrations embed.FS

// migrationsTable records the applied schema version.
const migrationsTable = "schema_migrations"

// Migrate applies every pending schema migration for the Store's dialect.
func (s *Store) Migrate(ctx context.Context) error {
	err := s.withMigrate(ctx, "migrate", func(ctx context.Context, m *migrate.Migrate) error {
		done := make(chan error, 1)
		go func() { done <- m.Up() }()
		select {
		case <-ctx.Done():
			m.GracefulStop <- true
			<-done
			return ctx.Err()
		case err := <-done:
			if err != nil && err != migrate.ErrNoChange {
				return err
			}
			return nil
		}
	})
	return errors.Wrap(err, "apply migrations")
}

// MigrationVersion returns the applied schema version.
func (s *Store) MigrationVersion(ctx context.Context) (uint, bool, error) {
	var (
		v     uint
		dirty bool
	)
	err := s.withMigrate(ctx, "migration_version", func(_ context.Context, m *migrate.Migrate) error {
		var err error
		v, dirty, err = m.Version()
		if err == migrate.ErrNilVersion {
			return nil
		}
		return err
	})
	return v, dirty, errors.Wrap(err, "read migration version")
}

// withMigrate runs fn with a migrate instance for the Store's dialect.
//
// The postgres driver holds on to one connection until it is closed, so it
// is built on a connection borrowed through Do and closed before Do
// returns. The sqlite driver holds no connection and its Close would close
// the Store's pool, so it is never closed.
func (s *Store) withMigrate(ctx context.Context, label string, fn func(context.Context, *migrate.Migrate) error) error {
	if s.dialect != DialectSQLite && s.dialect != DialectPostgres {
		return errors.Wrapf(gallery.ErrUnknownDialect, "dialect %q", s.dialect)
	}
	src, err := iofs.New(migrations, "migrations/"+string(s.dialect))
	if err != nil {
		return errors.Wrap(err, "open migrations source")
	}

	if s.dialect == DialectSQLite {
		driver, err := sqlite.WithInstance(s.sqldb.DB, &sqlite.Config{MigrationsTable: migrationsTable})
		if err != nil {
			return errors.Wrap(err, "create sqlite migrate driver")
		}
		m, err := migrate.NewWithInstance("iofs", src, string(s.dialect), driver)
		if err != nil {
			return errors.Wrap(err, "create migrate instance")
		}
		return fn(ctx, m)
	}

	return s.Do(ctx, label, func(ctx context.Context, conn *sqlx.Conn) error {
		driver, err := postgres.WithConnection(ctx, conn.Conn, &postgres.Config{MigrationsTable: migrationsTable})
		if err != nil {
			return errors.Wrap(err, "create postgres migrate driver")
		}
		defer driver.Close()

		m, err := migrate.NewWithInstance("iofs", src, string(s.dialect), driver)
		if err != nil {
			return errors.Wrap(err, "create migrate instance")
		}
		return fn(ctx, m)
	})
}
