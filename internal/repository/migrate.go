package repository

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mongodb"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// RunMigrations applies the JSON command migrations in dir to database.
func RunMigrations(dir, uri, database string) error {
	dbURL, err := migrationURL(uri, database)
	if err != nil {
		return err
	}

	m, err := migrate.New(fmt.Sprintf("file://%s", dir), dbURL)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}
	defer m.Close()

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

// migrationURL points uri at database, keeping credentials and options.
func migrationURL(uri, database string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("invalid mongodb uri: %w", err)
	}
	u.Path = "/" + database
	return u.String(), nil
}
