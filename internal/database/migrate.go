package database

// migrate.go applies the embedded goose migrations on startup.
// The same migrations can be run with the goose CLI (see tools.go) during
// development.

import (
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Migrate brings the database schema up to date.
func Migrate(pool *pgxpool.Pool) error {
	goose.SetBaseFS(schemaFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool)
	defer func() { _ = db.Close() }()

	if err := goose.Up(db, "schema"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}
