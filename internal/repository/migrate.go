package repository

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
)

var candidatesDDL = map[string][]string{
	dialect.Postgres: {
		`CREATE TABLE IF NOT EXISTS candidates (
	id             BIGSERIAL PRIMARY KEY,
	name           TEXT,
	gender         TEXT,
	date_of_birth  TEXT,
	fathers_name   TEXT,
	aadhar_no      TEXT UNIQUE,
	pan_no         TEXT UNIQUE,
	street_address TEXT,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	},
	dialect.SQLite: {
		`CREATE TABLE IF NOT EXISTS candidates (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	name           TEXT,
	gender         TEXT,
	date_of_birth  TEXT,
	fathers_name   TEXT,
	aadhar_no      TEXT UNIQUE,
	pan_no         TEXT UNIQUE,
	street_address TEXT,
	created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
	},
}

// Migrate creates the candidates table if it does not exist.
func Migrate(ctx context.Context, db *DB) error {
	stmts, ok := candidatesDDL[db.Dialect()]
	if !ok {
		return fmt.Errorf("no schema for dialect %q", db.Dialect())
	}
	for _, stmt := range stmts {
		if err := db.Driver.Exec(ctx, stmt, []any{}, nil); err != nil {
			db.logger.Error("repository.migrate.failed", "dialect", db.Dialect(), "error", err)
			return fmt.Errorf("migrate: %w", err)
		}
	}
	db.logger.Info("repository.migrate.ok", "dialect", db.Dialect())
	return nil
}
