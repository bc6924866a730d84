// Package sqlitedb stores league documents as JSON rows in SQLite, either a
// local file or a remote libSQL database.
package sqlitedb

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/charmbracelet/log"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Options selects the database. A non-empty PrimaryURL wins over Path.
type Options struct {
	Path        string
	PrimaryURL  string
	AuthToken   string
	MaxAttempts int
}

// Open opens the database and brings its schema up to date.
func Open(ctx context.Context, opts Options) (*Store, error) {
	var (
		db  *sql.DB
		err error
	)
	if opts.PrimaryURL == "" {
		log.Info("Initializing local SQLite document store", "path", opts.Path)
		db, err = sql.Open("sqlite3", "file:"+opts.Path+"?_busy_timeout=5000&_txlock=immediate&_foreign_keys=on")
		if err != nil {
			return nil, fmt.Errorf("failed to open local database: %w", err)
		}
		// A single connection keeps writers from racing each other for the file lock.
		db.SetMaxOpenConns(1)
	} else {
		log.Info("Initializing libSQL document store", "url", opts.PrimaryURL)
		db, err = sql.Open("libsql", opts.PrimaryURL+"?authToken="+opts.AuthToken)
		if err != nil {
			return nil, fmt.Errorf("failed to open db %s: %w", opts.PrimaryURL, err)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := migrate(ctx, db, dialectFor(opts)); err != nil {
		db.Close()
		return nil, err
	}
	return newStore(db, opts.MaxAttempts), nil
}

// dialectFor picks the goose dialect: remote libSQL speaks Turso, local files SQLite.
func dialectFor(opts Options) database.Dialect {
	if opts.PrimaryURL != "" {
		return database.DialectTurso
	}
	return database.DialectSQLite3
}

func migrate(ctx context.Context, db *sql.DB, dialect database.Dialect) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	for _, r := range results {
		log.Info("Applied migration", "version", r.Source.Version, "duration", r.Duration)
	}
	return nil
}
