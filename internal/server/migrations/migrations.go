// Package migrations embeds the goose SQL migrations for every supported
// dialect and applies them. Each dialect lives in its own directory.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/dmitrijs2005/portfolio/internal/dbx"
	"github.com/pressly/goose/v3"
)

//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS

// Up applies every pending migration for the dialect and returns the
// number of migrations run.
func Up(ctx context.Context, db *sql.DB, d dbx.Dialect) (int, error) {
	gooseDialect := goose.DialectSQLite3
	if d == dbx.Postgres {
		gooseDialect = goose.DialectPostgres
	}

	sub, err := fs.Sub(FS, d.String())
	if err != nil {
		return 0, fmt.Errorf("migrations: %w", err)
	}

	provider, err := goose.NewProvider(gooseDialect, db, sub)
	if err != nil {
		return 0, fmt.Errorf("migrations: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return 0, fmt.Errorf("migrations: %w", err)
	}
	return len(results), nil
}
