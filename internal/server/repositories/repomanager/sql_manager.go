package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/portfolio/internal/dbx"
	"github.com/dmitrijs2005/portfolio/internal/server/migrations"
	"github.com/dmitrijs2005/portfolio/internal/server/repositories/contents"
	"github.com/dmitrijs2005/portfolio/internal/server/repositories/principals"
	"github.com/dmitrijs2005/portfolio/internal/server/repositories/workrequests"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// SQLRepositoryManager vends the SQL repositories for one dialect.
type SQLRepositoryManager struct {
	d dbx.Dialect
}

func NewRepositoryManager(d dbx.Dialect) *SQLRepositoryManager {
	return &SQLRepositoryManager{d: d}
}

func (m *SQLRepositoryManager) Dialect() dbx.Dialect { return m.d }

// Contents returns a contents.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Contents(db dbx.DBTX) contents.Repository {
	return contents.NewSQLRepository(db, m.d)
}

// WorkRequests returns a workrequests.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) WorkRequests(db dbx.DBTX) workrequests.Repository {
	return workrequests.NewSQLRepository(db, m.d)
}

// Principals returns a principals.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Principals(db dbx.DBTX) principals.Repository {
	return principals.NewSQLRepository(db, m.d)
}

// migrateUp is a seam for testing migrations.Up.
var migrateUp = migrations.Up

// RunMigrations applies the embedded migrations for the manager's dialect.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	if _, err := migrateUp(ctx, db, m.d); err != nil {
		return err
	}
	return nil
}

// Open connects to the database and verifies the connection. SQLite
// connections get WAL journaling, foreign keys and a busy timeout.
func Open(ctx context.Context, d dbx.Dialect, dsn string) (*sql.DB, error) {
	if d == dbx.SQLite {
		dsn = withSQLitePragmas(dsn)
	}

	db, err := sql.Open(d.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func withSQLitePragmas(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)"
}
