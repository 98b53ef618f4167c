// Package repomanager vends repositories bound to a database handle and
// owns schema migrations for the configured dialect.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/portfolio/internal/dbx"
	"github.com/dmitrijs2005/portfolio/internal/server/repositories/contents"
	"github.com/dmitrijs2005/portfolio/internal/server/repositories/principals"
	"github.com/dmitrijs2005/portfolio/internal/server/repositories/workrequests"
)

// RepositoryManager creates repositories bound to either the pool or a
// transaction, so callers pick the scope per operation.
type RepositoryManager interface {
	Dialect() dbx.Dialect
	RunMigrations(ctx context.Context, db *sql.DB) error
	Contents(db dbx.DBTX) contents.Repository
	WorkRequests(db dbx.DBTX) workrequests.Repository
	Principals(db dbx.DBTX) principals.Repository
}
