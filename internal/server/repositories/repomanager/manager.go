package repomanager

import (
	"context"
	"database/sql"

	"github.com/petitions/petitiond/internal/dbx"
	"github.com/petitions/petitiond/internal/server/repositories/categories"
	"github.com/petitions/petitiond/internal/server/repositories/petitions"
	"github.com/petitions/petitiond/internal/server/repositories/signatures"
	"github.com/petitions/petitiond/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX so services can run
// the same repository code inside or outside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Petitions(db dbx.DBTX) petitions.Repository
	Categories(db dbx.DBTX) categories.Repository
	Signatures(db dbx.DBTX) signatures.Repository
}
