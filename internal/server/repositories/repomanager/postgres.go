// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/petitions/petitiond/internal/dbx"
	"github.com/petitions/petitiond/internal/server/migrations"
	"github.com/petitions/petitiond/internal/server/repositories/categories"
	"github.com/petitions/petitiond/internal/server/repositories/petitions"
	"github.com/petitions/petitiond/internal/server/repositories/signatures"
	"github.com/petitions/petitiond/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repositories.
type PostgresRepositoryManager struct{}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Petitions(db dbx.DBTX) petitions.Repository {
	return petitions.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Categories(db dbx.DBTX) categories.Repository {
	return categories.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Signatures(db dbx.DBTX) signatures.Repository {
	return signatures.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded schema and seed migrations.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager() RepositoryManager {
	return &PostgresRepositoryManager{}
}
