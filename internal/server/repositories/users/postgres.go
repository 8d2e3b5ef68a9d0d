// Package users provides the PostgreSQL-backed user repository.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/petitions/petitiond/internal/common"
	"github.com/petitions/petitiond/internal/dbx"
	"github.com/petitions/petitiond/internal/server/models"
)

const userColumns = `user_id, name, email, password, city, country, auth_token, photo_filename`

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (int64, error) {
	query :=
		`INSERT INTO users (name, email, password, city, country)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING user_id`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		user.Name, user.Email, user.PasswordHash, user.City, user.Country).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return id, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.getOne(ctx, query, email)
}

func (r *PostgresRepository) GetByToken(ctx context.Context, token string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE auth_token = $1`
	return r.getOne(ctx, query, token)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	u := &models.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.City, &u.Country, &u.AuthToken, &u.PhotoFilename)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) SetToken(ctx context.Context, id int64, token string) error {
	query := `UPDATE users SET auth_token = $1 WHERE user_id = $2`
	if _, err := r.db.ExecContext(ctx, query, token, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ClearToken(ctx context.Context, token string) (int64, error) {
	query := `UPDATE users SET auth_token = NULL WHERE auth_token = $1`
	res, err := r.db.ExecContext(ctx, query, token)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}

// Update coalesces name, email and password; city and country are written as given.
func (r *PostgresRepository) Update(ctx context.Context, id int64, upd models.UserUpdate) error {
	query :=
		`UPDATE users SET
			name = COALESCE($1, name),
			email = COALESCE($2, email),
			password = COALESCE($3, password),
			city = $4,
			country = $5
		 WHERE user_id = $6`
	res, err := r.db.ExecContext(ctx, query, upd.Name, upd.Email, upd.PasswordHash, upd.City, upd.Country, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func (r *PostgresRepository) SetPhoto(ctx context.Context, id int64, filename *string) error {
	query := `UPDATE users SET photo_filename = $1 WHERE user_id = $2`
	res, err := r.db.ExecContext(ctx, query, filename, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
