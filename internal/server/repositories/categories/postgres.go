package categories

import (
	"context"
	"fmt"

	"github.com/petitions/petitiond/internal/dbx"
	"github.com/petitions/petitiond/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// List returns all categories ordered by id.
func (r *PostgresRepository) List(ctx context.Context) ([]models.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT category_id, name FROM categories ORDER BY category_id`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.Category, 0)
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM categories WHERE category_id = $1)`, id).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}
