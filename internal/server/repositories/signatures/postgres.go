package signatures

import (
	"context"
	"fmt"
	"time"

	"github.com/petitions/petitiond/internal/common"
	"github.com/petitions/petitiond/internal/dbx"
	"github.com/petitions/petitiond/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ListByPetition(ctx context.Context, petitionID int64) ([]models.Signature, error) {
	query :=
		`SELECT s.signatory_id, u.name, u.city, u.country, s.signed_date
		 FROM signatures s
		 JOIN users u ON u.user_id = s.signatory_id
		 WHERE s.petition_id = $1
		 ORDER BY s.signed_date ASC, s.signatory_id ASC`

	rows, err := r.db.QueryContext(ctx, query, petitionID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.Signature, 0)
	for rows.Next() {
		var s models.Signature
		if err := rows.Scan(&s.SignatoryID, &s.Name, &s.City, &s.Country, &s.SignedDate); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Create(ctx context.Context, signatoryID, petitionID int64, signedAt time.Time) error {
	query := `INSERT INTO signatures (signatory_id, petition_id, signed_date) VALUES ($1, $2, $3)`
	if _, err := r.db.ExecContext(ctx, query, signatoryID, petitionID, signedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Exists(ctx context.Context, signatoryID, petitionID int64) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM signatures WHERE signatory_id = $1 AND petition_id = $2)`,
		signatoryID, petitionID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, signatoryID, petitionID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM signatures WHERE signatory_id = $1 AND petition_id = $2`, signatoryID, petitionID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
