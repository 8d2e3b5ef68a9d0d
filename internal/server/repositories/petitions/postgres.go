// Package petitions provides the PostgreSQL-backed petition repository.
package petitions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/petitions/petitiond/internal/common"
	"github.com/petitions/petitiond/internal/dbx"
	"github.com/petitions/petitiond/internal/server/models"
)

// orderClauses maps a sort key to a fixed ORDER BY clause. Only these
// literals ever reach the SQL text.
var orderClauses = map[models.PetitionSort]string{
	models.SortSignaturesDesc:   `signature_count DESC, p.petition_id ASC`,
	models.SortSignaturesAsc:    `signature_count ASC, p.petition_id ASC`,
	models.SortAlphabeticalAsc:  `p.title ASC, p.petition_id ASC`,
	models.SortAlphabeticalDesc: `p.title DESC, p.petition_id ASC`,
}

const listQuery = `SELECT p.petition_id, p.title, c.name, u.name, COUNT(s.petition_id) AS signature_count
	FROM petitions p
	JOIN categories c ON c.category_id = p.category_id
	JOIN users u ON u.user_id = p.author_id
	LEFT JOIN signatures s ON s.petition_id = p.petition_id
	WHERE ($1::text IS NULL OR p.title ILIKE $1)
	  AND ($2::bigint IS NULL OR p.category_id = $2)
	  AND ($3::bigint IS NULL OR p.author_id = $3)
	GROUP BY p.petition_id, p.title, c.name, u.name
	ORDER BY `

// PostgresRepository implements Repository over dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// likePattern turns a plain substring into an ILIKE pattern, escaping the
// wildcard characters so they match literally.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

func (r *PostgresRepository) List(ctx context.Context, filter models.PetitionFilter, sort models.PetitionSort) ([]models.PetitionSummary, error) {
	order, ok := orderClauses[sort]
	if !ok {
		return nil, fmt.Errorf("%w: unknown sort %q", common.ErrValidation, sort)
	}

	var title *string
	if filter.TitleLike != nil {
		p := likePattern(*filter.TitleLike)
		title = &p
	}

	rows, err := r.db.QueryContext(ctx, listQuery+order, title, filter.CategoryID, filter.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.PetitionSummary, 0)
	for rows.Next() {
		var s models.PetitionSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.Category, &s.AuthorName, &s.SignatureCount); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (*models.Petition, error) {
	query :=
		`SELECT petition_id, title, description, author_id, category_id, created_date, closing_date, photo_filename
		 FROM petitions WHERE petition_id = $1`

	p := &models.Petition{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Title, &p.Description, &p.AuthorID, &p.CategoryID, &p.CreatedDate, &p.ClosingDate, &p.PhotoFilename)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) GetDetail(ctx context.Context, id int64) (*models.PetitionDetail, error) {
	query :=
		`SELECT p.petition_id, p.title, c.name, u.name,
		        (SELECT COUNT(*) FROM signatures s WHERE s.petition_id = p.petition_id),
		        p.description, p.author_id, u.city, u.country, p.created_date, p.closing_date
		 FROM petitions p
		 JOIN categories c ON c.category_id = p.category_id
		 JOIN users u ON u.user_id = p.author_id
		 WHERE p.petition_id = $1`

	d := &models.PetitionDetail{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&d.ID, &d.Title, &d.Category, &d.AuthorName, &d.SignatureCount,
		&d.Description, &d.AuthorID, &d.AuthorCity, &d.AuthorCountry, &d.CreatedDate, &d.ClosingDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return d, nil
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.Petition) (int64, error) {
	query :=
		`INSERT INTO petitions (title, description, author_id, category_id, created_date, closing_date)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING petition_id`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		p.Title, p.Description, p.AuthorID, p.CategoryID, p.CreatedDate, p.ClosingDate).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return id, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id int64, upd models.PetitionUpdate) error {
	query :=
		`UPDATE petitions SET
			title = COALESCE($1, title),
			description = COALESCE($2, description),
			category_id = COALESCE($3, category_id),
			closing_date = COALESCE($4, closing_date)
		 WHERE petition_id = $5`

	res, err := r.db.ExecContext(ctx, query, upd.Title, upd.Description, upd.CategoryID, upd.ClosingDate, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM petitions WHERE petition_id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func (r *PostgresRepository) SetPhoto(ctx context.Context, id int64, filename *string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE petitions SET photo_filename = $1 WHERE petition_id = $2`, filename, id)
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
