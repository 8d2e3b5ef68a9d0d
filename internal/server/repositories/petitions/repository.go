// Package petitions declares the repository contract for petitions and their
// listing and detail projections.
package petitions

import (
	"context"

	"github.com/petitions/petitiond/internal/server/models"
)

// Repository defines persistence operations on petitions.
type Repository interface {
	// List returns summaries matching filter in the given order.
	// Ties are broken by petition id ascending.
	List(ctx context.Context, filter models.PetitionFilter, sort models.PetitionSort) ([]models.PetitionSummary, error)

	// Get returns the raw petition row or common.ErrNotFound.
	Get(ctx context.Context, id int64) (*models.Petition, error)

	// GetDetail returns the joined detail view or common.ErrNotFound.
	GetDetail(ctx context.Context, id int64) (*models.PetitionDetail, error)

	Create(ctx context.Context, p *models.Petition) (int64, error)

	// Update coalesces every nil field with the stored value.
	Update(ctx context.Context, id int64, upd models.PetitionUpdate) error

	Delete(ctx context.Context, id int64) error

	SetPhoto(ctx context.Context, id int64, filename *string) error
}
