// Package categories exposes the read-only petition category reference data.
package categories

import (
	"context"

	"github.com/petitions/petitiond/internal/server/models"
)

type Repository interface {
	List(ctx context.Context) ([]models.Category, error)
	Exists(ctx context.Context, id int64) (bool, error)
}
