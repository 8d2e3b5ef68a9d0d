// Package signatures declares the repository contract for petition signatures.
package signatures

import (
	"context"
	"time"

	"github.com/petitions/petitiond/internal/server/models"
)

type Repository interface {
	// ListByPetition returns signatories ordered by signed date ascending.
	ListByPetition(ctx context.Context, petitionID int64) ([]models.Signature, error)

	// Create records a signature. A second signature by the same user fails
	// with a unique violation on the composite key.
	Create(ctx context.Context, signatoryID, petitionID int64, signedAt time.Time) error

	Exists(ctx context.Context, signatoryID, petitionID int64) (bool, error)
	Delete(ctx context.Context, signatoryID, petitionID int64) error
}
