// Package users declares the server-side repository contract for user rows,
// including the single-slot session token and the photo filename.
package users

import (
	"context"

	"github.com/petitions/petitiond/internal/server/models"
)

// Repository defines persistence operations on users.
// Lookups return common.ErrNotFound when no row matches.
type Repository interface {
	// Create inserts a user and returns the generated id.
	Create(ctx context.Context, user *models.User) (int64, error)

	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// GetByToken resolves an active session token to its user.
	GetByToken(ctx context.Context, token string) (*models.User, error)

	// SetToken overwrites the user's session slot.
	SetToken(ctx context.Context, id int64, token string) error

	// ClearToken empties the slot holding token and reports how many rows changed.
	ClearToken(ctx context.Context, token string) (int64, error)

	Update(ctx context.Context, id int64, upd models.UserUpdate) error

	// SetPhoto records (or clears, with nil) the stored photo filename.
	SetPhoto(ctx context.Context, id int64, filename *string) error
}
