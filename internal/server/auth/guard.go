package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/petitions/petitiond/internal/common"
	"github.com/petitions/petitiond/internal/server/models"
)

// TokenLookup resolves a session token to its user. The users repository
// satisfies it.
type TokenLookup interface {
	GetByToken(ctx context.Context, token string) (*models.User, error)
}

// Guard resolves the acting identity and enforces ownership.
type Guard struct{}

func NewGuard() *Guard {
	return &Guard{}
}

// ResolveIdentity maps token to a user id. An empty or unknown token yields
// common.ErrUnauthorized.
func (g *Guard) ResolveIdentity(ctx context.Context, lookup TokenLookup, token string) (int64, error) {
	if token == "" {
		return 0, fmt.Errorf("%w: missing token", common.ErrUnauthorized)
	}
	u, err := lookup.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return 0, fmt.Errorf("%w: invalid token", common.ErrUnauthorized)
		}
		return 0, err
	}
	return u.ID, nil
}

// RequireOwnership fails with common.ErrForbidden unless acting owns the resource.
func (g *Guard) RequireOwnership(acting, owner int64) error {
	if acting != owner {
		return fmt.Errorf("%w: not the owner", common.ErrForbidden)
	}
	return nil
}
