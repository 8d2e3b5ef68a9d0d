package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/petitions/petitiond/internal/common"
	"github.com/petitions/petitiond/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLookup struct {
	users map[string]int64
	err   error
	calls int
}

func (f *fakeLookup) GetByToken(_ context.Context, token string) (*models.User, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	id, ok := f.users[token]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &models.User{ID: id}, nil
}

func TestResolveIdentity(t *testing.T) {
	g := NewGuard()
	lookup := &fakeLookup{users: map[string]int64{"tok": 7}}

	id, err := g.ResolveIdentity(context.Background(), lookup, "tok")
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
}

func TestResolveIdentity_EmptyTokenSkipsLookup(t *testing.T) {
	g := NewGuard()
	lookup := &fakeLookup{}

	_, err := g.ResolveIdentity(context.Background(), lookup, "")
	assert.ErrorIs(t, err, common.ErrUnauthorized)
	assert.Zero(t, lookup.calls)
}

func TestResolveIdentity_UnknownToken(t *testing.T) {
	g := NewGuard()

	_, err := g.ResolveIdentity(context.Background(), &fakeLookup{}, "nope")
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestResolveIdentity_StorageErrorPassesThrough(t *testing.T) {
	g := NewGuard()
	boom := errors.New("db down")

	_, err := g.ResolveIdentity(context.Background(), &fakeLookup{err: boom}, "tok")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, common.ErrUnauthorized)
}

func TestRequireOwnership(t *testing.T) {
	g := NewGuard()
	assert.NoError(t, g.RequireOwnership(3, 3))
	assert.ErrorIs(t, g.RequireOwnership(3, 4), common.ErrForbidden)
}
