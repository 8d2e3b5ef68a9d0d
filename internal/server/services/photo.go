package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/petitions/petitiond/internal/common"
	"github.com/petitions/petitiond/internal/server/models"
	"github.com/petitions/petitiond/internal/server/photos"
)

// SetUserPhoto stores the caller's photo. It reports created=true when the
// user had no photo before.
func (s *UserService) SetUserPhoto(ctx context.Context, userID int64, token, contentType string, data []byte) (bool, error) {
	repo := s.repomanager.Users(s.db)

	acting, err := s.guard.ResolveIdentity(ctx, repo, token)
	if err != nil {
		return false, err
	}

	target, err := s.getUser(ctx, userID)
	if err != nil {
		return false, err
	}

	if err := s.guard.RequireOwnership(acting, target.ID); err != nil {
		return false, err
	}

	name, err := storePhoto(ctx, s.photos, photos.KindUser, userID, contentType, data)
	if err != nil {
		return false, err
	}
	if err := repo.SetPhoto(ctx, userID, &name); err != nil {
		return false, err
	}

	s.log.Info(ctx, "user photo set", "user_id", userID, "file", name)
	return target.PhotoFilename == nil, nil
}

// GetUserPhoto returns the user's photo bytes and content type.
func (s *UserService) GetUserPhoto(ctx context.Context, userID int64) (*models.Photo, error) {
	target, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return loadPhoto(ctx, s.photos, target.PhotoFilename)
}

// DeleteUserPhoto detaches the caller's photo. The stored bytes are kept.
func (s *UserService) DeleteUserPhoto(ctx context.Context, userID int64, token string) error {
	repo := s.repomanager.Users(s.db)

	acting, err := s.guard.ResolveIdentity(ctx, repo, token)
	if err != nil {
		return err
	}

	target, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.guard.RequireOwnership(acting, target.ID); err != nil {
		return err
	}

	if target.PhotoFilename == nil {
		return fmt.Errorf("%w: no photo for this user", common.ErrForbidden)
	}

	if err := repo.SetPhoto(ctx, userID, nil); err != nil {
		return err
	}

	s.log.Info(ctx, "user photo removed", "user_id", userID)
	return nil
}

func (s *UserService) getUser(ctx context.Context, id int64) (*models.User, error) {
	u, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %d not found", common.ErrNotFound, id)
		}
		return nil, err
	}
	return u, nil
}

// SetPetitionPhoto stores the photo of a petition the caller authored. It
// reports created=true when the petition had no photo before.
func (s *PetitionService) SetPetitionPhoto(ctx context.Context, petitionID int64, token, contentType string, data []byte) (bool, error) {
	if token == "" {
		return false, fmt.Errorf("%w: missing token", common.ErrUnauthorized)
	}

	repo := s.repomanager.Petitions(s.db)
	p, err := s.getPetition(ctx, repo, petitionID)
	if err != nil {
		return false, err
	}

	acting, err := s.guard.ResolveIdentity(ctx, s.repomanager.Users(s.db), token)
	if err != nil {
		return false, err
	}

	if err := s.guard.RequireOwnership(acting, p.AuthorID); err != nil {
		return false, err
	}

	name, err := storePhoto(ctx, s.photos, photos.KindPetition, petitionID, contentType, data)
	if err != nil {
		return false, err
	}
	if err := repo.SetPhoto(ctx, petitionID, &name); err != nil {
		return false, err
	}

	s.log.Info(ctx, "petition photo set", "petition_id", petitionID, "file", name)
	return p.PhotoFilename == nil, nil
}

// GetPetitionPhoto returns the petition's photo bytes and content type.
func (s *PetitionService) GetPetitionPhoto(ctx context.Context, petitionID int64) (*models.Photo, error) {
	p, err := s.getPetition(ctx, s.repomanager.Petitions(s.db), petitionID)
	if err != nil {
		return nil, err
	}
	return loadPhoto(ctx, s.photos, p.PhotoFilename)
}

// storePhoto checks the content type before writing anything and returns
// the stored name.
func storePhoto(ctx context.Context, store photos.Store, kind string, id int64, contentType string, data []byte) (string, error) {
	name, err := photos.FileName(kind, id, contentType)
	if err != nil {
		return "", err
	}
	if err := store.Put(ctx, name, contentType, data); err != nil {
		return "", err
	}
	return name, nil
}

func loadPhoto(ctx context.Context, store photos.Store, filename *string) (*models.Photo, error) {
	if filename == nil {
		return nil, fmt.Errorf("%w: no photo", common.ErrNotFound)
	}

	contentType, err := photos.ContentTypeFor(*filename)
	if err != nil {
		return nil, err
	}

	data, err := store.Get(ctx, *filename)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("%w: photo file missing", common.ErrNotFound)
		}
		return nil, err
	}

	return &models.Photo{Data: data, ContentType: contentType}, nil
}
