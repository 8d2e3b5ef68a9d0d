// Package services contains the petition server's business logic. Each
// operation validates input, resolves the acting identity, checks ownership
// and then persists through repositories vended by a RepositoryManager.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/petitions/petitiond/internal/common"
	"github.com/petitions/petitiond/internal/dbx"
	"github.com/petitions/petitiond/internal/logging"
	"github.com/petitions/petitiond/internal/optional"
	"github.com/petitions/petitiond/internal/server/auth"
	"github.com/petitions/petitiond/internal/server/models"
	"github.com/petitions/petitiond/internal/server/photos"
	"github.com/petitions/petitiond/internal/server/repositories/repomanager"
	"github.com/petitions/petitiond/internal/server/validation"
)

// RegisterRequest is the body of a registration. City and Country are
// validated only when the key is present.
type RegisterRequest struct {
	Name     *string                `json:"name"`
	Email    *string                `json:"email"`
	Password *string                `json:"password"`
	City     optional.Value[string] `json:"city"`
	Country  optional.Value[string] `json:"country"`
}

type LoginRequest struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// UserPatch is a partial user edit. Absent keys keep the stored value.
type UserPatch struct {
	Name            optional.Value[string] `json:"name"`
	Email           optional.Value[string] `json:"email"`
	Password        optional.Value[string] `json:"password"`
	CurrentPassword optional.Value[string] `json:"currentPassword"`
	City            optional.Value[string] `json:"city"`
	Country         optional.Value[string] `json:"country"`
}

func (p *UserPatch) hasChanges() bool {
	return p.Name.Set || p.Email.Set || p.Password.Set || p.City.Set || p.Country.Set
}

// UserService handles accounts, sessions and user photos.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	creds       *auth.Credentials
	guard       *auth.Guard
	photos      photos.Store
	log         logging.Logger
}

// NewUserService wires a UserService.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, creds *auth.Credentials,
	store photos.Store, log logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		creds:       creds,
		guard:       auth.NewGuard(),
		photos:      store,
		log:         log.With("module", "users"),
	}
}

// Register validates and stores a new user and returns its id. Any storage
// failure, a duplicate email included, is reported as a validation error.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (int64, error) {
	if err := validation.Email(req.Email); err != nil {
		return 0, err
	}
	if err := validation.NonEmptyString(req.Name, "name", true); err != nil {
		return 0, err
	}
	if err := validation.Password(req.Password); err != nil {
		return 0, err
	}
	if req.City.Set {
		if err := validation.NonEmptyString(req.City.Ptr(), "city", true); err != nil {
			return 0, err
		}
	}
	if req.Country.Set {
		if err := validation.NonEmptyString(req.Country.Ptr(), "country", true); err != nil {
			return 0, err
		}
	}

	hash, err := s.creds.Hash(*req.Password)
	if err != nil {
		return 0, err
	}

	id, err := s.repomanager.Users(s.db).Create(ctx, &models.User{
		Name:         *req.Name,
		Email:        *req.Email,
		PasswordHash: hash,
		City:         req.City.Ptr(),
		Country:      req.Country.Ptr(),
	})
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return 0, fmt.Errorf("%w: email already in use", common.ErrValidation)
		}
		return 0, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	s.log.Info(ctx, "user registered", "user_id", id)
	return id, nil
}

// Login checks credentials and stores a fresh token in the user's single
// session slot, replacing any earlier one.
func (s *UserService) Login(ctx context.Context, req LoginRequest) (*models.Session, error) {
	if err := validation.Email(req.Email); err != nil {
		return nil, err
	}

	var session *models.Session
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		user, err := repo.GetByEmail(ctx, *req.Email)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return fmt.Errorf("%w: email does not exist", common.ErrValidation)
			}
			return err
		}

		if req.Password == nil || !s.creds.Verify(*req.Password, user.PasswordHash) {
			return fmt.Errorf("%w: incorrect password", common.ErrUnauthorized)
		}

		token, err := s.creds.IssueToken()
		if err != nil {
			return err
		}
		if err := repo.SetToken(ctx, user.ID, token); err != nil {
			return err
		}

		session = &models.Session{UserID: user.ID, Token: token}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "user logged in", "user_id", session.UserID)
	return session, nil
}

// Logout clears the session slot holding token. Logging out twice with the
// same token fails the second time.
func (s *UserService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("%w: missing token", common.ErrUnauthorized)
	}
	n, err := s.repomanager.Users(s.db).ClearToken(ctx, token)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: invalid token", common.ErrUnauthorized)
	}
	return nil
}

// GetUserInfo returns the public profile. The email is included only when
// token is the target user's current session token.
func (s *UserService) GetUserInfo(ctx context.Context, userID int64, token string) (*models.UserInfo, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %d does not exist", common.ErrNotFound, userID)
		}
		return nil, err
	}

	info := &models.UserInfo{Name: user.Name, City: user.City, Country: user.Country}
	if user.AuthToken != nil && token != "" && *user.AuthToken == token {
		info.Email = user.Email
	}
	return info, nil
}

// EditUser applies patch to the caller's own account.
func (s *UserService) EditUser(ctx context.Context, userID int64, token string, patch UserPatch) error {
	repo := s.repomanager.Users(s.db)

	acting, err := s.guard.ResolveIdentity(ctx, repo, token)
	if err != nil {
		return err
	}

	target, err := repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return fmt.Errorf("%w: no user exists with id %d", common.ErrValidation, userID)
		}
		return err
	}

	if err := s.guard.RequireOwnership(acting, target.ID); err != nil {
		return err
	}

	upd, err := s.mergeUser(target, &patch)
	if err != nil {
		return err
	}

	if !patch.hasChanges() {
		return fmt.Errorf("%w: no changes given", common.ErrValidation)
	}

	if err := repo.Update(ctx, userID, *upd); err != nil {
		if dbx.IsUniqueViolation(err) {
			return fmt.Errorf("%w: email already in use", common.ErrValidation)
		}
		return fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	s.log.Info(ctx, "user edited", "user_id", userID)
	return nil
}

// mergeUser validates present fields and builds the update. Name, email and
// password stay nil when absent; city and country carry the merged value.
func (s *UserService) mergeUser(target *models.User, patch *UserPatch) (*models.UserUpdate, error) {
	upd := &models.UserUpdate{City: target.City, Country: target.Country}

	if patch.Name.Set {
		if err := validation.NonEmptyString(patch.Name.Ptr(), "name", true); err != nil {
			return nil, err
		}
		upd.Name = patch.Name.Ptr()
	}

	if patch.Email.Set {
		if err := validation.Email(patch.Email.Ptr()); err != nil {
			return nil, err
		}
		upd.Email = patch.Email.Ptr()
	}

	if patch.Password.Set {
		if !patch.CurrentPassword.Set {
			return nil, fmt.Errorf("%w: need to provide current password", common.ErrValidation)
		}
		current := patch.CurrentPassword.Ptr()
		if err := validation.Password(current); err != nil {
			return nil, err
		}
		if !s.creds.Verify(*current, target.PasswordHash) {
			return nil, fmt.Errorf("%w: current password not matching", common.ErrValidation)
		}
		if err := validation.NonEmptyString(patch.Password.Ptr(), "password", true); err != nil {
			return nil, err
		}
		hash, err := s.creds.Hash(patch.Password.V)
		if err != nil {
			return nil, err
		}
		upd.PasswordHash = &hash
	}

	if patch.City.Set {
		if err := validation.NonEmptyString(patch.City.Ptr(), "city", true); err != nil {
			return nil, err
		}
		upd.City = patch.City.Ptr()
	}

	if patch.Country.Set {
		if err := validation.NonEmptyString(patch.Country.Ptr(), "country", true); err != nil {
			return nil, err
		}
		upd.Country = patch.Country.Ptr()
	}

	return upd, nil
}
