package services

import (
	"context"
	"fmt"

	"github.com/petitions/petitiond/internal/common"
	"github.com/petitions/petitiond/internal/server/models"
)

// GetSignatures lists a petition's signatories, earliest first.
func (s *PetitionService) GetSignatures(ctx context.Context, petitionID int64) ([]models.Signature, error) {
	if _, err := s.getPetition(ctx, s.repomanager.Petitions(s.db), petitionID); err != nil {
		return nil, err
	}
	return s.repomanager.Signatures(s.db).ListByPetition(ctx, petitionID)
}

// Sign records the caller's signature. The composite key rejects a second
// signature, including one from a concurrent request, which surfaces as
// common.ErrForbidden.
func (s *PetitionService) Sign(ctx context.Context, petitionID int64, token string) error {
	if token == "" {
		return fmt.Errorf("%w: missing token", common.ErrUnauthorized)
	}

	if _, err := s.getPetition(ctx, s.repomanager.Petitions(s.db), petitionID); err != nil {
		return err
	}

	acting, err := s.guard.ResolveIdentity(ctx, s.repomanager.Users(s.db), token)
	if err != nil {
		return err
	}

	if err := s.repomanager.Signatures(s.db).Create(ctx, acting, petitionID, s.now()); err != nil {
		return fmt.Errorf("%w: cannot sign petition %d: %v", common.ErrForbidden, petitionID, err)
	}

	s.log.Info(ctx, "petition signed", "petition_id", petitionID, "user_id", acting)
	return nil
}

// Unsign removes the caller's signature.
func (s *PetitionService) Unsign(ctx context.Context, petitionID int64, token string) error {
	acting, err := s.guard.ResolveIdentity(ctx, s.repomanager.Users(s.db), token)
	if err != nil {
		return err
	}

	if _, err := s.getPetition(ctx, s.repomanager.Petitions(s.db), petitionID); err != nil {
		return err
	}

	repo := s.repomanager.Signatures(s.db)
	signed, err := repo.Exists(ctx, acting, petitionID)
	if err != nil {
		return err
	}
	if !signed {
		return fmt.Errorf("%w: cannot unsign from a petition you haven't signed", common.ErrForbidden)
	}

	if err := repo.Delete(ctx, acting, petitionID); err != nil {
		return fmt.Errorf("%w: %v", common.ErrForbidden, err)
	}

	s.log.Info(ctx, "petition unsigned", "petition_id", petitionID, "user_id", acting)
	return nil
}
