package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

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

// PetitionQuery holds the raw listing parameters. A nil field means the
// parameter was not supplied.
type PetitionQuery struct {
	Q          *string
	CategoryID *string
	AuthorID   *string
	StartIndex *string
	Count      *string
	SortBy     *string
}

// NewPetition is the body of a petition creation. CategoryID must be a JSON
// number; ClosingDate is optional.
type NewPetition struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	CategoryID  *int64  `json:"categoryId"`
	ClosingDate *string `json:"closingDate"`
}

// PetitionPatch is a partial petition edit. Absent keys keep the stored value.
type PetitionPatch struct {
	Title       optional.Value[string] `json:"title"`
	Description optional.Value[string] `json:"description"`
	CategoryID  optional.Value[int64]  `json:"categoryId"`
	ClosingDate optional.Value[string] `json:"closingDate"`
}

// PetitionService handles petitions, categories, signatures and petition photos.
type PetitionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	guard       *auth.Guard
	photos      photos.Store
	log         logging.Logger
	now         func() time.Time
}

// NewPetitionService wires a PetitionService.
func NewPetitionService(db *sql.DB, m repomanager.RepositoryManager, store photos.Store, log logging.Logger) *PetitionService {
	return &PetitionService{
		db:          db,
		repomanager: m,
		guard:       auth.NewGuard(),
		photos:      store,
		log:         log.With("module", "petitions"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// GetPetitions lists petitions matching q, filtered, sorted and then sliced
// to [startIndex, startIndex+count) of the full result.
func (s *PetitionService) GetPetitions(ctx context.Context, q PetitionQuery) ([]models.PetitionSummary, error) {
	var filter models.PetitionFilter

	if q.Q != nil {
		title := strings.TrimSuffix(strings.TrimPrefix(*q.Q, `"`), `"`)
		if err := validation.NonEmptyString(&title, "q", true); err != nil {
			return nil, err
		}
		filter.TitleLike = &title
	}

	var err error
	if q.CategoryID != nil {
		if filter.CategoryID, err = validation.NonNegativeInteger(q.CategoryID, "category ID", true); err != nil {
			return nil, err
		}
	}
	if q.AuthorID != nil {
		if filter.AuthorID, err = validation.NonNegativeInteger(q.AuthorID, "author ID", true); err != nil {
			return nil, err
		}
	}

	sort := models.SortSignaturesDesc
	if q.SortBy != nil {
		sort = models.PetitionSort(*q.SortBy)
		if !sort.Valid() {
			return nil, fmt.Errorf("%w: sortBy parameter has invalid value: %s", common.ErrValidation, *q.SortBy)
		}
	}

	var start, count *int64
	if q.StartIndex != nil {
		if start, err = validation.NonNegativeInteger(q.StartIndex, "startIndex", true); err != nil {
			return nil, err
		}
	}
	if q.Count != nil {
		if count, err = validation.NonNegativeInteger(q.Count, "count", true); err != nil {
			return nil, err
		}
	}

	rows, err := s.repomanager.Petitions(s.db).List(ctx, filter, sort)
	if err != nil {
		return nil, err
	}

	return paginate(rows, start, count), nil
}

// paginate slices rows to [start, start+count), clamped to len(rows).
// A nil count means "to the end".
func paginate[T any](rows []T, start, count *int64) []T {
	n := int64(len(rows))
	from := int64(0)
	if start != nil {
		from = min(*start, n)
	}
	to := n
	if count != nil && *count < n-from {
		to = from + *count
	}
	return rows[from:to]
}

// AddPetition creates a petition authored by the caller and returns its id.
// Failures other than authentication are reported as validation errors.
func (s *PetitionService) AddPetition(ctx context.Context, token string, req NewPetition) (int64, error) {
	author, err := s.guard.ResolveIdentity(ctx, s.repomanager.Users(s.db), token)
	if err != nil {
		if errors.Is(err, common.ErrUnauthorized) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	now := s.now()
	if err := validation.NonEmptyString(req.Title, "title", true); err != nil {
		return 0, err
	}
	if err := validation.NonEmptyString(req.Description, "description", true); err != nil {
		return 0, err
	}
	if err := validation.NonNegativeID(req.CategoryID, "category ID"); err != nil {
		return 0, err
	}

	var closing *time.Time
	if req.ClosingDate != nil {
		t, err := validation.FutureDate(now, *req.ClosingDate)
		if err != nil {
			return 0, err
		}
		closing = &t
	}

	id, err := s.repomanager.Petitions(s.db).Create(ctx, &models.Petition{
		Title:       *req.Title,
		Description: *req.Description,
		AuthorID:    author,
		CategoryID:  *req.CategoryID,
		CreatedDate: now,
		ClosingDate: closing,
	})
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return 0, fmt.Errorf("%w: category %d does not exist", common.ErrValidation, *req.CategoryID)
		}
		return 0, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	s.log.Info(ctx, "petition created", "petition_id", id, "author_id", author)
	return id, nil
}

// GetPetition returns the joined detail view of one petition.
func (s *PetitionService) GetPetition(ctx context.Context, id int64) (*models.PetitionDetail, error) {
	d, err := s.repomanager.Petitions(s.db).GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("%w: petition with id %d does not exist", common.ErrNotFound, id)
		}
		return nil, err
	}
	return d, nil
}

// EditPetition applies patch to a petition the caller authored, provided it
// has not closed yet.
func (s *PetitionService) EditPetition(ctx context.Context, id int64, token string, patch PetitionPatch) error {
	acting, err := s.guard.ResolveIdentity(ctx, s.repomanager.Users(s.db), token)
	if err != nil {
		return err
	}

	repo := s.repomanager.Petitions(s.db)
	p, err := s.getPetition(ctx, repo, id)
	if err != nil {
		return err
	}

	if err := s.guard.RequireOwnership(acting, p.AuthorID); err != nil {
		return err
	}

	now := s.now()
	if p.IsClosed(now) {
		return fmt.Errorf("%w: cannot edit a petition that has closed", common.ErrValidation)
	}

	var upd models.PetitionUpdate

	if patch.Title.Set {
		if err := validation.NonEmptyString(patch.Title.Ptr(), "title", true); err != nil {
			return err
		}
		upd.Title = patch.Title.Ptr()
	}

	if patch.Description.Set {
		if err := validation.NonEmptyString(patch.Description.Ptr(), "description", true); err != nil {
			return err
		}
		upd.Description = patch.Description.Ptr()
	}

	if patch.ClosingDate.Set {
		if patch.ClosingDate.Null || patch.ClosingDate.V == "" {
			return fmt.Errorf("%w: invalid closing date: cannot be null", common.ErrValidation)
		}
		t, err := validation.FutureDate(now, patch.ClosingDate.V)
		if err != nil {
			return err
		}
		upd.ClosingDate = &t
	}

	if patch.CategoryID.Set {
		if err := validation.NonNegativeID(patch.CategoryID.Ptr(), "category ID"); err != nil {
			return err
		}
		ok, err := s.repomanager.Categories(s.db).Exists(ctx, patch.CategoryID.V)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: category id %d is not an existing category", common.ErrValidation, patch.CategoryID.V)
		}
		upd.CategoryID = patch.CategoryID.Ptr()
	}

	if err := repo.Update(ctx, id, upd); err != nil {
		return err
	}

	s.log.Info(ctx, "petition edited", "petition_id", id)
	return nil
}

// GetAllCategories returns the category reference list.
func (s *PetitionService) GetAllCategories(ctx context.Context) ([]models.Category, error) {
	return s.repomanager.Categories(s.db).List(ctx)
}

// DeletePetition removes a petition the caller authored. Its signatures go
// with it through the foreign key cascade.
func (s *PetitionService) DeletePetition(ctx context.Context, id int64, token string) error {
	if token == "" {
		return fmt.Errorf("%w: missing token", common.ErrUnauthorized)
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Petitions(tx)

		p, err := s.getPetition(ctx, repo, id)
		if err != nil {
			return err
		}

		acting, err := s.guard.ResolveIdentity(ctx, s.repomanager.Users(tx), token)
		if err != nil {
			return err
		}

		if err := s.guard.RequireOwnership(acting, p.AuthorID); err != nil {
			return err
		}

		return repo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.log.Info(ctx, "petition deleted", "petition_id", id)
	return nil
}

type petitionGetter interface {
	Get(ctx context.Context, id int64) (*models.Petition, error)
}

func (s *PetitionService) getPetition(ctx context.Context, repo petitionGetter, id int64) (*models.Petition, error) {
	p, err := repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("%w: petition with id %d does not exist", common.ErrNotFound, id)
		}
		return nil, err
	}
	return p, nil
}
