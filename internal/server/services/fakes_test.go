package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/petitions/petitiond/internal/common"
	"github.com/petitions/petitiond/internal/dbx"
	"github.com/petitions/petitiond/internal/logging"
	"github.com/petitions/petitiond/internal/server/auth"
	"github.com/petitions/petitiond/internal/server/models"
	"github.com/petitions/petitiond/internal/server/repositories/categories"
	"github.com/petitions/petitiond/internal/server/repositories/petitions"
	"github.com/petitions/petitiond/internal/server/repositories/signatures"
	"github.com/petitions/petitiond/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// memStore is an in-memory stand-in for the four tables.
type memStore struct {
	mu         sync.Mutex
	users      map[int64]*models.User
	petitions  map[int64]*models.Petition
	categories map[int64]string
	sigs       map[[2]int64]time.Time // {signatory, petition}
	nextUser   int64
	nextPet    int64

	// injected failures
	createUserErr error
	updateUserErr error
	lookupErr     error
}

func newMemStore() *memStore {
	return &memStore{
		users:      map[int64]*models.User{},
		petitions:  map[int64]*models.Petition{},
		categories: map[int64]string{1: "Animal rights", 2: "Environment", 3: "Health"},
		sigs:       map[[2]int64]time.Time{},
	}
}

func uniqueViolation() error {
	return fmt.Errorf("db error: %w", &pgconn.PgError{Code: "23505"})
}

func foreignKeyViolation() error {
	return fmt.Errorf("db error: %w", &pgconn.PgError{Code: "23503"})
}

func cloneUser(u *models.User) *models.User {
	c := *u
	return &c
}

// --- users ---

type memUsers struct{ s *memStore }

func (r memUsers) Create(_ context.Context, u *models.User) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.createUserErr != nil {
		return 0, r.s.createUserErr
	}
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return 0, uniqueViolation()
		}
	}
	r.s.nextUser++
	c := cloneUser(u)
	c.ID = r.s.nextUser
	r.s.users[c.ID] = c
	return c.ID, nil
}

func (r memUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r memUsers) find(match func(*models.User) bool) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.lookupErr != nil {
		return nil, r.s.lookupErr
	}
	for _, u := range r.s.users {
		if match(u) {
			return cloneUser(u), nil
		}
	}
	return nil, common.ErrNotFound
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Email == email })
}

func (r memUsers) GetByToken(_ context.Context, token string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.AuthToken != nil && *u.AuthToken == token })
}

func (r memUsers) SetToken(_ context.Context, id int64, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return common.ErrNotFound
	}
	u.AuthToken = &token
	return nil
}

func (r memUsers) ClearToken(_ context.Context, token string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, u := range r.s.users {
		if u.AuthToken != nil && *u.AuthToken == token {
			u.AuthToken = nil
			n++
		}
	}
	return n, nil
}

func (r memUsers) Update(_ context.Context, id int64, upd models.UserUpdate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.updateUserErr != nil {
		return r.s.updateUserErr
	}
	u, ok := r.s.users[id]
	if !ok {
		return common.ErrNotFound
	}
	if upd.Email != nil {
		for _, other := range r.s.users {
			if other.ID != id && other.Email == *upd.Email {
				return uniqueViolation()
			}
		}
		u.Email = *upd.Email
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.PasswordHash != nil {
		u.PasswordHash = *upd.PasswordHash
	}
	u.City = upd.City
	u.Country = upd.Country
	return nil
}

func (r memUsers) SetPhoto(_ context.Context, id int64, filename *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return common.ErrNotFound
	}
	u.PhotoFilename = filename
	return nil
}

// --- petitions ---

type memPetitions struct{ s *memStore }

func (r memPetitions) countSigs(id int64) int64 {
	var n int64
	for k := range r.s.sigs {
		if k[1] == id {
			n++
		}
	}
	return n
}

func (r memPetitions) List(_ context.Context, f models.PetitionFilter, order models.PetitionSort) ([]models.PetitionSummary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.PetitionSummary, 0)
	for _, p := range r.s.petitions {
		if f.TitleLike != nil && !strings.Contains(strings.ToLower(p.Title), strings.ToLower(*f.TitleLike)) {
			continue
		}
		if f.CategoryID != nil && p.CategoryID != *f.CategoryID {
			continue
		}
		if f.AuthorID != nil && p.AuthorID != *f.AuthorID {
			continue
		}
		out = append(out, models.PetitionSummary{
			ID:             p.ID,
			Title:          p.Title,
			Category:       r.s.categories[p.CategoryID],
			AuthorName:     r.s.users[p.AuthorID].Name,
			SignatureCount: r.countSigs(p.ID),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch order {
		case models.SortSignaturesAsc:
			if a.SignatureCount != b.SignatureCount {
				return a.SignatureCount < b.SignatureCount
			}
		case models.SortAlphabeticalAsc:
			if a.Title != b.Title {
				return a.Title < b.Title
			}
		case models.SortAlphabeticalDesc:
			if a.Title != b.Title {
				return a.Title > b.Title
			}
		default:
			if a.SignatureCount != b.SignatureCount {
				return a.SignatureCount > b.SignatureCount
			}
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (r memPetitions) Get(_ context.Context, id int64) (*models.Petition, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.petitions[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	c := *p
	return &c, nil
}

func (r memPetitions) GetDetail(_ context.Context, id int64) (*models.PetitionDetail, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.petitions[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	author := r.s.users[p.AuthorID]
	return &models.PetitionDetail{
		ID:             p.ID,
		Title:          p.Title,
		Category:       r.s.categories[p.CategoryID],
		AuthorName:     author.Name,
		SignatureCount: r.countSigs(p.ID),
		Description:    p.Description,
		AuthorID:       p.AuthorID,
		AuthorCity:     author.City,
		AuthorCountry:  author.Country,
		CreatedDate:    p.CreatedDate,
		ClosingDate:    p.ClosingDate,
	}, nil
}

func (r memPetitions) Create(_ context.Context, p *models.Petition) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.categories[p.CategoryID]; !ok {
		return 0, foreignKeyViolation()
	}
	r.s.nextPet++
	c := *p
	c.ID = r.s.nextPet
	r.s.petitions[c.ID] = &c
	return c.ID, nil
}

func (r memPetitions) Update(_ context.Context, id int64, upd models.PetitionUpdate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.petitions[id]
	if !ok {
		return common.ErrNotFound
	}
	if upd.Title != nil {
		p.Title = *upd.Title
	}
	if upd.Description != nil {
		p.Description = *upd.Description
	}
	if upd.CategoryID != nil {
		p.CategoryID = *upd.CategoryID
	}
	if upd.ClosingDate != nil {
		p.ClosingDate = upd.ClosingDate
	}
	return nil
}

func (r memPetitions) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.petitions[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.s.petitions, id)
	for k := range r.s.sigs {
		if k[1] == id {
			delete(r.s.sigs, k)
		}
	}
	return nil
}

func (r memPetitions) SetPhoto(_ context.Context, id int64, filename *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.petitions[id]
	if !ok {
		return common.ErrNotFound
	}
	p.PhotoFilename = filename
	return nil
}

// --- categories ---

type memCategories struct{ s *memStore }

func (r memCategories) List(_ context.Context) ([]models.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.Category, 0, len(r.s.categories))
	for id, name := range r.s.categories {
		out = append(out, models.Category{ID: id, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memCategories) Exists(_ context.Context, id int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.categories[id]
	return ok, nil
}

// --- signatures ---

type memSignatures struct{ s *memStore }

func (r memSignatures) ListByPetition(_ context.Context, petitionID int64) ([]models.Signature, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.Signature, 0)
	for k, at := range r.s.sigs {
		if k[1] != petitionID {
			continue
		}
		u := r.s.users[k[0]]
		out = append(out, models.Signature{SignatoryID: u.ID, Name: u.Name, City: u.City, Country: u.Country, SignedDate: at})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SignedDate.Before(out[j].SignedDate) })
	return out, nil
}

func (r memSignatures) Create(_ context.Context, signatoryID, petitionID int64, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	k := [2]int64{signatoryID, petitionID}
	if _, ok := r.s.sigs[k]; ok {
		return uniqueViolation()
	}
	r.s.sigs[k] = at
	return nil
}

func (r memSignatures) Exists(_ context.Context, signatoryID, petitionID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.sigs[[2]int64{signatoryID, petitionID}]
	return ok, nil
}

func (r memSignatures) Delete(_ context.Context, signatoryID, petitionID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	k := [2]int64{signatoryID, petitionID}
	if _, ok := r.s.sigs[k]; !ok {
		return common.ErrNotFound
	}
	delete(r.s.sigs, k)
	return nil
}

// --- manager ---

type fakeRepoManager struct{ s *memStore }

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository              { return memUsers{m.s} }
func (m *fakeRepoManager) Petitions(dbx.DBTX) petitions.Repository      { return memPetitions{m.s} }
func (m *fakeRepoManager) Categories(dbx.DBTX) categories.Repository    { return memCategories{m.s} }
func (m *fakeRepoManager) Signatures(dbx.DBTX) signatures.Repository    { return memSignatures{m.s} }

// --- photo store ---

type memPhotos struct {
	mu    sync.Mutex
	files map[string][]byte
	puts  int
	err   error
}

func newMemPhotos() *memPhotos { return &memPhotos{files: map[string][]byte{}} }

func (p *memPhotos) Put(_ context.Context, name, _ string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.puts++
	p.files[name] = append([]byte(nil), data...)
	return nil
}

func (p *memPhotos) Get(_ context.Context, name string) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	b, ok := p.files[name]
	if !ok {
		return nil, common.ErrNotFound
	}
	return b, nil
}

// --- fixture ---

type fixture struct {
	store    *memStore
	photos   *memPhotos
	db       *sql.DB
	mock     sqlmock.Sqlmock
	users    *UserService
	petition *PetitionService
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := newMemStore()
	ph := newMemPhotos()
	rm := &fakeRepoManager{s: store}
	creds := auth.NewCredentials(bcrypt.MinCost)

	f := &fixture{
		store:  store,
		photos: ph,
		db:     db,
		mock:   mock,
		users:  NewUserService(db, rm, creds, ph, logging.Nop{}),
		now:    time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	f.petition = NewPetitionService(db, rm, ph, logging.Nop{})
	f.petition.now = func() time.Time { return f.now }
	return f
}

func strp(s string) *string { return &s }
func i64p(v int64) *int64   { return &v }

// register creates a user through the service and returns its id.
func (f *fixture) register(t *testing.T, name, email, password string) int64 {
	t.Helper()
	id, err := f.users.Register(context.Background(), RegisterRequest{
		Name: strp(name), Email: strp(email), Password: strp(password),
	})
	require.NoError(t, err)
	return id
}

// login signs a user in through the service, expecting a transaction.
func (f *fixture) login(t *testing.T, email, password string) *models.Session {
	t.Helper()
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	s, err := f.users.Login(context.Background(), LoginRequest{Email: strp(email), Password: strp(password)})
	require.NoError(t, err)
	return s
}

// newUser registers and logs in a user.
func (f *fixture) newUser(t *testing.T, name string) *models.Session {
	t.Helper()
	email := strings.ToLower(name) + "@example.com"
	f.register(t, name, email, "pw-"+name)
	return f.login(t, email, "pw-"+name)
}

// addPetition creates a petition directly in the store.
func (f *fixture) addPetition(author int64, title string, category int64, closing *time.Time) int64 {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	f.store.nextPet++
	id := f.store.nextPet
	f.store.petitions[id] = &models.Petition{
		ID: id, Title: title, Description: "about " + title, AuthorID: author,
		CategoryID: category, CreatedDate: f.now.Add(-time.Hour), ClosingDate: closing,
	}
	return id
}

func (f *fixture) sign(userID, petitionID int64, at time.Time) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	f.store.sigs[[2]int64{userID, petitionID}] = at
}
