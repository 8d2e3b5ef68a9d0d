package httpapi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/petitions/petitiond/internal/logging"
	"github.com/petitions/petitiond/internal/server/metrics"
	"github.com/petitions/petitiond/internal/server/models"
	"github.com/petitions/petitiond/internal/server/services"
)

// fakeUsers records the last call and answers from its fields.
type fakeUsers struct {
	calls     []string
	lastToken string
	lastID    int64
	register  services.RegisterRequest
	patch     services.UserPatch
	photoType string
	photoData []byte

	session *models.Session
	info    *models.UserInfo
	photo   *models.Photo
	created bool
	err     error
}

func (f *fakeUsers) called(name string, id int64, token string) {
	f.calls = append(f.calls, name)
	f.lastID = id
	f.lastToken = token
}

func (f *fakeUsers) Register(_ context.Context, req services.RegisterRequest) (int64, error) {
	f.called("Register", 0, "")
	f.register = req
	return 7, f.err
}

func (f *fakeUsers) Login(_ context.Context, req services.LoginRequest) (*models.Session, error) {
	f.called("Login", 0, "")
	return f.session, f.err
}

func (f *fakeUsers) Logout(_ context.Context, token string) error {
	f.called("Logout", 0, token)
	return f.err
}

func (f *fakeUsers) GetUserInfo(_ context.Context, id int64, token string) (*models.UserInfo, error) {
	f.called("GetUserInfo", id, token)
	return f.info, f.err
}

func (f *fakeUsers) EditUser(_ context.Context, id int64, token string, patch services.UserPatch) error {
	f.called("EditUser", id, token)
	f.patch = patch
	return f.err
}

func (f *fakeUsers) SetUserPhoto(_ context.Context, id int64, token, contentType string, data []byte) (bool, error) {
	f.called("SetUserPhoto", id, token)
	f.photoType, f.photoData = contentType, data
	return f.created, f.err
}

func (f *fakeUsers) GetUserPhoto(_ context.Context, id int64) (*models.Photo, error) {
	f.called("GetUserPhoto", id, "")
	return f.photo, f.err
}

func (f *fakeUsers) DeleteUserPhoto(_ context.Context, id int64, token string) error {
	f.called("DeleteUserPhoto", id, token)
	return f.err
}

type fakePetitions struct {
	calls     []string
	lastToken string
	lastID    int64
	query     services.PetitionQuery
	added     services.NewPetition
	patch     services.PetitionPatch
	photoType string

	list    []models.PetitionSummary
	detail  *models.PetitionDetail
	cats    []models.Category
	sigs    []models.Signature
	photo   *models.Photo
	created bool
	err     error
}

func (f *fakePetitions) called(name string, id int64, token string) {
	f.calls = append(f.calls, name)
	f.lastID = id
	f.lastToken = token
}

func (f *fakePetitions) GetPetitions(_ context.Context, q services.PetitionQuery) ([]models.PetitionSummary, error) {
	f.called("GetPetitions", 0, "")
	f.query = q
	return f.list, f.err
}

func (f *fakePetitions) AddPetition(_ context.Context, token string, req services.NewPetition) (int64, error) {
	f.called("AddPetition", 0, token)
	f.added = req
	return 11, f.err
}

func (f *fakePetitions) GetPetition(_ context.Context, id int64) (*models.PetitionDetail, error) {
	f.called("GetPetition", id, "")
	return f.detail, f.err
}

func (f *fakePetitions) EditPetition(_ context.Context, id int64, token string, patch services.PetitionPatch) error {
	f.called("EditPetition", id, token)
	f.patch = patch
	return f.err
}

func (f *fakePetitions) DeletePetition(_ context.Context, id int64, token string) error {
	f.called("DeletePetition", id, token)
	return f.err
}

func (f *fakePetitions) GetAllCategories(context.Context) ([]models.Category, error) {
	f.called("GetAllCategories", 0, "")
	return f.cats, f.err
}

func (f *fakePetitions) GetSignatures(_ context.Context, id int64) ([]models.Signature, error) {
	f.called("GetSignatures", id, "")
	return f.sigs, f.err
}

func (f *fakePetitions) Sign(_ context.Context, id int64, token string) error {
	f.called("Sign", id, token)
	return f.err
}

func (f *fakePetitions) Unsign(_ context.Context, id int64, token string) error {
	f.called("Unsign", id, token)
	return f.err
}

func (f *fakePetitions) SetPetitionPhoto(_ context.Context, id int64, token, contentType string, _ []byte) (bool, error) {
	f.called("SetPetitionPhoto", id, token)
	f.photoType = contentType
	return f.created, f.err
}

func (f *fakePetitions) GetPetitionPhoto(_ context.Context, id int64) (*models.Photo, error) {
	f.called("GetPetitionPhoto", id, "")
	return f.photo, f.err
}

type harness struct {
	users     *fakeUsers
	petitions *fakePetitions
	metrics   *metrics.Metrics
	handler   http.Handler
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	h := &harness{
		users:     &fakeUsers{},
		petitions: &fakePetitions{},
		metrics:   metrics.New(),
	}
	h.handler = NewServer(opts, logging.Nop{}, h.users, h.petitions, h.metrics).Handler()
	return h
}

// do sends a request; headers are name/value pairs.
func (h *harness) do(method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}
