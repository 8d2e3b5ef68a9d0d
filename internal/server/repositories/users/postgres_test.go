package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/petitions/petitiond/internal/common"
	"github.com/petitions/petitiond/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

func strp(s string) *string { return &s }

var userRowColumns = []string{"user_id", "name", "email", "password", "city", "country", "auth_token", "photo_filename"}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+users\s*\(name,\s*email,\s*password,\s*city,\s*country\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5\)\s*RETURNING\s+user_id$`
	mock.ExpectQuery(q).
		WithArgs("Ann", "ann@example.com", "hash", strp("Christchurch"), nil).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(int64(42)))

	id, err := repo.Create(context.Background(), &models.User{
		Name: "Ann", Email: "ann@example.com", PasswordHash: "hash", City: strp("Christchurch"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{Name: "Ann"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetByID_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+user_id,\s*name,\s*email,\s*password,\s*city,\s*country,\s*auth_token,\s*photo_filename\s+FROM\s+users\s+WHERE\s+user_id\s*=\s*\$1$`
	mock.ExpectQuery(q).WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow(int64(7), "Ann", "ann@example.com", "hash", "Christchurch", nil, "tok", nil))

	u, err := repo.GetByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), u.ID)
	assert.Equal(t, "ann@example.com", u.Email)
	require.NotNil(t, u.City)
	assert.Equal(t, "Christchurch", *u.City)
	assert.Nil(t, u.Country)
	require.NotNil(t, u.AuthToken)
	assert.Equal(t, "tok", *u.AuthToken)
	assert.Nil(t, u.PhotoFilename)
}

func TestGetByEmail_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+users\s+WHERE\s+email\s*=\s*\$1`).WithArgs("ghost@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestGetByToken_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+users\s+WHERE\s+auth_token\s*=\s*\$1`).WithArgs("tok").
		WillReturnError(errors.New("db err"))

	_, err := repo.GetByToken(context.Background(), "tok")
	require.Error(t, err)
	assert.False(t, errors.Is(err, common.ErrNotFound))
	assert.Contains(t, err.Error(), "db error")
}

func TestSetToken(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`^UPDATE\s+users\s+SET\s+auth_token\s*=\s*\$1\s+WHERE\s+user_id\s*=\s*\$2$`).
		WithArgs("tok", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetToken(context.Background(), 3, "tok"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClearToken_ReportsRowsAffected(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `^UPDATE\s+users\s+SET\s+auth_token\s*=\s*NULL\s+WHERE\s+auth_token\s*=\s*\$1$`
	mock.ExpectExec(q).WithArgs("tok").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("tok").WillReturnResult(sqlmock.NewResult(0, 0))

	n, err := repo.ClearToken(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.ClearToken(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestUpdate_CoalescesIdentityColumns(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+users\s+SET\s+name\s*=\s*COALESCE\(\$1,\s*name\),\s*email\s*=\s*COALESCE\(\$2,\s*email\),\s*password\s*=\s*COALESCE\(\$3,\s*password\),\s*city\s*=\s*\$4,\s*country\s*=\s*\$5\s+WHERE\s+user_id\s*=\s*\$6$`
	mock.ExpectExec(q).
		WithArgs(strp("Bob"), nil, nil, strp("Auckland"), nil, int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), 5, models.UserUpdate{Name: strp("Bob"), City: strp("Auckland")})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_NoRows(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE\s+users\s+SET`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), 5, models.UserUpdate{})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSetPhoto_SetAndClear(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `^UPDATE\s+users\s+SET\s+photo_filename\s*=\s*\$1\s+WHERE\s+user_id\s*=\s*\$2$`
	mock.ExpectExec(q).WithArgs(strp("user_5.png"), int64(5)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs(nil, int64(5)).WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetPhoto(context.Background(), 5, strp("user_5.png")))
	require.NoError(t, repo.SetPhoto(context.Background(), 5, nil))
	require.NoError(t, mock.ExpectationsWereMet())
}
