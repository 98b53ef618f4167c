package workrequests

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/portfolio/internal/common"
	"github.com/dmitrijs2005/portfolio/internal/dbx"
	"github.com/dmitrijs2005/portfolio/internal/server/models"
	"github.com/dmitrijs2005/portfolio/internal/server/repositories/sqltest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func newRepo(t *testing.T) *SQLRepository {
	t.Helper()
	return NewSQLRepository(sqltest.Open(t), dbx.SQLite)
}

func pending(email, subject string, at time.Time) *models.WorkRequest {
	return &models.WorkRequest{
		RequesterEmail: email, SubjectTitle: subject, Description: "please", CreatedAt: at,
	}
}

func TestCreate_DefaultsToPending(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	w, err := repo.Create(ctx, pending("a@x.io", "Site", t0))
	require.NoError(t, err)
	assert.NotEmpty(t, w.ID)
	assert.Equal(t, models.StatusPending, w.Status)

	got, err := repo.GetByID(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.io", got.RequesterEmail)
	assert.Equal(t, models.StatusPending, got.Status)
	assert.Nil(t, got.RepliedAt)
	assert.True(t, t0.Equal(got.CreatedAt))
}

func TestCreate_SecondPendingViolatesIndex(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, pending("a@x.io", "Site", t0))
	require.NoError(t, err)

	_, err = repo.Create(ctx, pending("a@x.io", "Site", t0))
	require.ErrorIs(t, err, common.ErrUniqueViolation)

	_, err = repo.Create(ctx, pending("a@x.io", "Other", t0))
	require.NoError(t, err, "different subject is a different request")
}

func TestFindPending(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	_, err := repo.FindPending(ctx, "a@x.io", "Site")
	require.ErrorIs(t, err, common.ErrorNotFound)

	w, err := repo.Create(ctx, pending("a@x.io", "Site", t0))
	require.NoError(t, err)

	got, err := repo.FindPending(ctx, "a@x.io", "Site")
	require.NoError(t, err)
	assert.Equal(t, w.ID, got.ID)
}

func TestMarkReplied_ExactlyOnce(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	w, err := repo.Create(ctx, pending("a@x.io", "Site", t0))
	require.NoError(t, err)

	require.NoError(t, repo.MarkReplied(ctx, w.ID, t0.Add(time.Hour)))
	require.ErrorIs(t, repo.MarkReplied(ctx, w.ID, t0.Add(2*time.Hour)), common.ErrAlreadyReplied)

	got, err := repo.GetByID(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReplied, got.Status)
	require.NotNil(t, got.RepliedAt)
	assert.True(t, t0.Add(time.Hour).Equal(*got.RepliedAt))

	_, err = repo.FindPending(ctx, "a@x.io", "Site")
	require.ErrorIs(t, err, common.ErrorNotFound)

	_, err = repo.Create(ctx, pending("a@x.io", "Site", t0.Add(3*time.Hour)))
	require.NoError(t, err, "a replied request frees the pair")
}

func TestList_FiltersByStatus(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	first, err := repo.Create(ctx, pending("a@x.io", "One", t0))
	require.NoError(t, err)
	_, err = repo.Create(ctx, pending("b@x.io", "Two", t0.Add(time.Minute)))
	require.NoError(t, err)
	require.NoError(t, repo.MarkReplied(ctx, first.ID, t0.Add(time.Hour)))

	all, err := repo.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Two", all[0].SubjectTitle)

	replied, err := repo.List(ctx, models.StatusReplied)
	require.NoError(t, err)
	require.Len(t, replied, 1)
	assert.Equal(t, first.ID, replied[0].ID)
}

func TestMarkReplied_PostgresDriverError(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	repo := NewSQLRepository(db, dbx.Postgres)

	id := uuid.NewString()
	mock.ExpectExec(regexp.QuoteMeta(`WHERE id = $3 AND status = $4`)).
		WithArgs("replied", sqlmock.AnyArg(), id, "pending").
		WillReturnError(errors.New("conn reset"))

	err = repo.MarkReplied(context.Background(), id, t0)
	require.Error(t, err)
	assert.Regexp(t, `db error: .*conn reset`, err.Error())
	assert.NotErrorIs(t, err, common.ErrAlreadyReplied)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDialect_MalformedIDIsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	repo := NewSQLRepository(db, dbx.Postgres)
	ctx := context.Background()

	_, err = repo.GetByID(ctx, "abc")
	require.ErrorIs(t, err, common.ErrorNotFound)
	assert.NotErrorIs(t, err, common.ErrorUpstream)

	err = repo.MarkReplied(ctx, "abc", t0)
	require.ErrorIs(t, err, common.ErrorNotFound)
	assert.NotErrorIs(t, err, common.ErrAlreadyReplied)

	require.NoError(t, mock.ExpectationsWereMet())
}
