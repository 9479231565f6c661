package repository

import (
	"context"
	"regexp"
	"testing"

	"postboard/internal/models"
	"postboard/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestFollowRepository_CreateUsesOnConflictDoNothing(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewFollowRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "follows" ("user_id","author_id","created_at") VALUES ($1,$2,$3) ON CONFLICT ("user_id","author_id") DO NOTHING RETURNING "id"`)).
		WithArgs(1, 2, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))
	mock.ExpectCommit()

	created, err := repo.Create(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFollowRepository_CreateSQLite(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	a := testutil.CreateUser(t, db, "alice")
	b := testutil.CreateUser(t, db, "bob")

	created, err := repo.Create(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.Create(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, created, "second insert must be absorbed by the unique index")

	n, err := repo.CountFollowers(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.CountFollowing(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.CountFollowers(ctx, a.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestFollowRepository_DeleteAndExists(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	a := testutil.CreateUser(t, db, "alice")
	b := testutil.CreateUser(t, db, "bob")

	removed, err := repo.Delete(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	testutil.Follow(t, db, a, b)
	ok, err := repo.Exists(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.Exists(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.False(t, ok, "edges are directed")

	removed, err = repo.Delete(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	ok, _ = repo.Exists(ctx, a.ID, b.ID)
	assert.False(t, ok)
}

func TestFollowRepository_Lists(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	author := testutil.CreateUser(t, db, "author")
	zed := testutil.CreateUser(t, db, "zed")
	amy := testutil.CreateUser(t, db, "amy")
	testutil.Follow(t, db, zed, author)
	testutil.Follow(t, db, amy, author)
	testutil.Follow(t, db, amy, zed)

	followers, err := repo.ListFollowers(ctx, author.ID)
	require.NoError(t, err)
	require.Len(t, followers, 2)
	assert.Equal(t, "amy", followers[0].Username)
	assert.Equal(t, "zed", followers[1].Username)

	following, err := repo.ListFollowing(ctx, amy.ID)
	require.NoError(t, err)
	require.Len(t, following, 2)
	assert.Equal(t, "author", following[0].Username)

	ids, err := repo.FollowerIDs(ctx, author.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{zed.ID, amy.ID}, ids)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23514"}))
	assert.False(t, isUniqueViolation(nil))
	assert.False(t, isUniqueViolation(models.NewInternalError(nil)))
}
