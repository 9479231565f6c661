package service

import (
	"context"
	"testing"
	"time"

	"postboard/internal/models"
	"postboard/internal/repository"
	"postboard/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newSQLiteFeedService(t *testing.T) (*gorm.DB, *FeedService) {
	db := testutil.NewSQLiteDB(t)
	users := repository.NewUserRepository(db)
	follows := NewFollowService(repository.NewFollowRepository(db), users, nil)
	return db, NewFeedService(repository.NewPostRepository(db), users, repository.NewGroupRepository(db), follows)
}

func TestFeedService_ClampsPageNumber(t *testing.T) {
	var gotOffset, gotLimit int
	posts := &postRepoStub{
		countFn: func(context.Context, repository.PostFilter) (int64, error) { return 25, nil },
		listFn: func(_ context.Context, _ repository.PostFilter, offset, limit int) ([]models.Post, error) {
			gotOffset, gotLimit = offset, limit
			return []models.Post{{ID: 1}}, nil
		},
	}
	svc := NewFeedService(posts, &userRepoStub{}, &groupRepoStub{}, nil)

	feed, err := svc.Global(context.Background(), 99)
	require.NoError(t, err)
	assert.Equal(t, 3, feed.Page.Number)
	assert.Equal(t, 3, feed.Page.NumPages)
	assert.Equal(t, 20, gotOffset)
	assert.Equal(t, 10, gotLimit)
	assert.False(t, feed.Page.HasNext)

	feed, err = svc.Global(context.Background(), -4)
	require.NoError(t, err)
	assert.Equal(t, 1, feed.Page.Number)
	assert.Equal(t, 0, gotOffset)
}

func TestFeedService_EmptyFeedHasOnePage(t *testing.T) {
	posts := &postRepoStub{
		countFn: func(context.Context, repository.PostFilter) (int64, error) { return 0, nil },
		listFn: func(context.Context, repository.PostFilter, int, int) ([]models.Post, error) {
			t.Fatal("an empty feed needs no list query")
			return nil, nil
		},
	}
	svc := NewFeedService(posts, &userRepoStub{}, &groupRepoStub{}, nil)

	feed, err := svc.Global(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 1, feed.Page.NumPages)
	assert.NotNil(t, feed.Posts)
	assert.Empty(t, feed.Posts)
}

func TestFeedService_UnknownGroupAndUser(t *testing.T) {
	_, svc := newSQLiteFeedService(t)
	ctx := context.Background()

	_, err := svc.Group(ctx, "nope", 1)
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	_, err = svc.Profile(ctx, "nobody", 0, 1)
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	_, err = svc.Following(ctx, 0, 1)
	assert.True(t, models.IsCode(err, models.CodeUnauthorized))
}

func TestFeedService_GroupFeedIsolation(t *testing.T) {
	db, svc := newSQLiteFeedService(t)
	author := testutil.CreateUser(t, db, "leo")
	g1 := testutil.CreateGroup(t, db, "test_slug")
	g2 := testutil.CreateGroup(t, db, "test_slug_2")
	now := time.Now()
	testutil.CreatePost(t, db, author, g1, "in group one", now)
	testutil.CreatePost(t, db, author, g2, "in group two", now.Add(time.Second))
	testutil.CreatePost(t, db, author, nil, "no group", now.Add(2*time.Second))

	feed, err := svc.Group(context.Background(), "test_slug", 1)
	require.NoError(t, err)
	require.Len(t, feed.Posts, 1)
	assert.Equal(t, "in group one", feed.Posts[0].Text)
	for _, p := range feed.Posts {
		require.NotNil(t, p.GroupID)
		assert.Equal(t, g1.ID, *p.GroupID)
	}
}

func TestFeedService_FollowingFeed(t *testing.T) {
	db, svc := newSQLiteFeedService(t)
	viewer := testutil.CreateUser(t, db, "viewer")
	x := testutil.CreateUser(t, db, "x_author")
	y := testutil.CreateUser(t, db, "y_author")
	testutil.Follow(t, db, viewer, x)
	now := time.Now()
	testutil.CreatePost(t, db, x, nil, "from x", now)
	testutil.CreatePost(t, db, y, nil, "from y", now.Add(time.Second))
	testutil.CreatePost(t, db, x, nil, "from x again", now.Add(2*time.Second))

	feed, err := svc.Following(context.Background(), viewer.ID, 1)
	require.NoError(t, err)
	require.Len(t, feed.Posts, 2)
	assert.Equal(t, "from x again", feed.Posts[0].Text, "newest first")
	for _, p := range feed.Posts {
		assert.Equal(t, x.ID, p.AuthorID)
		assert.Equal(t, "x_author", p.Author.Username)
	}
}

func TestFeedService_ProfileStats(t *testing.T) {
	db, svc := newSQLiteFeedService(t)
	author := testutil.CreateUser(t, db, "author")
	fan := testutil.CreateUser(t, db, "fan")
	other := testutil.CreateUser(t, db, "other")
	testutil.Follow(t, db, fan, author)
	testutil.Follow(t, db, author, other)
	for i := 0; i < 12; i++ {
		testutil.CreatePost(t, db, author, nil, "post", time.Now().Add(time.Duration(i)*time.Second))
	}

	feed, err := svc.Profile(context.Background(), "author", fan.ID, 2)
	require.NoError(t, err)
	assert.Len(t, feed.Posts, 2)
	assert.Equal(t, int64(12), feed.Page.Count)
	assert.Equal(t, int64(1), feed.FollowersCount)
	assert.Equal(t, int64(1), feed.FollowingCount)
	assert.True(t, feed.Following)

	anon, err := svc.Profile(context.Background(), "author", 0, 1)
	require.NoError(t, err)
	assert.False(t, anon.Following)
	assert.Len(t, anon.Posts, 10)
}
