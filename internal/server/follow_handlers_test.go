package server

import (
	"net/http"
	"net/url"
	"testing"

	"postboard/internal/models"
	"postboard/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countFollows(t *testing.T, env *testEnv, follower, author *models.User) int64 {
	t.Helper()
	var n int64
	require.NoError(t, env.db.Model(&models.Follow{}).
		Where("user_id = ? AND author_id = ?", follower.ID, author.ID).
		Count(&n).Error)
	return n
}

func TestFollowUnfollow(t *testing.T) {
	env := newTestEnv(t)
	alice := testutil.CreateUser(t, env.db, "alice")
	bob := testutil.CreateUser(t, env.db, "bob")

	resp := env.postForm("/follow/alice", url.Values{}, bob)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/alice", resp.Header.Get("Location"))
	assert.Equal(t, int64(1), countFollows(t, env, bob, alice))

	// Following twice keeps a single edge; GET works like POST.
	resp = env.get("/follow/alice", bob)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, int64(1), countFollows(t, env, bob, alice))

	resp = env.get("/alice", bob)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var profile struct {
		Following      bool  `json:"following"`
		FollowersCount int64 `json:"followers_count"`
	}
	decode(t, resp, &profile)
	assert.True(t, profile.Following)
	assert.Equal(t, int64(1), profile.FollowersCount)

	resp = env.postForm("/unfollow/alice", url.Values{}, bob)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/alice", resp.Header.Get("Location"))
	assert.Zero(t, countFollows(t, env, bob, alice))

	resp = env.postForm("/unfollow/alice", url.Values{}, bob)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFollowSelfIsNoop(t *testing.T) {
	env := newTestEnv(t)
	alice := testutil.CreateUser(t, env.db, "alice")

	resp := env.postForm("/follow/alice", url.Values{}, alice)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/alice", resp.Header.Get("Location"))
	assert.Zero(t, countFollows(t, env, alice, alice))
}

func TestFollowUnknownAuthor(t *testing.T) {
	env := newTestEnv(t)
	bob := testutil.CreateUser(t, env.db, "bob")

	resp := env.postForm("/follow/ghost", url.Values{}, bob)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = env.postForm("/unfollow/ghost", url.Values{}, bob)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFollowRequiresLogin(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateUser(t, env.db, "alice")

	resp := env.postForm("/follow/alice", url.Values{}, nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/auth/login?next=%2Ffollow%2Falice", resp.Header.Get("Location"))
}
