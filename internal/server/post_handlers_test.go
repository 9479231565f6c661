package server

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"postboard/internal/models"
	"postboard/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartPost(t *testing.T, target string, fields map[string]string, filename string, data []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if filename != "" {
		part, err := w.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	return req
}

func TestCreatePost_RedirectsHome(t *testing.T) {
	env := newTestEnv(t)
	alice := testutil.CreateUser(t, env.db, "alice")
	books := testutil.CreateGroup(t, env.db, "books")

	resp := env.postForm("/new", url.Values{
		"text":  {"hello books"},
		"group": {strconv.FormatUint(uint64(books.ID), 10)},
	}, alice)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	var post models.Post
	require.NoError(t, env.db.First(&post).Error)
	assert.Equal(t, "hello books", post.Text)
	assert.Equal(t, alice.ID, post.AuthorID)
	require.NotNil(t, post.GroupID)
	assert.Equal(t, books.ID, *post.GroupID)
}

func TestCreatePost_InvalidFormRendersErrors(t *testing.T) {
	env := newTestEnv(t)
	alice := testutil.CreateUser(t, env.db, "alice")

	resp := env.postForm("/new", url.Values{"text": {"   "}, "group": {"9999"}}, alice)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Errors map[string]string `json:"errors"`
	}
	decode(t, resp, &body)
	assert.NotEmpty(t, body.Errors)

	var count int64
	require.NoError(t, env.db.Model(&models.Post{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreatePost_GuestRedirectedToLogin(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get("/new", nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/auth/login?next=%2Fnew", resp.Header.Get("Location"))

	resp = env.postForm("/new", url.Values{"text": {"hi"}}, nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
}

func TestCreatePost_WithImage(t *testing.T) {
	env := newTestEnv(t)
	alice := testutil.CreateUser(t, env.db, "alice")

	req := multipartPost(t, "/new", map[string]string{"text": "picture"}, "small.gif", testutil.SmallGIF(t))
	resp := env.do(req, alice)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	var post models.Post
	require.NoError(t, env.db.First(&post).Error)
	assert.Equal(t, "posts/small.gif", post.Image)
	_, err := os.Stat(filepath.Join(env.cfg.MediaRoot, filepath.FromSlash(post.Image)))
	assert.NoError(t, err)

	resp = env.get("/media/"+post.Image, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.get(fmt.Sprintf("/alice/%d", post.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(readBody(t, resp)), `"image":"posts/small.gif"`)
}

func TestCreatePost_RejectsNonImageUpload(t *testing.T) {
	env := newTestEnv(t)
	alice := testutil.CreateUser(t, env.db, "alice")

	req := multipartPost(t, "/new", map[string]string{"text": "not a picture"}, "notes.txt", []byte("plain text"))
	resp := env.do(req, alice)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Errors map[string]string `json:"errors"`
	}
	decode(t, resp, &body)
	assert.Contains(t, body.Errors, "image")
}

func TestPostView(t *testing.T) {
	env := newTestEnv(t)
	alice := testutil.CreateUser(t, env.db, "alice")
	bob := testutil.CreateUser(t, env.db, "bob")
	post := testutil.CreatePost(t, env.db, alice, nil, "hello", time.Now())
	require.NoError(t, env.db.Create(&models.Comment{PostID: post.ID, AuthorID: bob.ID, Text: "nice"}).Error)

	resp := env.get(fmt.Sprintf("/alice/%d", post.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Post     models.Post      `json:"post"`
		Comments []models.Comment `json:"comments"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "hello", body.Post.Text)
	assert.Equal(t, 1, body.Post.CommentsCount)
	require.Len(t, body.Comments, 1)
	assert.Equal(t, "nice", body.Comments[0].Text)

	// The post exists but under a different author.
	resp = env.get(fmt.Sprintf("/bob/%d", post.ID), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEditPost_AuthorUpdates(t *testing.T) {
	env := newTestEnv(t)
	alice := testutil.CreateUser(t, env.db, "alice")
	post := testutil.CreatePost(t, env.db, alice, nil, "draft", time.Now())
	target := fmt.Sprintf("/alice/%d/edit", post.ID)

	resp := env.get(target, alice)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(readBody(t, resp)), `"text":"draft"`)

	resp = env.postForm(target, url.Values{"text": {"final"}}, alice)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, fmt.Sprintf("/alice/%d", post.ID), resp.Header.Get("Location"))

	var got models.Post
	require.NoError(t, env.db.First(&got, post.ID).Error)
	assert.Equal(t, "final", got.Text)
	assert.Equal(t, alice.ID, got.AuthorID)
}

func TestEditPost_NonAuthorRedirectedAndPostUnchanged(t *testing.T) {
	env := newTestEnv(t)
	alice := testutil.CreateUser(t, env.db, "alice")
	bob := testutil.CreateUser(t, env.db, "bob")
	post := testutil.CreatePost(t, env.db, alice, nil, "original", time.Now())
	target := fmt.Sprintf("/alice/%d/edit", post.ID)
	postPath := fmt.Sprintf("/alice/%d", post.ID)

	resp := env.get(target, bob)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, postPath, resp.Header.Get("Location"))

	resp = env.do(multipartPost(t, target, map[string]string{"text": "hacked"}, "small.gif", testutil.SmallGIF(t)), bob)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, postPath, resp.Header.Get("Location"))

	var got models.Post
	require.NoError(t, env.db.First(&got, post.ID).Error)
	assert.Equal(t, "original", got.Text)
	assert.Empty(t, got.Image)

	entries, err := os.ReadDir(env.cfg.MediaRoot)
	require.NoError(t, err)
	assert.Empty(t, entries, "non-author upload must not be stored")
}

func TestEditPost_MissingPost(t *testing.T) {
	env := newTestEnv(t)
	alice := testutil.CreateUser(t, env.db, "alice")

	resp := env.postForm("/alice/4242/edit", url.Values{"text": {"x"}}, alice)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAddComment(t *testing.T) {
	env := newTestEnv(t)
	alice := testutil.CreateUser(t, env.db, "alice")
	bob := testutil.CreateUser(t, env.db, "bob")
	post := testutil.CreatePost(t, env.db, alice, nil, "hello", time.Now())
	target := fmt.Sprintf("/alice/%d/comment", post.ID)

	resp := env.postForm(target, url.Values{"text": {"first!"}}, bob)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, fmt.Sprintf("/alice/%d", post.ID), resp.Header.Get("Location"))

	var comments []models.Comment
	require.NoError(t, env.db.Find(&comments).Error)
	require.Len(t, comments, 1)
	assert.Equal(t, bob.ID, comments[0].AuthorID)
	assert.Equal(t, post.ID, comments[0].PostID)

	resp = env.postForm(target, url.Values{"text": {""}}, bob)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(readBody(t, resp)), `"text"`)
}

func TestAddComment_GuestRedirectedToLogin(t *testing.T) {
	env := newTestEnv(t)
	alice := testutil.CreateUser(t, env.db, "alice")
	post := testutil.CreatePost(t, env.db, alice, nil, "hello", time.Now())
	target := fmt.Sprintf("/alice/%d/comment", post.ID)

	resp := env.postForm(target, url.Values{"text": {"drive-by"}}, nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/auth/login?next="+url.QueryEscape(target), resp.Header.Get("Location"))

	var count int64
	require.NoError(t, env.db.Model(&models.Comment{}).Count(&count).Error)
	assert.Zero(t, count)
}
