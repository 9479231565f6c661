package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func newAuthApp(a *Authenticator) *fiber.App {
	app := fiber.New()
	app.Get("/open", a.Identify(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"userID": CurrentUserID(c)})
	})
	app.Get("/page", a.LoginRequired(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"userID": CurrentUserID(c)})
	})
	app.Get("/api", a.APIRequired(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"userID": CurrentUserID(c)})
	})
	return app
}

func TestIssueAndParseToken(t *testing.T) {
	token, issued, err := IssueToken(testSecret, 42, "leo", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "leo", claims.Username)
	assert.Equal(t, issued.JTI, claims.JTI)

	_, err = ParseToken("another-secret", token)
	assert.Error(t, err)

	_, _, err = IssueToken("", 1, "x", time.Hour)
	assert.Error(t, err)
}

func TestParseToken_RejectsForeignClaims(t *testing.T) {
	sign := func(claims jwt.MapClaims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		return s
	}
	exp := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name   string
		claims jwt.MapClaims
	}{
		{"Wrong Issuer", jwt.MapClaims{"sub": "1", "iss": "other", "aud": TokenAudience, "exp": exp}},
		{"Wrong Audience", jwt.MapClaims{"sub": "1", "iss": TokenIssuer, "aud": "other", "exp": exp}},
		{"Missing Expiry", jwt.MapClaims{"sub": "1", "iss": TokenIssuer, "aud": TokenAudience}},
		{"Expired", jwt.MapClaims{"sub": "1", "iss": TokenIssuer, "aud": TokenAudience, "exp": time.Now().Add(-time.Minute).Unix()}},
		{"Bad Subject", jwt.MapClaims{"sub": "abc", "iss": TokenIssuer, "aud": TokenAudience, "exp": exp}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(testSecret, sign(tt.claims))
			assert.Error(t, err)
		})
	}
}

func TestLoginRequired_RedirectsAnonymous(t *testing.T) {
	app := newAuthApp(NewAuthenticator(testSecret, nil))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/page?x=1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/auth/login?next=%2Fpage%3Fx%3D1", resp.Header.Get("Location"))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthenticator_HeaderAndCookie(t *testing.T) {
	app := newAuthApp(NewAuthenticator(testSecret, nil))
	token, _, err := IssueToken(testSecret, 123, "leo", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/page", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/api", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token})
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/page", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/api?token="+token, nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, "query tokens are only accepted on websocket upgrades")
}

func TestAuthenticator_RevokedToken(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	a := NewAuthenticator(testSecret, rdb)
	app := newAuthApp(a)

	token, claims, err := IssueToken(testSecret, 7, "leo", time.Hour)
	require.NoError(t, err)
	require.NoError(t, a.Revoke(context.Background(), claims))
	assert.True(t, mr.Exists("blacklist:"+claims.JTI))

	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/api", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestLoginURL(t *testing.T) {
	assert.Equal(t, "/auth/login?next=%2Fleo%2F"+strconv.Itoa(3)+"%2Fcomment", LoginURL("/leo/3/comment"))
}
