// Package middleware provides authentication, rate limiting, page caching,
// logging and telemetry middleware for the application.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"postboard/internal/cache"
	"postboard/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	TokenIssuer       = "postboard-api"
	TokenAudience     = "postboard-client"
	AccessTokenCookie = "access_token"
	LoginPath         = "/auth/login"
)

// Claims are the fields of an access token the application relies on.
type Claims struct {
	UserID    uint
	Username  string
	JTI       string
	ExpiresAt time.Time
}

// IssueToken signs an HS256 access token for userID valid for ttl.
func IssueToken(secret string, userID uint, username string, ttl time.Duration) (string, *Claims, error) {
	if secret == "" {
		return "", nil, errors.New("JWT secret not configured")
	}
	now := time.Now()
	claims := &Claims{
		UserID:    userID,
		Username:  username,
		JTI:       uuid.NewString(),
		ExpiresAt: now.Add(ttl),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(userID), 10),
		"username": username,
		"iss":      TokenIssuer,
		"aud":      TokenAudience,
		"exp":      claims.ExpiresAt.Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      claims.JTI,
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// ParseToken validates signature, expiry, issuer and audience.
func ParseToken(secret, tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(TokenIssuer), jwt.WithAudience(TokenAudience), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	sub, err := mc.GetSubject()
	if err != nil {
		return nil, err
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return nil, errors.New("invalid user ID in token")
	}
	exp, err := mc.GetExpirationTime()
	if err != nil {
		return nil, err
	}

	claims := &Claims{UserID: uint(userID), ExpiresAt: exp.Time}
	claims.JTI, _ = mc["jti"].(string)
	claims.Username, _ = mc["username"].(string)
	return claims, nil
}

// Authenticator resolves the current user from a bearer token, the
// access_token cookie, or (for websocket upgrades) a token query parameter.
type Authenticator struct {
	secret string
	rdb    *redis.Client
}

// NewAuthenticator returns an Authenticator. rdb may be nil, in which case
// revocation is not checked.
func NewAuthenticator(secret string, rdb *redis.Client) *Authenticator {
	return &Authenticator{secret: secret, rdb: rdb}
}

func tokenFromRequest(c *fiber.Ctx) string {
	if header := c.Get(fiber.HeaderAuthorization); header != "" {
		if scheme, token, ok := strings.Cut(header, " "); ok && scheme == "Bearer" {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if cookie := c.Cookies(AccessTokenCookie); cookie != "" {
		return cookie
	}
	if strings.EqualFold(c.Get(fiber.HeaderUpgrade), "websocket") {
		return c.Query("token")
	}
	return ""
}

// Authenticate returns the claims of the request's token, or nil when the
// request is anonymous or the token is invalid or revoked.
func (a *Authenticator) Authenticate(c *fiber.Ctx) *Claims {
	raw := tokenFromRequest(c)
	if raw == "" {
		return nil
	}
	claims, err := ParseToken(a.secret, raw)
	if err != nil {
		return nil
	}
	if a.rdb != nil && claims.JTI != "" {
		n, err := a.rdb.Exists(c.UserContext(), cache.BlacklistKey(claims.JTI)).Result()
		if err == nil && n > 0 {
			return nil
		}
	}
	return claims
}

// Identify sets the userID local for authenticated requests and lets
// anonymous requests through.
func (a *Authenticator) Identify() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if claims := a.Authenticate(c); claims != nil {
			setUser(c, claims)
		}
		return c.Next()
	}
}

// LoginRequired redirects anonymous requests to the login page with the
// original path in next.
func (a *Authenticator) LoginRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := c.Locals("userID").(uint); ok {
			return c.Next()
		}
		if claims := a.Authenticate(c); claims != nil {
			setUser(c, claims)
			return c.Next()
		}
		return c.Redirect(LoginURL(c.OriginalURL()), fiber.StatusFound)
	}
}

// APIRequired rejects anonymous requests with 401.
func (a *Authenticator) APIRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := c.Locals("userID").(uint); ok {
			return c.Next()
		}
		if claims := a.Authenticate(c); claims != nil {
			setUser(c, claims)
			return c.Next()
		}
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Authorization required"))
	}
}

// Revoke blacklists the token until it would have expired anyway.
func (a *Authenticator) Revoke(ctx context.Context, claims *Claims) error {
	if a.rdb == nil || claims == nil || claims.JTI == "" {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	return a.rdb.Set(ctx, cache.BlacklistKey(claims.JTI), "1", ttl).Err()
}

// LoginURL builds the login redirect for next.
func LoginURL(next string) string {
	return LoginPath + "?next=" + url.QueryEscape(next)
}

// CurrentUserID returns the authenticated user id, or 0 for anonymous requests.
func CurrentUserID(c *fiber.Ctx) uint {
	id, _ := c.Locals("userID").(uint)
	return id
}

func setUser(c *fiber.Ctx, claims *Claims) {
	c.Locals("userID", claims.UserID)
	c.Locals("claims", claims)
	c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, claims.UserID))
}

// CurrentClaims returns the claims stored by the auth middleware.
func CurrentClaims(c *fiber.Ctx) *Claims {
	claims, _ := c.Locals("claims").(*Claims)
	return claims
}
