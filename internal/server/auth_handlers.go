package server

import (
	"time"

	"postboard/internal/middleware"
	"postboard/internal/models"
	"postboard/internal/service"

	"github.com/gofiber/fiber/v2"
)

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// LoginPage handles GET /auth/login, the target of login redirects.
func (s *Server) LoginPage(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "Login required",
		"next":    safeNext(c.Query("next")),
	})
}

// Signup handles POST /auth/signup
// @Summary User signup
// @Description Register a new account and return an access token.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.SignupForm true "Signup request"
// @Success 201 {object} authResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /auth/signup [post]
func (s *Server) Signup(c *fiber.Ctx) error {
	var form service.SignupForm
	if err := c.BodyParser(&form); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.Signup(c.UserContext(), form)
	if err != nil {
		return respondError(c, err)
	}

	token, err := s.issueSession(c, user)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(authResponse{Token: token, User: user})
}

// Login handles POST /auth/login
// @Summary User login
// @Description Returns a JWT and sets it as the access_token cookie. When next is a local path the response redirects there.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.LoginForm true "Login request"
// @Param next query string false "Local path to continue to"
// @Success 200 {object} authResponse
// @Success 302
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var form service.LoginForm
	if err := c.BodyParser(&form); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.Login(c.UserContext(), form)
	if err != nil {
		return respondError(c, err)
	}

	token, err := s.issueSession(c, user)
	if err != nil {
		return respondError(c, err)
	}

	next := c.Query("next")
	if next == "" {
		next = c.FormValue("next")
	}
	if next = safeNext(next); next != "" {
		return c.Redirect(next, fiber.StatusFound)
	}
	return c.JSON(authResponse{Token: token, User: user})
}

// Logout handles POST /auth/logout
// @Summary Logout
// @Description Revokes the current token and clears the cookie.
// @Tags auth
// @Produce json
// @Success 200 {object} object{message=string}
// @Security BearerAuth
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	if err := s.authn.Revoke(c.UserContext(), middleware.CurrentClaims(c)); err != nil {
		return respondError(c, models.NewInternalError(err))
	}
	c.Cookie(&fiber.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(fiber.Map{"message": "Logged out"})
}

func (s *Server) issueSession(c *fiber.Ctx, user *models.User) (string, error) {
	token, claims, err := middleware.IssueToken(s.config.JWTSecret, user.ID, user.Username, s.config.JWTTTL)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	c.Cookie(&fiber.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  claims.ExpiresAt,
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return token, nil
}
