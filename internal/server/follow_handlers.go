package server

import (
	"postboard/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// Follow handles GET/POST /follow/:username. Following yourself or an
// author you already follow changes nothing; both redirect to the profile.
// @Summary Follow an author
// @Tags follows
// @Param username path string true "Author username"
// @Success 302
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /follow/{username} [post]
func (s *Server) Follow(c *fiber.Ctx) error {
	author, _, err := s.followService.Follow(c.UserContext(), middleware.CurrentUserID(c), c.Params("username"))
	if err != nil {
		return respondError(c, err)
	}
	return c.Redirect("/"+author.Username, fiber.StatusFound)
}

// Unfollow handles GET/POST /unfollow/:username. A missing edge is a 404.
// @Summary Unfollow an author
// @Tags follows
// @Param username path string true "Author username"
// @Success 302
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /unfollow/{username} [post]
func (s *Server) Unfollow(c *fiber.Ctx) error {
	author, err := s.followService.Unfollow(c.UserContext(), middleware.CurrentUserID(c), c.Params("username"))
	if err != nil {
		return respondError(c, err)
	}
	return c.Redirect("/"+author.Username, fiber.StatusFound)
}
