package server

import (
	"postboard/internal/middleware"
	"postboard/internal/pagination"

	"github.com/gofiber/fiber/v2"
)

// GlobalFeed handles GET /
// @Summary Global feed
// @Description All posts, newest first, ten per page. The first page is served from the page cache.
// @Tags feeds
// @Produce json
// @Param page query int false "Page number"
// @Success 200 {object} service.Feed
// @Router / [get]
func (s *Server) GlobalFeed(c *fiber.Ctx) error {
	// The body is cached per route, so nothing viewer-specific may go in it.
	feed, err := s.feedService.Global(c.UserContext(), pagination.ParseNumber(c.Query("page")))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(feed)
}

// GroupFeed handles GET /group/:slug
// @Summary Group feed
// @Tags feeds
// @Produce json
// @Param slug path string true "Group slug"
// @Param page query int false "Page number"
// @Success 200 {object} service.GroupFeed
// @Failure 404 {object} models.ErrorResponse
// @Router /group/{slug} [get]
func (s *Server) GroupFeed(c *fiber.Ctx) error {
	feed, err := s.feedService.Group(c.UserContext(), c.Params("slug"), pagination.ParseNumber(c.Query("page")))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(feed)
}

// ProfileFeed handles GET /:username
// @Summary Author profile
// @Description Posts by the author with follower counts and whether the viewer follows them.
// @Tags feeds
// @Produce json
// @Param username path string true "Username"
// @Param page query int false "Page number"
// @Success 200 {object} service.ProfileFeed
// @Failure 404 {object} models.ErrorResponse
// @Router /{username} [get]
func (s *Server) ProfileFeed(c *fiber.Ctx) error {
	feed, err := s.feedService.Profile(c.UserContext(), c.Params("username"),
		middleware.CurrentUserID(c), pagination.ParseNumber(c.Query("page")))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(feed)
}

// FollowingFeed handles GET /follow
// @Summary Personalized feed
// @Description Posts by authors the current user follows.
// @Tags feeds
// @Produce json
// @Param page query int false "Page number"
// @Success 200 {object} service.Feed
// @Failure 302
// @Security BearerAuth
// @Router /follow [get]
func (s *Server) FollowingFeed(c *fiber.Ctx) error {
	feed, err := s.feedService.Following(c.UserContext(), middleware.CurrentUserID(c), pagination.ParseNumber(c.Query("page")))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(feed)
}
