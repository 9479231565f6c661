package server

import (
	"postboard/internal/middleware"
	"postboard/internal/models"
	"postboard/internal/observability"
	"postboard/internal/service"

	"github.com/gofiber/fiber/v2"
)

// AdminRequired rejects non-admin users with 403. It must run after an auth
// middleware has set the userID local.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := s.userService.GetByID(c.UserContext(), middleware.CurrentUserID(c))
		if err != nil {
			if models.IsCode(err, models.CodeNotFound) {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Authorization required"))
			}
			return respondError(c, err)
		}
		if !user.IsAdmin {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}
		return c.Next()
	}
}

// ListGroups handles GET /admin/groups
func (s *Server) ListGroups(c *fiber.Ctx) error {
	groups, err := s.groupService.List(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(groups)
}

// CreateGroup handles POST /admin/groups
// @Summary Create a group
// @Tags admin
// @Accept json
// @Produce json
// @Param request body service.GroupForm true "Group"
// @Success 201 {object} models.Group
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/groups [post]
func (s *Server) CreateGroup(c *fiber.Ctx) error {
	var form service.GroupForm
	if err := c.BodyParser(&form); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	group, err := s.groupService.Create(c.UserContext(), form)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(group)
}

// ClearPageCache handles POST /admin/cache/clear
// @Summary Clear the page cache
// @Tags admin
// @Produce json
// @Success 200 {object} object{message=string}
// @Security BearerAuth
// @Router /admin/cache/clear [post]
func (s *Server) ClearPageCache(c *fiber.Ctx) error {
	if err := s.pageCache.Clear(c.UserContext()); err != nil {
		return respondError(c, models.NewInternalError(err))
	}
	observability.PageCacheClears.Inc()
	return c.JSON(fiber.Map{"message": "Page cache cleared"})
}

// PromoteUser handles POST /admin/users/:username/promote
func (s *Server) PromoteUser(c *fiber.Ctx) error {
	return s.setAdmin(c, true)
}

// DemoteUser handles POST /admin/users/:username/demote
func (s *Server) DemoteUser(c *fiber.Ctx) error {
	return s.setAdmin(c, false)
}

func (s *Server) setAdmin(c *fiber.Ctx, isAdmin bool) error {
	user, err := s.userService.SetAdmin(c.UserContext(), c.Params("username"), isAdmin)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// GetFeatureFlags handles GET /admin/feature-flags and reports the flags as
// they apply to the calling admin.
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"flags": s.featureFlags.Snapshot(middleware.CurrentUserID(c)),
	})
}
