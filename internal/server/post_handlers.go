package server

import (
	"errors"

	"postboard/internal/middleware"
	"postboard/internal/models"
	"postboard/internal/service"

	"github.com/gofiber/fiber/v2"
)

// NewPostForm handles GET /new and returns an empty form with the groups a
// post may be placed in.
func (s *Server) NewPostForm(c *fiber.Ctx) error {
	groups, err := s.groupService.List(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(formPage{Form: postFormView{}, Extra: fiber.Map{"groups": groups}})
}

// CreatePost handles POST /new
// @Summary Create a post
// @Description Accepts text, an optional group id and an optional image (multipart). Redirects to / on success; an invalid form is returned with 200 and field errors.
// @Tags posts
// @Accept mpfd
// @Produce json
// @Param text formData string true "Post text"
// @Param group formData int false "Group id"
// @Param image formData file false "Image"
// @Success 302
// @Success 200 {object} object{form=object,errors=object}
// @Security BearerAuth
// @Router /new [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	form, view, err := s.parsePostForm(c)
	if err != nil {
		return respondForm(c, view, err)
	}
	if _, err := s.postService.Create(c.UserContext(), middleware.CurrentUserID(c), form); err != nil {
		return respondForm(c, view, err)
	}
	return c.Redirect("/", fiber.StatusFound)
}

// PostView handles GET /:username/:post_id
// @Summary View a post
// @Tags posts
// @Produce json
// @Param username path string true "Author username"
// @Param post_id path int true "Post id"
// @Success 200 {object} service.PostDetail
// @Failure 404 {object} models.ErrorResponse
// @Router /{username}/{post_id} [get]
func (s *Server) PostView(c *fiber.Ctx) error {
	postID, ok := parsePostID(c)
	if !ok {
		return notFound(c)
	}
	detail, err := s.postService.Get(c.UserContext(), c.Params("username"), postID, middleware.CurrentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(detail)
}

// EditPostForm handles GET /:username/:post_id/edit. Only the author sees
// the form; anyone else is sent to the post.
func (s *Server) EditPostForm(c *fiber.Ctx) error {
	postID, ok := parsePostID(c)
	if !ok {
		return notFound(c)
	}
	username := c.Params("username")
	post, err := s.postService.ForEdit(c.UserContext(), middleware.CurrentUserID(c), username, postID)
	if errors.Is(err, service.ErrNotAuthor) {
		return c.Redirect(postURL(username, postID), fiber.StatusFound)
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(formPage{Form: postFormView{Text: post.Text, Group: post.GroupID, Image: post.Image}})
}

// EditPost handles POST /:username/:post_id/edit
// @Summary Edit a post
// @Description Author only. Anyone else is redirected to the post, which stays unchanged.
// @Tags posts
// @Accept mpfd
// @Produce json
// @Param username path string true "Author username"
// @Param post_id path int true "Post id"
// @Param text formData string true "Post text"
// @Param group formData int false "Group id"
// @Param image formData file false "Replacement image"
// @Success 302
// @Success 200 {object} object{form=object,errors=object}
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /{username}/{post_id}/edit [post]
func (s *Server) EditPost(c *fiber.Ctx) error {
	postID, ok := parsePostID(c)
	if !ok {
		return notFound(c)
	}
	username := c.Params("username")
	actorID := middleware.CurrentUserID(c)

	// Authorship is checked before the body is read so a non-author's upload
	// is never stored.
	post, err := s.postService.ForEdit(c.UserContext(), actorID, username, postID)
	if errors.Is(err, service.ErrNotAuthor) {
		return c.Redirect(postURL(username, postID), fiber.StatusFound)
	}
	if err != nil {
		return respondError(c, err)
	}

	form, view, err := s.parsePostForm(c)
	view.Image = post.Image
	if err != nil {
		return respondForm(c, view, err)
	}
	if _, err := s.postService.Edit(c.UserContext(), actorID, username, postID, form); err != nil {
		if errors.Is(err, service.ErrNotAuthor) {
			return c.Redirect(postURL(username, postID), fiber.StatusFound)
		}
		return respondForm(c, view, err)
	}
	return c.Redirect(postURL(username, postID), fiber.StatusFound)
}

// AddComment handles POST /:username/:post_id/comment
// @Summary Comment on a post
// @Tags posts
// @Accept x-www-form-urlencoded
// @Produce json
// @Param username path string true "Author username"
// @Param post_id path int true "Post id"
// @Param text formData string true "Comment text"
// @Success 302
// @Success 200 {object} object{form=object,errors=object}
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /{username}/{post_id}/comment [post]
func (s *Server) AddComment(c *fiber.Ctx) error {
	postID, ok := parsePostID(c)
	if !ok {
		return notFound(c)
	}
	username := c.Params("username")

	var form service.CommentForm
	if err := c.BodyParser(&form); err != nil {
		return respondForm(c, form, models.NewValidationError("Invalid request body"))
	}
	if _, err := s.postService.AddComment(c.UserContext(), middleware.CurrentUserID(c), username, postID, form); err != nil {
		return respondForm(c, form, err)
	}
	return c.Redirect(postURL(username, postID), fiber.StatusFound)
}
