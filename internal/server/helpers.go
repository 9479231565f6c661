package server

import (
	"fmt"
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"postboard/internal/middleware"
	"postboard/internal/models"
	"postboard/internal/service"

	"github.com/gofiber/fiber/v2"
)

const invalidGroupChoice = "Select a valid choice. That choice is not one of the available choices."

// postFormView echoes a post form back to the client.
type postFormView struct {
	Text  string `json:"text"`
	Group *uint  `json:"group"`
	Image string `json:"image,omitempty"`
}

func loginURL(c *fiber.Ctx) string {
	return middleware.LoginURL(c.OriginalURL())
}

func postURL(username string, postID uint) string {
	return fmt.Sprintf("/%s/%d", username, postID)
}

// parsePostID reads :post_id. Anything but a positive integer is a 404,
// matching a route that would not have matched.
func parsePostID(c *fiber.Ctx) (uint, bool) {
	id, err := strconv.ParseUint(c.Params("post_id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// parsePostForm reads text, group and image from a JSON, urlencoded or
// multipart body.
func (s *Server) parsePostForm(c *fiber.Ctx) (service.PostForm, postFormView, error) {
	var (
		text     string
		groupRaw string
	)
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		var body struct {
			Text  string `json:"text"`
			Group *uint  `json:"group"`
		}
		if err := c.BodyParser(&body); err != nil {
			return service.PostForm{}, postFormView{}, models.NewValidationError("Invalid request body")
		}
		text = body.Text
		if body.Group != nil {
			groupRaw = strconv.FormatUint(uint64(*body.Group), 10)
		}
	} else {
		text = c.FormValue("text")
		groupRaw = strings.TrimSpace(c.FormValue("group"))
	}

	form := service.PostForm{Text: text}
	view := postFormView{Text: text}

	if groupRaw != "" {
		id, err := strconv.ParseUint(groupRaw, 10, 64)
		if err != nil || id == 0 {
			return form, view, models.NewFieldValidationError(map[string]string{"group": invalidGroupChoice})
		}
		gid := uint(id)
		form.Group = &gid
		view.Group = &gid
	}

	if fh, err := c.FormFile("image"); err == nil {
		data, err := s.readUpload(fh)
		if err != nil {
			return form, view, err
		}
		form.Image = &service.Upload{Filename: fh.Filename, Data: data}
	}
	return form, view, nil
}

func (s *Server) readUpload(fh *multipart.FileHeader) ([]byte, error) {
	limit := int64(s.config.MediaMaxUploadMB) * 1024 * 1024
	if fh.Size > limit {
		return nil, models.NewFieldValidationError(map[string]string{
			"image": fmt.Sprintf("Image must be at most %d MB.", s.config.MediaMaxUploadMB),
		})
	}
	f, err := fh.Open()
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	defer func() { _ = f.Close() }()
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return data, nil
}

// safeNext accepts only local absolute paths as a post-login redirect.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return ""
	}
	return next
}
