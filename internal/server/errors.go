package server

import (
	"errors"
	"log/slog"

	"postboard/internal/models"

	"github.com/gofiber/fiber/v2"
)

var (
	errPageNotFound = &models.AppError{Code: models.CodeNotFound, Message: "Page not found"}
	errServerError  = &models.AppError{Code: models.CodeInternal, Message: "Internal server error"}
)

// errorHandler renders errors no handler dealt with. 404 and 500 use fixed
// bodies so nothing about the failure leaks to the client.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		switch {
		case fe.Code == fiber.StatusNotFound:
			return notFound(c)
		case fe.Code < fiber.StatusInternalServerError:
			return models.RespondWithError(c, fe.Code, errors.New(fe.Message))
		}
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return respondError(c, err)
	}
	slog.ErrorContext(c.UserContext(), "unhandled request error", "path", c.Path(), "err", err)
	return models.RespondWithError(c, fiber.StatusInternalServerError, errServerError)
}

func notFound(c *fiber.Ctx) error {
	return models.RespondWithError(c, fiber.StatusNotFound, errPageNotFound)
}

// statusFor maps an AppError code to its HTTP status.
func statusFor(code string) int {
	switch code {
	case models.CodeNotFound:
		return fiber.StatusNotFound
	case models.CodeValidation:
		return fiber.StatusBadRequest
	case models.CodeUnauthorized:
		return fiber.StatusUnauthorized
	case models.CodeForbidden:
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes a service error on an API route.
func respondError(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		appErr = models.NewInternalError(err)
	}
	switch status := statusFor(appErr.Code); status {
	case fiber.StatusNotFound:
		return notFound(c)
	case fiber.StatusInternalServerError:
		slog.ErrorContext(c.UserContext(), "request failed", "path", c.Path(), "err", err)
		return models.RespondWithError(c, status, errServerError)
	default:
		return models.RespondWithError(c, status, appErr)
	}
}

// respondForm writes a service error on a form route: validation errors
// re-render the form with 200, anonymous callers go to the login page and
// everything else is handled like an API error.
func respondForm(c *fiber.Ctx, form any, err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case models.CodeValidation:
			return c.Status(fiber.StatusOK).JSON(formPage{Form: form, Errors: fieldErrors(appErr)})
		case models.CodeUnauthorized:
			return c.Redirect(loginURL(c), fiber.StatusFound)
		}
	}
	return respondError(c, err)
}

func fieldErrors(appErr *models.AppError) map[string]string {
	if len(appErr.Fields) > 0 {
		return appErr.Fields
	}
	return map[string]string{"__all__": appErr.Message}
}

// formPage is the body of a form view: the submitted values and any errors.
type formPage struct {
	Form   any               `json:"form"`
	Errors map[string]string `json:"errors,omitempty"`
	Extra  any               `json:"extra,omitempty"`
}
