package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

var (
	usernameRegex  = regexp.MustCompile(`^[\w.-]+$`)
	groupSlugRegex = regexp.MustCompile(`^[a-z0-9_-]{1,100}$`)
)

// Usernames that would shadow a top-level route. Routing is case-insensitive,
// so lookups are lowercased.
var reservedUsernames = map[string]struct{}{
	"new":      {},
	"follow":   {},
	"unfollow": {},
	"group":    {},
	"auth":     {},
	"admin":    {},
	"media":    {},
	"ws":       {},
	"health":   {},
	"metrics":  {},
	"swagger":  {},
}

// ValidateUsername checks length, allowed characters and reserved names.
func ValidateUsername(username string) error {
	if len(username) < 3 {
		return fmt.Errorf("username must be at least 3 characters long")
	}
	if len(username) > 150 {
		return fmt.Errorf("username must not exceed 150 characters")
	}
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("username may contain only letters, numbers, and ./-/_ characters")
	}
	if _, reserved := reservedUsernames[strings.ToLower(username)]; reserved {
		return fmt.Errorf("username is reserved")
	}
	return nil
}

// ValidatePassword requires 8-128 characters with upper, lower and digit.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}
	if len(password) > 128 {
		return fmt.Errorf("password must not exceed 128 characters")
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower {
		return fmt.Errorf("password must mix upper and lower case letters")
	}
	if !hasDigit {
		return fmt.Errorf("password must contain at least one digit")
	}
	return nil
}

// ValidateGroupSlug validates the URL slug of a group.
func ValidateGroupSlug(slug string) error {
	if !groupSlugRegex.MatchString(slug) {
		return fmt.Errorf("slug must be 1-100 characters of lowercase letters, numbers, underscores or hyphens")
	}
	return nil
}
