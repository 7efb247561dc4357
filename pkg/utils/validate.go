package utils

import (
	"regexp"
	"strings"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 15
	MinPasswordLength = 8
)

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]{3,15}$`)
	emailRegex    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	fullnameRegex = regexp.MustCompile(`^[a-zA-Z]{2,}( [a-zA-Z]+)+$`)
)

// ValidationError reports a single invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ValidateUsername validates username format
// Rules: 3-15 characters, letters, numbers, underscores only
func ValidateUsername(username string) error {
	if !usernameRegex.MatchString(strings.TrimSpace(username)) {
		return &ValidationError{Field: "username", Message: "Username must be 3-15 characters long and can only contain letters, numbers, and underscores"}
	}
	return nil
}

// ValidateEmail validates the address shape (local@domain.tld)
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(strings.TrimSpace(email)) {
		return &ValidationError{Field: "email", Message: "Please enter a valid email address (e.g., example@domain.com)"}
	}
	return nil
}

// ValidateFullname requires at least two alphabetic words
func ValidateFullname(fullname string) error {
	if !fullnameRegex.MatchString(strings.TrimSpace(fullname)) {
		return &ValidationError{Field: "fullname", Message: "Full name should contain at least two words (first name and last name)"}
	}
	return nil
}

// ValidatePassword enforces the strong-password policy: at least 8
// characters with an uppercase letter, a lowercase letter, a digit and one
// of @$!%*?&, using only those character classes. Go's regexp has no
// lookahead, so the classes are scanned directly.
func ValidatePassword(password string) error {
	err := &ValidationError{Field: "password", Message: "Password must be at least 8 characters long, contain an uppercase letter, a lowercase letter, a number, and a special character"}

	if len(password) < MinPasswordLength {
		return err
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, c := range password {
		switch {
		case c >= 'A' && c <= 'Z':
			hasUpper = true
		case c >= 'a' && c <= 'z':
			hasLower = true
		case c >= '0' && c <= '9':
			hasDigit = true
		case strings.ContainsRune("@$!%*?&", c):
			hasSpecial = true
		default:
			// Outside the allowed alphabet
			return err
		}
	}

	if !hasUpper || !hasLower || !hasDigit || !hasSpecial {
		return err
	}
	return nil
}

// NormalizeUsername lowercases and trims a username for storage and lookup.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
