package models

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MinPasswordLength is the shortest password accepted at registration.
	MinPasswordLength = 8

	// WeakPasswordMessage is shown when a registration password fails the local policy.
	WeakPasswordMessage = "Password must be at least 8 characters long and include uppercase, lowercase, and a symbol."

	// PasswordMismatchMessage is shown when a settings password confirmation differs.
	PasswordMismatchMessage = "Passwords do not match"
)

// ValidationError is a client-side validation failure raised before any
// request is sent.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Message
}

// Is matches any *ValidationError so callers can test with errors.Is(err, ErrInvalidInput).
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ErrInvalidInput matches every ValidationError.
var ErrInvalidInput = errors.New("invalid input")

// Credentials are submitted to log in. Never persisted.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks that both fields are present.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Email) == "" {
		return &ValidationError{Field: "email", Message: "Email is required"}
	}
	if c.Password == "" {
		return &ValidationError{Field: "password", Message: "Password is required"}
	}
	return nil
}

// Registration carries the fields of a sign-up form. Never persisted.
type Registration struct {
	Name         string `json:"name"`
	Organization string `json:"organization"`
	Email        string `json:"email"`
	Password     string `json:"password"`
}

// Validate checks required fields and the password policy.
func (r Registration) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return &ValidationError{Field: "name", Message: "Name is required"}
	}
	if strings.TrimSpace(r.Email) == "" {
		return &ValidationError{Field: "email", Message: "Email is required"}
	}
	if !PasswordValid(r.Password) {
		return &ValidationError{Field: "password", Message: WeakPasswordMessage}
	}
	return nil
}

// PasswordValid reports whether a password has at least eight characters with
// an uppercase letter, a lowercase letter and a symbol.
func PasswordValid(password string) bool {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return false
	}
	var upper, lower, symbol bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
		default:
			symbol = true
		}
	}
	return upper && lower && symbol
}

// SettingsUpdate is the body of PUT /user/settings. Empty fields are omitted.
type SettingsUpdate struct {
	Name            string `json:"name,omitempty"`
	Organization    string `json:"organization,omitempty"`
	Password        string `json:"password,omitempty"`
	ConfirmPassword string `json:"-"`
}

// Validate checks the password confirmation and that something is being changed.
func (s SettingsUpdate) Validate() error {
	if s.Password != "" && s.Password != s.ConfirmPassword {
		return &ValidationError{Field: "confirmPassword", Message: PasswordMismatchMessage}
	}
	if strings.TrimFunc(s.Name+s.Organization, unicode.IsSpace) == "" && s.Password == "" {
		return &ValidationError{Message: "Nothing to update"}
	}
	return nil
}
