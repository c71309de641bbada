package utils

import (
	"errors"
	"net/mail"
	"strings"
	"unicode/utf8"
)

// Account registration is validated locally before any database work so a
// malformed request never reaches the auth tables.
var (
	ErrInvalidEmail  = errors.New("invalid email address")
	ErrShortPassword = errors.New("password must be at least 6 characters")
	ErrShortName     = errors.New("name must be at least 2 characters")
)

const (
	minPasswordLen = 6
	minNameLen     = 2
)

// NormalizeEmail trims and lower-cases an email for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateSignUp checks the registration input: email format, password length
// and display name length. The first failing rule is returned.
func ValidateSignUp(email, password, name string) error {
	if _, err := mail.ParseAddress(NormalizeEmail(email)); err != nil {
		return ErrInvalidEmail
	}
	if utf8.RuneCountInString(password) < minPasswordLen {
		return ErrShortPassword
	}
	if utf8.RuneCountInString(strings.TrimSpace(name)) < minNameLen {
		return ErrShortName
	}
	return nil
}
