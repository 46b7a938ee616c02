package service

import (
	"net/mail"
	"regexp"
	"strings"

	"github.com/iliyamo/repairhub/internal/apperr"
)

var (
	phonePattern    = regexp.MustCompile(`^[0-9]{10}$`)
	idCardPattern   = regexp.MustCompile(`^[0-9]{13}$`)
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,32}$`)
)

const (
	minAge = 1
	maxAge = 70
)

func checkUsername(u string) error {
	if !usernamePattern.MatchString(u) {
		return apperr.Validation("username must be 3-32 letters, digits, dot, dash or underscore")
	}
	return nil
}

func checkPhone(p string) error {
	if !phonePattern.MatchString(p) {
		return apperr.Validation("phone must be 10 digits")
	}
	return nil
}

func checkEmail(e string) error {
	if _, err := mail.ParseAddress(e); err != nil || !strings.Contains(e, "@") {
		return apperr.Validation("invalid email")
	}
	return nil
}

func checkIDCard(c string) error {
	if !idCardPattern.MatchString(c) {
		return apperr.Validation("id card must be 13 digits")
	}
	return nil
}

func checkAge(a int) error {
	if a < minAge || a > maxAge {
		return apperr.Validation("age must be between 1 and 70")
	}
	return nil
}

func checkGender(g string) error {
	switch g {
	case "male", "female", "other":
		return nil
	}
	return apperr.Validation("gender must be male, female or other")
}

// firstErr returns the first non-nil error.
func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func normEmail(e string) string { return strings.ToLower(strings.TrimSpace(e)) }
