package common

import (
	"errors"
	"regexp"
	"strings"
)

const MaxPostLength = 4000

var (
	emailRegex  = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)
	handleRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
)

func ValidateHandle(handle string) error {
	handle = strings.TrimSpace(handle)
	if len(handle) < 3 || len(handle) > 50 {
		return errors.New("handle must be between 3 and 50 characters")
	}

	if !handleRegex.MatchString(handle) {
		return errors.New("handle can only contain letters, numbers, and underscores")
	}

	return nil
}

func ValidatePassword(password string) error {
	if len(password) < 6 {
		return errors.New("password must be at least 6 characters long")
	}

	if len(password) > 100 {
		return errors.New("password is too long")
	}

	return nil
}

func ValidateEmail(email string) error {
	if email == "" {
		return nil
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if !emailRegex.MatchString(email) {
		return errors.New("invalid email format")
	}

	return nil
}

// ValidatePostContent rejects content that is too long. Empty content is
// allowed at this level: a pure repost has no text, and media-only posts are
// checked against their media at the service layer.
func ValidatePostContent(content string) error {
	if len(content) > MaxPostLength {
		return errors.New("post content is too long")
	}
	return nil
}

func ValidateDisplayName(name string) error {
	name = strings.TrimSpace(name)
	if len(name) > 50 {
		return errors.New("display name must be at most 50 characters")
	}
	return nil
}

func ValidateBio(bio string) error {
	if len(bio) > 500 {
		return errors.New("bio must be at most 500 characters")
	}
	return nil
}
