package validators

import (
	"errors"
	"unicode"
	"unicode/utf8"
)

const (
	minUsernameLength = 2
	maxUsernameLength = 20
)

var (
	ErrUsernameEmpty    = errors.New("no username provided")
	ErrUsernameTooShort = errors.New("username must be at least 2 characters long")
	ErrUsernameTooLong  = errors.New("username must be at most 20 characters long")
	ErrUsernameInvalid  = errors.New("username may not contain spaces, slashes or control characters")
)

func UsernameValidator(u string) error {
	if u == "" {
		return ErrUsernameEmpty
	}

	n := utf8.RuneCountInString(u)
	if n < minUsernameLength {
		return ErrUsernameTooShort
	}

	if n > maxUsernameLength {
		return ErrUsernameTooLong
	}

	// Usernames end up in /user/<username> URLs
	for _, r := range u {
		if unicode.IsSpace(r) || unicode.IsControl(r) || r == '/' || r == '\\' || r == '?' || r == '#' {
			return ErrUsernameInvalid
		}
	}

	return nil
}
