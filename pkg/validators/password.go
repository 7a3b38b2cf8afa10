package validators

import (
	"errors"
	"strings"
)

var (
	ErrPasswordTooShort = errors.New("password must be at least 8 characters long")
	ErrPasswordInvalid  = errors.New("password contains invalid characters")
	ErrPasswordTooLong  = errors.New("password is too long")
	ErrPasswordEmpty    = errors.New("no password provided")
	ErrPasswordMismatch = errors.New("passwords must match")
)

func PasswordValidator(p string) error {
	if p == "" {
		return ErrPasswordEmpty
	}

	if len(p) < 8 {
		return ErrPasswordTooShort
	}

	if len(p) > 255 {
		return ErrPasswordTooLong
	}

	if strings.ContainsRune(p, 0) {
		return ErrPasswordInvalid
	}

	return nil
}

// ConfirmValidator checks a password together with its confirmation
func ConfirmValidator(p, confirm string) error {
	if err := PasswordValidator(p); err != nil {
		return err
	}

	if p != confirm {
		return ErrPasswordMismatch
	}

	return nil
}
