// Package validators contains validators found throughout the application
// that have been abstracted away from the main code
package validators

import (
	"errors"
	"net/mail"
)

const maxEmailLength = 120

var (
	ErrEmailEmpty   = errors.New("no email address provided")
	ErrEmailInvalid = errors.New("invalid email address provided")
	ErrEmailTooLong = errors.New("email address is too long")
)

func EmailValidator(e string) error {
	if e == "" {
		return ErrEmailEmpty
	}

	if len(e) > maxEmailLength {
		return ErrEmailTooLong
	}

	// ParseAddress also accepts "Name <addr>", only the bare address is allowed
	a, err := mail.ParseAddress(e)
	if err != nil || a.Address != e {
		return ErrEmailInvalid
	}

	return nil
}
