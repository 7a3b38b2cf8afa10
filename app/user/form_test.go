package user

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeNext(t *testing.T) {
	cases := map[string]string{
		"":                     "/",
		"/account":             "/account",
		"/user/jo?page=2":      "/user/jo?page=2",
		"account":              "/",
		"//evil.com":           "/",
		"/\\evil.com":          "/",
		"https://evil.com/":    "/",
		"javascript:alert(1)":  "/",
		"/ok\r\nSet-Cookie: x": "/",
	}

	for in, want := range cases {
		assert.Equal(t, want, safeNext(in), in)
	}
}

func TestFormErrorsKeepFirst(t *testing.T) {
	errs := formErrors{}
	errs.check("email", errors.New("first problem"))
	errs.check("email", errors.New("second problem"))
	errs.check("username", nil)

	assert.Equal(t, formErrors{"email": "First problem."}, errs)
}

func TestFormErrorsCheckPassword(t *testing.T) {
	errs := formErrors{}
	errs.checkPassword("short", "short")
	assert.True(t, errs.has("password"))
	assert.False(t, errs.has("confirm_password"))

	errs = formErrors{}
	errs.checkPassword("password123", "password124")
	assert.False(t, errs.has("password"))
	assert.Equal(t, "Passwords must match.", errs["confirm_password"])

	errs = formErrors{}
	errs.checkPassword("password123", "password123")
	assert.Empty(t, errs)
}
