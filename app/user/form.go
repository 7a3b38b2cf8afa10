package user

import (
	"errors"
	"net/url"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"bitwise74/blog/pkg/validators"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	msgUsernameTaken = "That username is taken. Please choose a different one."
	msgEmailTaken    = "That email is taken. Please choose a different one."
	msgRequired      = "This field is required."
)

// formErrors maps a form field name to the message shown under it
type formErrors map[string]string

var registerTagNames sync.Once

// bindForm binds the posted form into obj. Missing required fields end up
// in the returned formErrors, anything else that stops binding is returned
// as an error
func bindForm(c *gin.Context, obj any) (formErrors, error) {
	registerTagNames.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			v.RegisterTagNameFunc(func(f reflect.StructField) string {
				return f.Tag.Get("form")
			})
		}
	})

	errs := formErrors{}

	err := c.ShouldBind(obj)
	if err == nil {
		return errs, nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return errs, err
	}

	for _, fe := range ve {
		errs[fe.Field()] = msgRequired
	}

	return errs, nil
}

// check records err under field unless the field already has a message
func (f formErrors) check(field string, err error) {
	if err == nil {
		return
	}

	if _, ok := f[field]; ok {
		return
	}

	f[field] = message(err)
}

// checkPassword files a mismatch under confirm_password and every other
// password problem under password
func (f formErrors) checkPassword(p, confirm string) {
	err := validators.ConfirmValidator(p, confirm)
	if errors.Is(err, validators.ErrPasswordMismatch) {
		f.check("confirm_password", err)
		return
	}

	f.check("password", err)
}

func (f formErrors) has(field string) bool {
	_, ok := f[field]
	return ok
}

// message turns a validator error into a sentence for the form
func message(err error) string {
	s := err.Error()
	if s == "" {
		return s
	}

	return strings.ToUpper(s[:1]) + s[1:] + "."
}

// safeNext only lets through relative paths on this site. Anything else
// sends the user home
func safeNext(next string) string {
	if next == "" || next[0] != '/' || strings.HasPrefix(next, "//") {
		return "/"
	}

	if strings.ContainsRune(next, '\\') || strings.ContainsFunc(next, unicode.IsControl) {
		return "/"
	}

	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}

	return next
}
