package user

import (
	"context"
	"errors"
	"net/http"

	"bitwise74/blog/internal"
	"bitwise74/blog/internal/model"
	"bitwise74/blog/internal/store"
	"bitwise74/blog/pkg/flash"
	"bitwise74/blog/pkg/validators"
	"bitwise74/blog/web"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type registerForm struct {
	Username        string `form:"username" binding:"required"`
	Email           string `form:"email" binding:"required"`
	Password        string `form:"password" binding:"required"`
	ConfirmPassword string `form:"confirm_password" binding:"required"`
}

func UserRegisterPage(c *gin.Context, _ *internal.Deps) {
	web.Render(c, http.StatusOK, "register.html", gin.H{
		"Title":  "Register",
		"Form":   registerForm{},
		"Errors": formErrors{},
	})
}

func UserRegister(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	ctx := c.Request.Context()

	var form registerForm
	errs, err := bindForm(c, &form)
	if err != nil {
		zap.L().Debug("Can't bind register form", zap.Error(err), zap.String("requestID", requestID))
		errs["username"] = msgRequired
	}

	errs.check("username", validators.UsernameValidator(form.Username))
	errs.check("email", validators.EmailValidator(form.Email))
	errs.checkPassword(form.Password, form.ConfirmPassword)

	if err := takenErrors(ctx, d, errs, form.Username, form.Email, 0); err != nil {
		zap.L().Error("Failed to check if user is registered", zap.Error(err), zap.String("requestID", requestID))
		web.InternalError(c)
		return
	}

	if len(errs) > 0 {
		renderRegister(c, form, errs)
		return
	}

	hash, err := d.Argon.GenerateFromPassword(form.Password)
	if err != nil {
		zap.L().Error("Failed to hash password", zap.Error(err), zap.String("requestID", requestID))
		web.InternalError(c)
		return
	}

	err = d.Users.Create(ctx, &model.User{
		Username: form.Username,
		Email:    form.Email,
		Password: hash,
	})
	if err != nil {
		if !errors.Is(err, store.ErrDuplicate) {
			zap.L().Error("Failed to create user", zap.Error(err), zap.String("requestID", requestID))
			web.InternalError(c)
			return
		}

		// Someone else registered the same name or email in the meantime
		if err := takenErrors(ctx, d, errs, form.Username, form.Email, 0); err != nil {
			zap.L().Error("Failed to check if user is registered", zap.Error(err), zap.String("requestID", requestID))
			web.InternalError(c)
			return
		}

		if len(errs) == 0 {
			errs["username"] = msgUsernameTaken
		}

		renderRegister(c, form, errs)
		return
	}

	flash.Set(c, flash.Success, "Your account has been created! You are now able to log in")
	c.Redirect(http.StatusFound, "/login")
}

func renderRegister(c *gin.Context, form registerForm, errs formErrors) {
	form.Password, form.ConfirmPassword = "", ""

	web.Render(c, http.StatusOK, "register.html", gin.H{
		"Title":  "Register",
		"Form":   form,
		"Errors": errs,
	})
}

// takenErrors adds a message for every field whose value belongs to a user
// other than exceptID. Fields that already failed validation are skipped
func takenErrors(ctx context.Context, d *internal.Deps, errs formErrors, username, email string, exceptID uint) error {
	if !errs.has("username") {
		taken, err := d.Users.UsernameTaken(ctx, username, exceptID)
		if err != nil {
			return err
		}

		if taken {
			errs["username"] = msgUsernameTaken
		}
	}

	if !errs.has("email") {
		taken, err := d.Users.EmailTaken(ctx, email, exceptID)
		if err != nil {
			return err
		}

		if taken {
			errs["email"] = msgEmailTaken
		}
	}

	return nil
}
