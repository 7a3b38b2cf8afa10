package user

import (
	"errors"
	"net/http"

	"bitwise74/blog/internal"
	"bitwise74/blog/internal/service"
	"bitwise74/blog/internal/store"
	"bitwise74/blog/pkg/flash"
	"bitwise74/blog/pkg/middleware"
	"bitwise74/blog/pkg/validators"
	"bitwise74/blog/web"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type accountForm struct {
	Username string `form:"username" binding:"required"`
	Email    string `form:"email" binding:"required"`
}

func UserAccountPage(c *gin.Context, d *internal.Deps) {
	user := middleware.CurrentUser(c)

	renderAccount(c, d, http.StatusOK, accountForm{
		Username: user.Username,
		Email:    user.Email,
	}, formErrors{})
}

func UserAccount(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	ctx := c.Request.Context()
	current := middleware.CurrentUser(c)

	var form accountForm
	errs, err := bindForm(c, &form)
	if err != nil {
		if middleware.IsBodyTooLarge(err) {
			renderTooLarge(c)
			return
		}

		zap.L().Debug("Can't bind account form", zap.Error(err), zap.String("requestID", requestID))
		errs["username"] = msgRequired
	}

	errs.check("username", validators.UsernameValidator(form.Username))
	errs.check("email", validators.EmailValidator(form.Email))

	fh, err := c.FormFile("picture")
	if err != nil {
		if middleware.IsBodyTooLarge(err) {
			renderTooLarge(c)
			return
		}

		if !errors.Is(err, http.ErrMissingFile) {
			zap.L().Debug("Can't read picture", zap.Error(err), zap.String("requestID", requestID))
		}

		fh = nil
	}

	if err := takenErrors(ctx, d, errs, form.Username, form.Email, current.ID); err != nil {
		zap.L().Error("Failed to check if username or email is taken", zap.Error(err), zap.String("requestID", requestID))
		web.InternalError(c)
		return
	}

	updated := *current
	updated.Username = form.Username
	updated.Email = form.Email

	if fh != nil && fh.Size > 0 {
		status, f, err := validators.ImageValidator(fh, viper.GetInt64("upload.max_size"))
		switch {
		case status == http.StatusInternalServerError:
			zap.L().Error("Failed to read uploaded picture", zap.Error(err), zap.String("requestID", requestID))
			web.InternalError(c)
			return
		case err != nil:
			errs.check("picture", err)
		case len(errs) > 0:
			f.Close()
		default:
			name, err := d.Avatars.Save(ctx, f)
			f.Close()

			if err != nil {
				if !errors.Is(err, service.ErrBadImage) {
					zap.L().Error("Failed to store picture", zap.Error(err), zap.String("requestID", requestID))
					web.InternalError(c)
					return
				}

				errs["picture"] = "Could not read the uploaded image."
			} else {
				updated.ImageFile = name
			}
		}
	}

	if len(errs) > 0 {
		renderAccount(c, d, http.StatusOK, form, errs)
		return
	}

	if err := d.Users.UpdateProfile(ctx, &updated); err != nil {
		if updated.ImageFile != current.ImageFile {
			d.Avatars.Replace(ctx, updated.ImageFile)
		}

		if errors.Is(err, store.ErrDuplicate) {
			if err := takenErrors(ctx, d, errs, form.Username, form.Email, current.ID); err != nil {
				zap.L().Error("Failed to check if username or email is taken", zap.Error(err), zap.String("requestID", requestID))
				web.InternalError(c)
				return
			}

			if len(errs) == 0 {
				errs["username"] = msgUsernameTaken
			}

			renderAccount(c, d, http.StatusOK, form, errs)
			return
		}

		zap.L().Error("Failed to update user", zap.Error(err), zap.String("requestID", requestID))
		web.InternalError(c)
		return
	}

	if updated.ImageFile != current.ImageFile {
		d.Avatars.Replace(ctx, current.ImageFile)
	}

	flash.Set(c, flash.Success, "Your account has been updated!")
	c.Redirect(http.StatusFound, "/account")
}

func renderAccount(c *gin.Context, d *internal.Deps, status int, form accountForm, errs formErrors) {
	web.Render(c, status, "account.html", gin.H{
		"Title":    "Account",
		"ImageURL": d.Avatars.URL(middleware.CurrentUser(c).ImageFile),
		"Form":     form,
		"Errors":   errs,
	})
}

func renderTooLarge(c *gin.Context) {
	web.Render(c, http.StatusRequestEntityTooLarge, "error.html", gin.H{
		"Title":   "Error",
		"Code":    http.StatusRequestEntityTooLarge,
		"Message": "The uploaded file is too large.",
	})
}
