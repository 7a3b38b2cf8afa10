package user

import (
	"errors"
	"net/http"

	"bitwise74/blog/internal"
	"bitwise74/blog/internal/store"
	"bitwise74/blog/pkg/flash"
	"bitwise74/blog/pkg/middleware"
	"bitwise74/blog/pkg/validators"
	"bitwise74/blog/web"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type loginForm struct {
	Email    string `form:"email" binding:"required"`
	Password string `form:"password" binding:"required"`
	Remember string `form:"remember"`
}

func UserLoginPage(c *gin.Context, _ *internal.Deps) {
	web.Render(c, http.StatusOK, "login.html", gin.H{
		"Title":  "Login",
		"Form":   loginForm{},
		"Errors": formErrors{},
	})
}

func UserLogin(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	ctx := c.Request.Context()

	var form loginForm
	errs, err := bindForm(c, &form)
	if err != nil {
		zap.L().Debug("Can't bind login form", zap.Error(err), zap.String("requestID", requestID))
		errs["email"] = msgRequired
	}

	errs.check("email", validators.EmailValidator(form.Email))
	if len(errs) > 0 {
		renderLogin(c, form, errs)
		return
	}

	user, err := d.Users.ByEmail(ctx, form.Email)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		zap.L().Error("Failed to look up user", zap.Error(err), zap.String("requestID", requestID))
		web.InternalError(c)
		return
	}

	ok := false
	if user != nil {
		ok, err = d.Argon.VerifyPasswd(form.Password, user.Password)
		if err != nil {
			zap.L().Error("Failed to verify password", zap.Error(err), zap.String("requestID", requestID))
			ok = false
		}
	} else {
		ok = d.Argon.VerifyAbsent(form.Password)
	}

	if !ok {
		flash.Set(c, flash.Danger, "Login Unsuccessful. Please check email and password")
		renderLogin(c, form, errs)
		return
	}

	if d.Argon.NeedsRehash(user.Password) {
		if hash, err := d.Argon.GenerateFromPassword(form.Password); err == nil {
			if err := d.Users.UpdatePassword(ctx, user.ID, hash); err != nil {
				zap.L().Warn("Failed to upgrade password hash", zap.Error(err), zap.String("requestID", requestID))
			}
		}
	}

	remember := form.Remember != ""

	token, ttl, err := d.Sessions.Issue(user.ID, remember)
	if err != nil {
		zap.L().Error("Failed to generate JWT auth token", zap.Error(err), zap.String("requestID", requestID))
		web.InternalError(c)
		return
	}

	middleware.SetSession(c, token, ttl, remember)
	c.Redirect(http.StatusFound, safeNext(c.Query("next")))
}

func renderLogin(c *gin.Context, form loginForm, errs formErrors) {
	form.Password = ""

	web.Render(c, http.StatusOK, "login.html", gin.H{
		"Title":  "Login",
		"Form":   form,
		"Errors": errs,
	})
}

func UserLogout(c *gin.Context, _ *internal.Deps) {
	middleware.ClearSession(c)
	c.Redirect(http.StatusFound, "/")
}
