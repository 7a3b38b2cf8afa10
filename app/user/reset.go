package user

import (
	"context"
	"errors"
	"net/http"

	"bitwise74/blog/internal"
	"bitwise74/blog/internal/model"
	"bitwise74/blog/internal/service"
	"bitwise74/blog/internal/store"
	"bitwise74/blog/pkg/flash"
	"bitwise74/blog/pkg/security"
	"bitwise74/blog/pkg/validators"
	"bitwise74/blog/web"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type resetRequestForm struct {
	Email string `form:"email" binding:"required"`
}

type resetPasswordForm struct {
	Password        string `form:"password" binding:"required"`
	ConfirmPassword string `form:"confirm_password" binding:"required"`
}

func UserResetRequestPage(c *gin.Context, _ *internal.Deps) {
	web.Render(c, http.StatusOK, "reset_request.html", gin.H{
		"Title":  "Reset Password",
		"Form":   resetRequestForm{},
		"Errors": formErrors{},
	})
}

// UserResetRequest answers the same way whether or not the address belongs
// to an account
func UserResetRequest(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	ctx := c.Request.Context()

	var form resetRequestForm
	errs, err := bindForm(c, &form)
	if err != nil {
		zap.L().Debug("Can't bind reset request form", zap.Error(err), zap.String("requestID", requestID))
		errs["email"] = msgRequired
	}

	errs.check("email", validators.EmailValidator(form.Email))
	if len(errs) > 0 {
		web.Render(c, http.StatusOK, "reset_request.html", gin.H{
			"Title":  "Reset Password",
			"Form":   form,
			"Errors": errs,
		})
		return
	}

	user, err := d.Users.ByEmail(ctx, form.Email)
	switch {
	case errors.Is(err, store.ErrNotFound):
		zap.L().Debug("Password reset requested for unknown email", zap.String("requestID", requestID))
	case err != nil:
		zap.L().Error("Failed to look up user", zap.Error(err), zap.String("requestID", requestID))
		web.InternalError(c)
		return
	default:
		sendResetMail(d, user, requestID)
	}

	flash.Set(c, flash.Info, "An email has been sent with instructions to reset your password.")
	c.Redirect(http.StatusFound, "/login")
}

func sendResetMail(d *internal.Deps, user *model.User, requestID string) {
	token, err := d.ResetTokens.Issue(user.ID, security.ResetTokenTTL)
	if err != nil {
		zap.L().Error("Failed to generate reset token", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if err := d.Mail.Enqueue(service.ResetMail(user.Email, token)); err != nil {
		zap.L().Error("Failed to enqueue reset mail", zap.Error(err), zap.String("requestID", requestID))
	}
}

// resetTarget resolves the token in the URL. On failure the caller has
// already been redirected
func resetTarget(c *gin.Context, d *internal.Deps) (*model.User, *security.ResetToken, bool) {
	requestID := c.MustGet("requestID").(string)
	ctx := c.Request.Context()

	tok, err := d.ResetTokens.Verify(c.Param("token"))
	if err != nil {
		invalidToken(c)
		return nil, nil, false
	}

	used, err := d.UsedTokens.IsUsed(ctx, tok.ID)
	if err != nil {
		zap.L().Error("Failed to check reset token", zap.Error(err), zap.String("requestID", requestID))
		web.InternalError(c)
		return nil, nil, false
	}

	if used {
		invalidToken(c)
		return nil, nil, false
	}

	user, err := d.Users.ByID(ctx, tok.UserID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			zap.L().Error("Failed to fetch user", zap.Error(err), zap.String("requestID", requestID))
			web.InternalError(c)
			return nil, nil, false
		}

		invalidToken(c)
		return nil, nil, false
	}

	return user, tok, true
}

func invalidToken(c *gin.Context) {
	flash.Set(c, flash.Warning, "That is an invalid or expired token")
	c.Redirect(http.StatusFound, "/reset_password")
}

func UserResetTokenPage(c *gin.Context, d *internal.Deps) {
	if _, _, ok := resetTarget(c, d); !ok {
		return
	}

	web.Render(c, http.StatusOK, "reset_token.html", gin.H{
		"Title":  "Reset Password",
		"Errors": formErrors{},
	})
}

func UserResetToken(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	ctx := c.Request.Context()

	user, tok, ok := resetTarget(c, d)
	if !ok {
		return
	}

	var form resetPasswordForm
	errs, err := bindForm(c, &form)
	if err != nil {
		zap.L().Debug("Can't bind reset form", zap.Error(err), zap.String("requestID", requestID))
		errs["password"] = msgRequired
	}

	errs.checkPassword(form.Password, form.ConfirmPassword)

	if len(errs) > 0 {
		web.Render(c, http.StatusOK, "reset_token.html", gin.H{
			"Title":  "Reset Password",
			"Errors": errs,
		})
		return
	}

	hash, err := d.Argon.GenerateFromPassword(form.Password)
	if err != nil {
		zap.L().Error("Failed to hash password", zap.Error(err), zap.String("requestID", requestID))
		web.InternalError(c)
		return
	}

	if err := d.UsedTokens.MarkUsed(ctx, tok.ID, user.ID, tok.ExpiresAt); err != nil {
		if errors.Is(err, store.ErrTokenUsed) {
			invalidToken(c)
			return
		}

		zap.L().Error("Failed to consume reset token", zap.Error(err), zap.String("requestID", requestID))
		web.InternalError(c)
		return
	}

	if err := d.Users.UpdatePassword(ctx, user.ID, hash); err != nil {
		zap.L().Error("Failed to update password", zap.Error(err), zap.String("requestID", requestID))

		// The link has to keep working for a retry
		if err := d.UsedTokens.Release(context.WithoutCancel(ctx), tok.ID); err != nil {
			zap.L().Error("Failed to release reset token", zap.Error(err), zap.String("requestID", requestID))
		}

		web.InternalError(c)
		return
	}

	flash.Set(c, flash.Success, "Your password has been updated! You are now able to log in")
	c.Redirect(http.StatusFound, "/login")
}
