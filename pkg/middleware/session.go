package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"bitwise74/blog/internal/model"
	"bitwise74/blog/internal/store"
	"bitwise74/blog/pkg/flash"
	"bitwise74/blog/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	SessionCookie = "auth_token"
	userKey       = "user"
)

type UserLoader interface {
	ByID(ctx context.Context, id uint) (*model.User, error)
}

// NewSessionMiddleware resolves the auth_token cookie to a user on every
// request. A cookie that doesn't resolve is cleared and the request goes on
// as anonymous
func NewSessionMiddleware(users UserLoader, s *security.Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(SessionCookie)
		if err != nil || token == "" {
			c.Next()
			return
		}

		userID, err := s.Parse(token)
		if err != nil {
			ClearSession(c)
			c.Next()
			return
		}

		user, err := users.ByID(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				ClearSession(c)
			} else {
				zap.L().Error("Failed to load session user", zap.Error(err), zap.String("requestID", RequestID(c)))
			}

			c.Next()
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

// CurrentUser returns the logged in user or nil for anonymous requests
func CurrentUser(c *gin.Context) *model.User {
	if v, ok := c.Get(userKey); ok {
		if u, ok := v.(*model.User); ok {
			return u
		}
	}

	return nil
}

// RequireAuth sends anonymous callers to the login page and remembers
// where they were going
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) != nil {
			c.Next()
			return
		}

		flash.Set(c, flash.Info, "Please log in to access this page.")
		c.Redirect(http.StatusFound, "/login?next="+url.QueryEscape(c.Request.URL.RequestURI()))
		c.Abort()
	}
}

// RedirectAuthenticated keeps logged in users away from pages meant for
// anonymous ones, like the login form
func RedirectAuthenticated(to string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) != nil {
			c.Redirect(http.StatusFound, to)
			c.Abort()
			return
		}

		c.Next()
	}
}

// SetSession writes the session cookie. Without remember the cookie is
// dropped when the browser closes, the token itself expires after ttl
func SetSession(c *gin.Context, token string, ttl time.Duration, remember bool) {
	maxAge := 0
	if remember {
		maxAge = int(ttl.Seconds())
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, token, maxAge, "/", "", viper.GetBool("host.ssl.enabled"), true)
}

func ClearSession(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, "", -1, "/", "", viper.GetBool("host.ssl.enabled"), true)
}
