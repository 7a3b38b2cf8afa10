package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"bitwise74/blog/internal/model"
	"bitwise74/blog/internal/store"
	"bitwise74/blog/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeUsers map[uint]*model.User

func (f fakeUsers) ByID(_ context.Context, id uint) (*model.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}

	return nil, store.ErrNotFound
}

func newEngine() *gin.Engine {
	r := gin.New()
	r.SetHTMLTemplate(template.Must(template.New("error.html").Parse("{{.Code}} {{.Message}}")))
	return r
}

func sessionEngine(users fakeUsers, s *security.Sessions) *gin.Engine {
	r := newEngine()
	r.Use(NewRequestIDMiddleware(), NewSessionMiddleware(users, s))

	r.GET("/account", RequireAuth(), func(c *gin.Context) {
		c.String(http.StatusOK, CurrentUser(c).Username)
	})
	r.GET("/login", RedirectAuthenticated("/"), func(c *gin.Context) {
		c.String(http.StatusOK, "login form")
	})

	return r
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, ck := range w.Result().Cookies() {
		if ck.Name == SessionCookie {
			return ck
		}
	}

	return nil
}

func TestRequireAuthRedirectsAnonymous(t *testing.T) {
	r := sessionEngine(fakeUsers{}, security.NewSessions("secret"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/account?tab=1", nil))

	require.Equal(t, http.StatusFound, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/login", loc.Path)
	assert.Equal(t, "/account?tab=1", loc.Query().Get("next"))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestRequireAuthWithSession(t *testing.T) {
	s := security.NewSessions("secret")
	r := sessionEngine(fakeUsers{3: {ID: 3, Username: "jo"}}, s)

	token, _, err := s.Issue(3, false)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/account", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jo", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/login", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestSessionCookieClearedWhenInvalid(t *testing.T) {
	s := security.NewSessions("secret")
	other, _, err := security.NewSessions("other").Issue(3, false)
	require.NoError(t, err)
	gone, _, err := s.Issue(9, false)
	require.NoError(t, err)

	r := sessionEngine(fakeUsers{3: {ID: 3, Username: "jo"}}, s)

	for _, token := range []string{"garbage", other, gone} {
		req := httptest.NewRequest(http.MethodGet, "/login", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		ck := sessionCookie(w)
		require.NotNil(t, ck)
		assert.True(t, ck.MaxAge < 0)
	}
}

func TestSetSessionRemember(t *testing.T) {
	r := gin.New()
	r.GET("/", func(c *gin.Context) {
		SetSession(c, "tok", security.RememberTTL, c.Query("remember") == "1")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/?remember=1", nil))
	ck := sessionCookie(w)
	require.NotNil(t, ck)
	assert.Equal(t, int(security.RememberTTL.Seconds()), ck.MaxAge)
	assert.True(t, ck.HttpOnly)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	ck = sessionCookie(w)
	require.NotNil(t, ck)
	assert.Equal(t, 0, ck.MaxAge)
	assert.True(t, ck.Expires.IsZero())
}

func TestRateLimiter(t *testing.T) {
	r := newEngine()
	r.Use(RateLimiterMiddleware(RateLimiterConfig{RequestsPerMinute: 2, Methods: []string{http.MethodPost}}))
	r.Any("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := []int{}
	for range 3 {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBodySizeLimiter(t *testing.T) {
	r := newEngine()
	r.POST("/", BodySizeLimiter(10), func(c *gin.Context) {
		if _, err := c.GetRawData(); err != nil {
			if IsBodyTooLarge(err) {
				c.Status(http.StatusRequestEntityTooLarge)
				return
			}
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("short")))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 64))))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	// Chunked bodies don't announce their size
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 64)))
	req.ContentLength = -1
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	assert.False(t, IsBodyTooLarge(errors.New("unexpected EOF")))
	assert.True(t, IsBodyTooLarge(fmt.Errorf("failed to read form, %w", &http.MaxBytesError{Limit: 10})))
}

func TestTurnstile(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(response{Success: got["response"] == "good"})
	}))
	defer srv.Close()

	old := turnstileVerifyURL
	turnstileVerifyURL = srv.URL
	t.Cleanup(func() { turnstileVerifyURL = old })

	viper.Set("cloudflare.turnstile.enabled", true)
	viper.Set("cloudflare.turnstile.secret_token", "s3cret")
	t.Cleanup(viper.Reset)

	r := newEngine()
	r.Any("/register", NewTurnstileMiddleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	post := func(answer string) *httptest.ResponseRecorder {
		form := url.Values{TurnstileField: {answer}}
		req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, post("good").Code)
	assert.Equal(t, "s3cret", got["secret"])

	w := post("bad")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/register", w.Header().Get("Location"))

	assert.Equal(t, http.StatusFound, post("").Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/register", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
