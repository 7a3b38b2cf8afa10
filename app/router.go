// Package app wires the HTTP routes of the blog
package app

import (
	"net/http"
	"strings"
	"time"

	"bitwise74/blog/app/root"
	"bitwise74/blog/app/user"
	"bitwise74/blog/internal"
	"bitwise74/blog/pkg/middleware"
	"bitwise74/blog/web"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewRouter registers every route on a new engine. d must be fully built,
// see NewDeps
func NewRouter(d *internal.Deps) (*gin.Engine, error) {
	router := gin.New()

	tmpl, err := web.Templates(d.Avatars.URL)
	if err != nil {
		return nil, err
	}
	router.SetHTMLTemplate(tmpl)

	router.Use(
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == http.MethodHead
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if u := middleware.CurrentUser(c); u != nil {
					fields = append(fields, zap.Uint("user_id", u.ID))
				}

				return fields
			},
		}),
	)

	if origins := viper.GetString("host.cors"); origins != "" {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     strings.Split(origins, ","),
			AllowMethods:     []string{"GET", "HEAD", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true
	router.MaxMultipartMemory = 8 << 20

	session := middleware.NewSessionMiddleware(d.Users, d.Sessions)
	auth := middleware.RequireAuth()
	anon := middleware.RedirectAuthenticated("/")
	turnstile := middleware.NewTurnstileMiddleware()
	rateLimiter := middleware.RateLimiterMiddleware(middleware.RateLimiterConfig{
		RequestsPerMinute: viper.GetInt("security.rate_limit"),
		Methods:           []string{http.MethodPost},
	})
	maxUploadSize := viper.GetInt64("upload.max_size")

	router.NoRoute(session, web.NotFound)
	router.NoMethod(session, func(c *gin.Context) {
		web.Render(c, http.StatusMethodNotAllowed, "error.html", gin.H{
			"Title":   "Error",
			"Code":    http.StatusMethodNotAllowed,
			"Message": "Method Not Allowed (405)",
		})
	})

	// GET /static/profile_pics/:name	-> Serves a profile picture
	router.GET("/static/profile_pics/:name", func(c *gin.Context) { root.Avatar(c, d) })

	h := router.Group("", session)
	{
		// GET /, /home			-> Lists every post
		h.GET("/", func(c *gin.Context) { root.Home(c, d) })
		h.GET("/home", func(c *gin.Context) { root.Home(c, d) })

		// GET|POST /register		-> Registers a new user
		h.GET("/register", anon, func(c *gin.Context) { user.UserRegisterPage(c, d) })
		h.POST("/register", anon, turnstile, func(c *gin.Context) { user.UserRegister(c, d) })

		// GET|POST /login		-> Logs in a user and sets the session cookie
		h.GET("/login", anon, func(c *gin.Context) { user.UserLoginPage(c, d) })
		h.POST("/login", anon, rateLimiter, func(c *gin.Context) { user.UserLogin(c, d) })

		// GET /logout			-> Clears the session cookie
		h.GET("/logout", func(c *gin.Context) { user.UserLogout(c, d) })

		// GET|POST /account		-> Shows and updates the logged in user
		h.GET("/account", auth, func(c *gin.Context) { user.UserAccountPage(c, d) })
		h.POST("/account", auth, middleware.BodySizeLimiter(maxUploadSize+1<<20), func(c *gin.Context) { user.UserAccount(c, d) })

		// GET /user/:username		-> Lists the posts of a user
		h.GET("/user/:username", func(c *gin.Context) { user.UserPosts(c, d) })

		// GET|POST /reset_password	-> Mails a password reset link
		h.GET("/reset_password", anon, func(c *gin.Context) { user.UserResetRequestPage(c, d) })
		h.POST("/reset_password", anon, rateLimiter, turnstile, func(c *gin.Context) { user.UserResetRequest(c, d) })

		// GET|POST /reset_password/:token	-> Sets a new password
		h.GET("/reset_password/:token", anon, func(c *gin.Context) { user.UserResetTokenPage(c, d) })
		h.POST("/reset_password/:token", anon, rateLimiter, func(c *gin.Context) { user.UserResetToken(c, d) })
	}

	cacheStore := persist.NewMemoryStore(time.Minute)

	m := router.Group("/api")
	{
		// HEAD /api/heartbeat		-> Used to check if the server is alive
		m.HEAD("/heartbeat", root.Heartbeat)

		// GET /api/users/:username/posts	-> Lists the posts of a user as JSON
		m.GET("/users/:username/posts", cacheFor(cacheStore, 30), func(c *gin.Context) { user.UserPostsJSON(c, d) })
	}

	return router, nil
}

func cacheFor(store persist.CacheStore, sec int) gin.HandlerFunc {
	return cache.CacheByRequestURI(store, time.Second*time.Duration(sec))
}
