// Package web holds the HTML templates and the helper that renders them
package web

import (
	"embed"
	"html/template"
	"net/http"
	"time"

	"bitwise74/blog/pkg/flash"
	"bitwise74/blog/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
)

//go:embed templates/*.html
var files embed.FS

// Templates parses every embedded page. avatarURL maps a stored image file
// name to the address it is served from
func Templates(avatarURL func(string) string) (*template.Template, error) {
	return template.New("").Funcs(template.FuncMap{
		"avatar": avatarURL,
		"date": func(t time.Time) string {
			return t.Format("2006-01-02")
		},
	}).ParseFS(files, "templates/*.html")
}

// Render executes a page with the values every page needs: the current
// user, pending flash messages and the turnstile site key
func Render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}

	data["CurrentUser"] = middleware.CurrentUser(c)
	data["Flashes"] = flash.Pop(c)

	if viper.GetBool("cloudflare.turnstile.enabled") {
		data["TurnstileSiteKey"] = viper.GetString("cloudflare.turnstile.site_key")
	}

	c.HTML(status, name, data)
}

// NotFound renders the 404 page
func NotFound(c *gin.Context) {
	Render(c, http.StatusNotFound, "error.html", gin.H{
		"Title":   "Not Found",
		"Code":    http.StatusNotFound,
		"Message": "Oops. Page Not Found (404)",
	})
}

// InternalError renders the 500 page. The request id lets users quote the
// failing request
func InternalError(c *gin.Context) {
	Render(c, http.StatusInternalServerError, "error.html", gin.H{
		"Title":     "Error",
		"Code":      http.StatusInternalServerError,
		"Message":   "Something went wrong (500). We're experiencing some trouble on our end, please try again in the near future.",
		"RequestID": middleware.RequestID(c),
	})
	c.Abort()
}
