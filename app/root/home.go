package root

import (
	"net/http"

	"bitwise74/blog/app/user"
	"bitwise74/blog/internal"
	"bitwise74/blog/internal/store"
	"bitwise74/blog/web"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Home lists every post, newest first
func Home(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	posts, err := d.Posts.All(c.Request.Context(), user.PageParam(c), store.PostsPerPage)
	if err != nil {
		zap.L().Error("Failed to fetch posts", zap.Error(err), zap.String("requestID", requestID))
		web.InternalError(c)
		return
	}

	web.Render(c, http.StatusOK, "home.html", gin.H{
		"Posts":   posts,
		"PageURL": "/home?page=",
	})
}
