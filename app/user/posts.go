package user

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"bitwise74/blog/internal"
	"bitwise74/blog/internal/store"
	"bitwise74/blog/web"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PageParam reads ?page=N. Missing or malformed values mean the first page
func PageParam(c *gin.Context) int {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		return 1
	}

	return page
}

func UserPosts(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	ctx := c.Request.Context()
	username := c.Param("username")

	user, err := d.Users.ByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			web.NotFound(c)
			return
		}

		zap.L().Error("Failed to fetch user", zap.Error(err), zap.String("requestID", requestID))
		web.InternalError(c)
		return
	}

	posts, err := d.Posts.ByAuthor(ctx, user.ID, PageParam(c), store.PostsPerPage)
	if err != nil {
		zap.L().Error("Failed to fetch posts", zap.Error(err), zap.String("requestID", requestID))
		web.InternalError(c)
		return
	}

	web.Render(c, http.StatusOK, "user_posts.html", gin.H{
		"Title":   user.Username,
		"User":    user,
		"Posts":   posts,
		"PageURL": "/user/" + url.PathEscape(user.Username) + "?page=",
	})
}

type postsResponse struct {
	*store.Page
	Pages   int    `json:"pages"`
	HasNext bool   `json:"has_next"`
	HasPrev bool   `json:"has_prev"`
	Avatar  string `json:"avatar_url"`
}

func UserPostsJSON(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	ctx := c.Request.Context()

	user, err := d.Users.ByUsername(ctx, c.Param("username"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":     "User not found",
				"requestID": requestID,
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to fetch user", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	posts, err := d.Posts.ByAuthor(ctx, user.ID, PageParam(c), store.PostsPerPage)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to fetch posts", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, postsResponse{
		Page:    posts,
		Pages:   posts.Pages(),
		HasNext: posts.HasNext(),
		HasPrev: posts.HasPrev(),
		Avatar:  d.Avatars.URL(user.ImageFile),
	})
}
