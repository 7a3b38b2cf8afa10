package root

import (
	"net/http"
	"os"

	"bitwise74/blog/internal"
	"bitwise74/blog/internal/model"
	"bitwise74/blog/internal/service"
	"bitwise74/blog/web"

	"github.com/gin-gonic/gin"
)

// Avatar serves profile pictures kept on disk. The default picture is
// rendered in memory and pictures kept in a bucket are redirected to
func Avatar(c *gin.Context, d *internal.Deps) {
	name := c.Param("name")

	if name == model.DefaultImageFile {
		c.Header("Cache-Control", "public, max-age=86400")
		c.Data(http.StatusOK, "image/jpeg", service.DefaultAvatar())
		return
	}

	switch s := d.Avatars.Store().(type) {
	case *service.LocalAvatarStore:
		p, err := s.Path(name)
		if err == nil {
			_, err = os.Stat(p)
		}

		if err != nil {
			web.NotFound(c)
			return
		}

		c.Header("Cache-Control", "public, max-age=31536000, immutable")
		c.File(p)
	default:
		c.Redirect(http.StatusMovedPermanently, d.Avatars.URL(name))
	}
}
