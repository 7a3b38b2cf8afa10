package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// BodySizeLimiter caps the request body. Requests that announce a bigger
// body are rejected right away, the rest fail once the handler reads past
// the limit
func BodySizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Fast reject for legit requests
		if c.Request.ContentLength > maxBytes {
			c.HTML(http.StatusRequestEntityTooLarge, "error.html", gin.H{
				"Code":    http.StatusRequestEntityTooLarge,
				"Message": "The uploaded file is too large.",
			})
			c.Abort()
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// IsBodyTooLarge reports whether err came from reading past the limit set
// by BodySizeLimiter
func IsBodyTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
