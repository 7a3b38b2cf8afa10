// Package middleware contains any custom middleware used in the app
package middleware

import (
	"bitwise74/blog/pkg/util"

	"github.com/gin-gonic/gin"
)

const RequestIDHeader = "X-Request-ID"

// NewRequestIDMiddleware returns a new middleware function that generates a request ID for
// each incoming request and sets it as requestID
func NewRequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := util.RandStr(10)

		c.Set("requestID", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// RequestID returns the id assigned by NewRequestIDMiddleware, or an empty
// string outside of it
func RequestID(c *gin.Context) string {
	return c.GetString("requestID")
}
