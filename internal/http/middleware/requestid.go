package middleware

import (
	"github.com/ErlanBelekov/auth-server/internal/requestid"
	"github.com/gin-gonic/gin"
)

// RequestID attaches a request id to the request context and echoes it in
// the response header.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := requestid.FromHeader(c.GetHeader(requestid.Header))
		c.Request = c.Request.WithContext(requestid.WithRequestID(c.Request.Context(), id))
		c.Header(requestid.Header, id)
		c.Next()
	}
}
