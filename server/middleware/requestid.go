package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HeaderRequestID is the header carrying the request correlation id.
const HeaderRequestID = "X-Request-Id"

const contextKeyRequestID = "request_id"

// RequestID assigns every request a correlation id, preserving an
// inbound one, so supervision events triggered by an admin call
// (manual recovery, eviction) can be traced back to it in the logs.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(contextKeyRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// RequestIDFrom returns the correlation id assigned to the request,
// or empty when the RequestID middleware did not run.
func RequestIDFrom(c *gin.Context) string {
	return c.GetString(contextKeyRequestID)
}
