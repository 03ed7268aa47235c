package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Liveness reports that the supervising process itself is up. It
// deliberately ignores the state of supervised services; a process
// busy recovering a dead dependency is still alive.
func Liveness(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "alive",
			"service": serviceName,
			"uptime":  time.Since(startTime).String(),
		})
	}
}
