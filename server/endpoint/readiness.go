package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/svckit/registry"
	"github.com/skillsenselab/svckit/service"
)

// Readiness returns a handler for readiness probes. It reads the
// cached health snapshot rather than probing, so load balancers can
// poll it cheaply.
func Readiness(serviceName string, reg *registry.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "ready"
		httpStatus := http.StatusOK

		for _, rec := range reg.HealthSnapshot() {
			if rec.Status == service.StatusUnhealthy {
				status = "not_ready"
				httpStatus = http.StatusServiceUnavailable
				break
			}
		}

		c.JSON(httpStatus, gin.H{
			"status":    status,
			"service":   serviceName,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}
