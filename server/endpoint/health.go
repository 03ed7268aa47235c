package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/svckit/registry"
	"github.com/skillsenselab/svckit/service"
)

// Health returns a handler that probes every registered service and
// reports the aggregated status.
func Health(serviceName string, reg *registry.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		records := reg.CheckAllHealth(c.Request.Context())

		status := service.StatusHealthy
		for _, rec := range records {
			if rec.Status == service.StatusUnhealthy {
				status = service.StatusUnhealthy
				break
			}
			if rec.Status == service.StatusDegraded {
				status = service.StatusDegraded
			}
		}

		httpStatus := http.StatusOK
		if status == service.StatusUnhealthy {
			httpStatus = http.StatusServiceUnavailable
		}

		c.JSON(httpStatus, gin.H{
			"status":    status,
			"service":   serviceName,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"services":  records,
		})
	}
}
