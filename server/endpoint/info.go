package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/svckit/registry"
	"github.com/skillsenselab/svckit/version"
)

// startTime anchors the uptime reported by Info and Liveness.
var startTime = time.Now()

// Info reports build metadata for the supervising process together
// with a summary of what it is currently supervising.
func Info(serviceName string, reg *registry.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		v := version.GetVersionInfo()
		cfg := reg.Config()
		c.JSON(http.StatusOK, gin.H{
			"service":    serviceName,
			"version":    v.Version,
			"git_commit": v.GitCommit,
			"build_time": v.BuildTime,
			"go_version": v.GoVersion,
			"uptime":     time.Since(startTime).String(),
			"supervision": gin.H{
				"services":              len(reg.List()),
				"auto_recover":          cfg.AutoRecover,
				"health_check_interval": cfg.HealthCheckInterval.String(),
			},
		})
	}
}
