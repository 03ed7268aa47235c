package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/skillsenselab/svckit/errors"
	"github.com/skillsenselab/svckit/recovery"
	"github.com/skillsenselab/svckit/registry"
	"github.com/skillsenselab/svckit/validation"
)

// ListServices returns a handler listing every registered service with
// its cached health status.
func ListServices(reg *registry.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		descs := reg.List()
		out := make([]gin.H, 0, len(descs))
		for _, desc := range descs {
			out = append(out, gin.H{
				"id":           desc.ID,
				"name":         desc.Name,
				"version":      desc.Version,
				"type":         desc.Type,
				"tags":         desc.Tags,
				"dependencies": desc.Dependencies,
				"status":       reg.HealthRecord(desc.ID).Status,
			})
		}
		c.JSON(http.StatusOK, gin.H{"services": out, "count": len(out)})
	}
}

// GetService returns a handler reporting one service's description,
// health record, dependency state, and recovery bookkeeping.
func GetService(reg *registry.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		desc, ok := reg.Describe(id)
		if !ok {
			respondAppError(c, apperrors.NotFound(id))
			return
		}

		body := gin.H{
			"description":            desc,
			"health":                 reg.HealthRecord(id),
			"dependencies_satisfied": reg.Satisfied(id),
			"dependents":             reg.Dependents(id),
		}
		if st, tracked := reg.RecoveryState(id); tracked {
			body["recovery"] = gin.H{
				"attempts":     st.Attempts,
				"strategy":     st.Strategy,
				"last_attempt": st.LastAttempt,
			}
		}
		c.JSON(http.StatusOK, body)
	}
}

// recoverRequest is the optional body of POST /services/:id/recover.
type recoverRequest struct {
	Strategy string `json:"strategy"`
	DelayMS  int    `json:"delay_ms"`
}

// RecoverService returns a handler triggering a manual recovery
// attempt, optionally pinning the strategy instead of escalating.
func RecoverService(reg *registry.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		var req recoverRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				respondAppError(c, apperrors.Validation("request body is not valid JSON"))
				return
			}
		}

		v := validation.New()
		v.OneOf("strategy", req.Strategy, []string{
			string(recovery.StrategyRestart),
			string(recovery.StrategyReconnect),
			string(recovery.StrategyReinitialize),
		})
		v.Min("delay_ms", req.DelayMS, 0)
		if appErr := v.Validate(); appErr != nil {
			respondAppError(c, appErr)
			return
		}

		var opts []recovery.AttemptOption
		if req.Strategy != "" {
			opts = append(opts, recovery.WithStrategy(recovery.Strategy(req.Strategy)))
		}
		if req.DelayMS > 0 {
			opts = append(opts, recovery.WithDelay(time.Duration(req.DelayMS)*time.Millisecond))
		}

		recovered, err := reg.Recover(c.Request.Context(), id, opts...)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"service_id": id, "recovered": recovered})
	}
}

// executeRequest is the body of POST /services/:id/execute.
type executeRequest struct {
	Command string         `json:"command"`
	Params  map[string]any `json:"params"`
}

// ExecuteCommand returns a handler dispatching a command to a service
// through the registry's circuit breaker.
func ExecuteCommand(reg *registry.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		var req executeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondAppError(c, apperrors.Validation("request body is not valid JSON"))
			return
		}

		v := validation.New()
		v.Required("command", req.Command)
		if appErr := v.Validate(); appErr != nil {
			respondAppError(c, appErr)
			return
		}

		result, err := reg.Execute(c.Request.Context(), id, req.Command, req.Params)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"service_id": id, "command": req.Command, "result": result})
	}
}

// UnregisterService returns a handler removing a service from the
// registry.
func UnregisterService(reg *registry.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if !reg.Unregister(id) {
			respondAppError(c, apperrors.NotFound(id))
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func respondAppError(c *gin.Context, appErr *apperrors.AppError) {
	c.JSON(appErr.HTTPStatus, appErr.ToResponse())
}

func respondError(c *gin.Context, err error) {
	if appErr, ok := apperrors.AsAppError(err); ok {
		respondAppError(c, appErr)
		return
	}
	respondAppError(c, apperrors.Internal(err))
}
