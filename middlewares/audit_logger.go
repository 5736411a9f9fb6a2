package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/mesa-digital/restaurant-app/services"
)

// AuditTrail records action in the access log once the request succeeded.
func AuditTrail(logger *services.AccessLogger, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Status() >= 400 {
			return
		}
		if sc, ok := CurrentSession(c); ok {
			logger.Record(sc, action, c.ClientIP())
		}
	}
}
