package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/mesa-digital/restaurant-app/models"
	"github.com/mesa-digital/restaurant-app/services"
	"github.com/mesa-digital/restaurant-app/utils"
)

// RequireRole admits sessions whose role grants required. Tenant checks happen
// in the services, where the target tenant is known.
func RequireRole(required models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		sc, ok := CurrentSession(c)
		if !ok {
			utils.RespondError(c, utils.ErrUnauthenticated)
			c.Abort()
			return
		}

		if err := services.Authorize(&sc, required, 0); err != nil {
			utils.InfoLogger.WithField("user_id", sc.UserID).Debugf("Role %s denied, %s required", sc.Role, required)
			utils.RespondError(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}
