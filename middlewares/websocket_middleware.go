package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/mesa-digital/restaurant-app/utils"
)

// RequireWebSocket rejects plain HTTP requests on websocket routes before
// authentication runs.
func RequireWebSocket() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !websocket.IsWebSocketUpgrade(c.Request) {
			utils.RespondJSON(c, http.StatusBadRequest, "websocket upgrade required", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}
