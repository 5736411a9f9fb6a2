package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/mesa-digital/restaurant-app/kds"
	"github.com/mesa-digital/restaurant-app/utils"
	"github.com/sirupsen/logrus"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// KDSController streams tenant events to kitchen and admin displays.
type KDSController struct {
	Hub      *kds.Hub
	upgrader websocket.Upgrader
}

// NewKDSController accepts websocket handshakes from allowedOrigin, or from
// anywhere when it is "*".
func NewKDSController(hub *kds.Hub, allowedOrigin string) *KDSController {
	return &KDSController{
		Hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowedOrigin == "*" || origin == "" || origin == allowedOrigin
			},
		},
	}
}

// Stream subscribes the connection to /ws/:topic of the session's tenant.
func (kc *KDSController) Stream(c *gin.Context) {
	topic, ok := kds.ParseTopic(c.Param("topic"))
	if !ok {
		utils.RespondError(c, utils.InvalidField("topic", "must be kitchen or admin"))
		return
	}
	tenantID, ok := tenantScope(c)
	if !ok {
		return
	}

	ws, err := kc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer ws.Close()

	sub := kc.Hub.Subscribe(tenantID, topic)
	defer sub.Close()

	log := utils.InfoLogger.WithFields(logrus.Fields{"tenant_id": tenantID, "topic": topic})
	log.Info("Display connected")
	defer log.Info("Display disconnected")

	// reads only detect the close and keep pongs flowing
	done := make(chan struct{})
	go func() {
		defer close(done)
		ws.SetReadDeadline(time.Now().Add(pongWait))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case msg, open := <-sub.C:
			if !open {
				return
			}
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
