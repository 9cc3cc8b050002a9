package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/yeremiapane/restaurant-ordering/kds"
	"github.com/yeremiapane/restaurant-ordering/middlewares"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

// KDSController streams order events to kitchen and admin screens.
type KDSController struct {
	Hub      *kds.Hub
	upgrader websocket.Upgrader
}

// NewKDSController only accepts upgrades from the configured origins. An
// empty list allows any origin.
func NewKDSController(hub *kds.Hub, origins []string) *KDSController {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return &KDSController{
		Hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || len(allowed) == 0 {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
	}
}

func (kc *KDSController) OrdersStream(c *gin.Context) {
	role := c.GetString(middlewares.ContextRole)
	if role != utils.RoleAdmin {
		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	ws, err := kc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	kc.Hub.Register(ws, role)
	defer kc.Hub.Unregister(ws)

	// Reads only detect the disconnect; clients never send anything.
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
	}
}
