package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-ordering/services"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

type NotificationController struct {
	Notifications *services.NotificationService
}

func NewNotificationController(notifications *services.NotificationService) *NotificationController {
	return &NotificationController{Notifications: notifications}
}

// GetAllNotifications lists sent confirmation messages, newest first.
func (nc *NotificationController) GetAllNotifications(c *gin.Context) {
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	notifications, err := nc.Notifications.List(c.Request.Context(), limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of notifications", notifications)
}
