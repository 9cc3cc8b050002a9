package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-ordering/services"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

// AdminController serves the back-office order console.
type AdminController struct {
	Orders *services.OrderService
}

func NewAdminController(orders *services.OrderService) *AdminController {
	return &AdminController{Orders: orders}
}

type updateStatusRequest struct {
	Status string `json:"status"`
	services.StatusExtras
}

func (ac *AdminController) GetAllOrders(c *gin.Context) {
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	orders, err := ac.Orders.ListOrders(c.Request.Context(), c.Query("status"), limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", orders)
}

func (ac *AdminController) GetOrderStats(c *gin.Context) {
	stats, err := ac.Orders.Stats(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order statistics", stats)
}

func (ac *AdminController) UpdateOrderStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}

	order, err := ac.Orders.SetStatus(c.Request.Context(), c.Param("order_id"), req.Status, req.StatusExtras)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order status updated", order)
}
