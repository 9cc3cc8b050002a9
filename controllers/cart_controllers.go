package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-ordering/middlewares"
	"github.com/yeremiapane/restaurant-ordering/services"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

type CartController struct {
	Carts *services.CartService
}

func NewCartController(carts *services.CartService) *CartController {
	return &CartController{Carts: carts}
}

type updateQuantityRequest struct {
	Quantity     int `json:"quantity"`
	PortionIndex int `json:"portionIndex"`
}

func (cc *CartController) GetCart(c *gin.Context) {
	cart, err := cc.Carts.GetCart(c.Request.Context(), middlewares.UserID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Cart", cart)
}

func (cc *CartController) GetSummary(c *gin.Context) {
	summary, err := cc.Carts.Summary(c.Request.Context(), middlewares.UserID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Cart summary", summary)
}

func (cc *CartController) AddItem(c *gin.Context) {
	var req services.AddItemInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}

	cart, err := cc.Carts.AddItem(c.Request.Context(), middlewares.UserID(c), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Item added to cart", cart)
}

func (cc *CartController) UpdateItem(c *gin.Context) {
	var req updateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}

	cart, err := cc.Carts.UpdateItemQuantity(c.Request.Context(), middlewares.UserID(c), c.Param("food_id"), req.Quantity, req.PortionIndex)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Cart updated", cart)
}

func (cc *CartController) RemoveItem(c *gin.Context) {
	portion, err := queryInt(c, "portion", 0)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	cart, err := cc.Carts.RemoveItem(c.Request.Context(), middlewares.UserID(c), c.Param("food_id"), portion)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Item removed from cart", cart)
}

func (cc *CartController) ClearCart(c *gin.Context) {
	cart, err := cc.Carts.Clear(c.Request.Context(), middlewares.UserID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Cart cleared", cart)
}
