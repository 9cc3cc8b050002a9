package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-ordering/config"
	"github.com/yeremiapane/restaurant-ordering/controllers"
	"github.com/yeremiapane/restaurant-ordering/kds"
	"github.com/yeremiapane/restaurant-ordering/middlewares"
	"github.com/yeremiapane/restaurant-ordering/services"
)

// Dependencies are the services the HTTP layer exposes.
type Dependencies struct {
	Config        *config.Config
	Carts         *services.CartService
	Orders        *services.OrderService
	Catalog       *services.CatalogService
	Notifications *services.NotificationService
	Hub           *kds.Hub
}

func SetupRouter(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	secret := []byte(cfg.JWTSecret)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.SecurityHeaders(cfg.GinMode == gin.ReleaseMode))
	r.Use(middlewares.CORSMiddlewares(cfg.CORSOrigins))
	r.Use(middlewares.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).RateLimit())

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	cartCtrl := controllers.NewCartController(deps.Carts)
	menuCtrl := controllers.NewMenuController(deps.Catalog)
	categoryCtrl := controllers.NewMenuCategoryController(deps.Catalog)
	orderCtrl := controllers.NewOrderController(deps.Orders)
	adminCtrl := controllers.NewAdminController(deps.Orders)
	notificationCtrl := controllers.NewNotificationController(deps.Notifications)
	kdsCtrl := controllers.NewKDSController(deps.Hub, cfg.CORSOrigins)

	// Storefront catalog
	r.GET("/categories", categoryCtrl.GetAllCategories)
	r.GET("/menus", menuCtrl.GetAllMenus)
	r.GET("/menus/:menu_id", menuCtrl.GetMenuByID)

	shop := r.Group("/")
	shop.Use(middlewares.ShopperIdentity(secret))
	{
		shop.GET("/cart", cartCtrl.GetCart)
		shop.GET("/cart/summary", cartCtrl.GetSummary)
		shop.POST("/cart/items", cartCtrl.AddItem)
		shop.PATCH("/cart/items/:food_id", cartCtrl.UpdateItem)
		shop.DELETE("/cart/items/:food_id", cartCtrl.RemoveItem)
		shop.DELETE("/cart", cartCtrl.ClearCart)

		checkoutLimiter := middlewares.NewStrictRateLimiter(10*time.Second, 3)
		shop.POST("/orders", checkoutLimiter.RateLimit(), orderCtrl.CreateOrder)
		shop.GET("/orders", orderCtrl.GetMyOrders)
		shop.GET("/orders/:order_id", orderCtrl.GetOrderByID)
		shop.GET("/orders/:order_id/qr", orderCtrl.GetOrderQR)
		shop.POST("/orders/:order_id/cancel", orderCtrl.CancelOrder)
	}

	admin := r.Group("/admin")
	admin.Use(middlewares.AuthMiddleware(secret), middlewares.RoleCheck("admin"))
	{
		admin.GET("/categories", categoryCtrl.GetAllCategories)
		admin.POST("/categories", categoryCtrl.CreateCategory)
		admin.PATCH("/categories/:cat_id", categoryCtrl.UpdateCategory)

		admin.POST("/menus", menuCtrl.CreateMenu)
		admin.PATCH("/menus/:menu_id", menuCtrl.UpdateMenu)

		admin.GET("/orders", adminCtrl.GetAllOrders)
		admin.GET("/orders/stats", adminCtrl.GetOrderStats)
		admin.PATCH("/orders/:order_id/status", adminCtrl.UpdateOrderStatus)

		admin.GET("/notifications", notificationCtrl.GetAllNotifications)
	}

	ws := r.Group("/ws")
	ws.Use(middlewares.WebSocketAuthMiddleware(secret))
	{
		ws.GET("/orders", kdsCtrl.OrdersStream)
	}

	return r
}
