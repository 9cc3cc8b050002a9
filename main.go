package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/yeremiapane/restaurant-ordering/config"
	"github.com/yeremiapane/restaurant-ordering/database"
	"github.com/yeremiapane/restaurant-ordering/kds"
	"github.com/yeremiapane/restaurant-ordering/router"
	"github.com/yeremiapane/restaurant-ordering/services"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

type app struct {
	Handler    http.Handler
	Dispatcher *services.Dispatcher
	closers    []func() error
}

func (a *app) Close() {
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			utils.ErrorLogger.Printf("Shutdown: %v", err)
		}
	}
}

// buildNotifier picks the confirmation transport. Every attempt is recorded
// for the admin notification log.
func buildNotifier(cfg *config.Config, store database.NotificationStore) (services.Notifier, func() error) {
	renderer := services.NewMessageRenderer(cfg.CurrencySymbol)
	var next services.Notifier
	closeFn := func() error { return nil }

	switch cfg.Notifier {
	case config.NotifierWebhook:
		next = services.NewWebhookNotifier(cfg.NotifyWebhookURL, cfg.NotifyWebhookToken, renderer)
	case config.NotifierRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		next = &services.RedisNotifier{Client: client, Channel: cfg.RedisChannel, Renderer: renderer}
		closeFn = client.Close
	default:
		next = &services.LogNotifier{Renderer: renderer}
	}

	return &services.RecordingNotifier{
		Next:     next,
		Store:    store,
		Channel:  cfg.Notifier,
		Renderer: renderer,
	}, closeFn
}

func newApp(cfg *config.Config, store database.Store) *app {
	notifier, closeNotifier := buildNotifier(cfg, store)
	dispatcher := services.NewDispatcher(notifier)
	hub := kds.NewHub()

	carts := services.NewCartService(store)
	orders := services.NewOrderService(store, carts, services.OrderServiceOptions{
		Dispatcher:        dispatcher,
		Broadcaster:       hub,
		StrictTransitions: cfg.StrictTransitions,
		PublicBaseURL:     cfg.PublicBaseURL,
	})

	r := router.SetupRouter(router.Dependencies{
		Config:        cfg,
		Carts:         carts,
		Orders:        orders,
		Catalog:       services.NewCatalogService(store),
		Notifications: services.NewNotificationService(store),
		Hub:           hub,
	})

	return &app{
		Handler:    r,
		Dispatcher: dispatcher,
		closers:    []func() error{closeNotifier},
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		utils.ErrorLogger.Fatalf("Invalid config: %v", err)
	}
	utils.InitLogger(cfg.LogLevel, cfg.LogFormat)
	gin.SetMode(cfg.GinMode)

	ctx := context.Background()
	store, err := database.Open(ctx, cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}

	a := newApp(cfg, store)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.InfoLogger.Printf("Listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.ErrorLogger.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	utils.InfoLogger.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.ErrorLogger.Printf("Server forced to shutdown: %v", err)
	}

	// Let in-flight confirmations finish before the store goes away.
	a.Dispatcher.Wait()
	a.Close()
	if err := store.Close(shutdownCtx); err != nil {
		utils.ErrorLogger.Printf("Close store: %v", err)
	}
	utils.InfoLogger.Println("Server exiting")
}
