package database

import (
	"context"
	"errors"
	"time"

	"github.com/yeremiapane/restaurant-ordering/models"
)

var (
	ErrRecordNotFound  = errors.New("record not found")
	ErrVersionConflict = errors.New("version conflict")
	ErrDuplicate       = errors.New("duplicate key")
)

// CartStore persists one cart document per user. SaveCart inserts when
// cart.Version is zero and otherwise only writes if the stored version still
// matches; on success the cart's Version is advanced.
type CartStore interface {
	FindCart(ctx context.Context, userID string) (*models.Cart, error)
	SaveCart(ctx context.Context, cart *models.Cart) error
}

type OrderFilter struct {
	UserID string
	Status models.OrderStatus
	Limit  int
}

// StatusUpdate is applied only while the order is still in status From.
// Nil timing fields are left untouched.
type StatusUpdate struct {
	From                  models.OrderStatus
	Status                models.OrderStatus
	EstimatedDeliveryTime *time.Time
	PickupTime            *time.Time
	ActualDeliveryTime    *time.Time
	UpdatedAt             time.Time
}

type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	FindOrder(ctx context.Context, id string) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, upd StatusUpdate) (*models.Order, error)
	ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, error)
	CountOrdersByStatus(ctx context.Context) (map[models.OrderStatus]int64, error)
	SumGrandTotal(ctx context.Context, status models.OrderStatus) (float64, error)
}

type CatalogStore interface {
	CreateCategory(ctx context.Context, cat *models.MenuCategory) error
	UpdateCategory(ctx context.Context, cat *models.MenuCategory) error
	FindCategory(ctx context.Context, id string) (*models.MenuCategory, error)
	ListCategories(ctx context.Context) ([]models.MenuCategory, error)

	CreateMenu(ctx context.Context, menu *models.Menu) error
	UpdateMenu(ctx context.Context, menu *models.Menu) error
	FindMenu(ctx context.Context, id string) (*models.Menu, error)
	ListMenus(ctx context.Context, categoryID string) ([]models.Menu, error)
}

type NotificationStore interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, limit int) ([]models.Notification, error)
}

type Store interface {
	CartStore
	OrderStore
	CatalogStore
	NotificationStore
	Close(ctx context.Context) error
}

const defaultListLimit = 100

func listLimit(n int) int {
	if n <= 0 || n > 500 {
		return defaultListLimit
	}
	return n
}
