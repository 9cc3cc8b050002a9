package database

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-ordering/models"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

// GormStore backs every store interface with MySQL or SQLite.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) AutoMigrate() error {
	err := s.DB.AutoMigrate(
		&models.MenuCategory{},
		&models.Menu{},
		&models.Cart{},
		&models.Order{},
		&models.Notification{},
	)
	if err != nil {
		return err
	}
	utils.InfoLogger.Println("AutoMigrate completed.")
	return nil
}

func (s *GormStore) Close(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrRecordNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey),
		strings.Contains(err.Error(), "UNIQUE constraint failed"),
		strings.Contains(err.Error(), "Duplicate entry"):
		return ErrDuplicate
	}
	return err
}

// Carts

func (s *GormStore) FindCart(ctx context.Context, userID string) (*models.Cart, error) {
	var cart models.Cart
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&cart).Error; err != nil {
		return nil, translate(err)
	}
	return &cart, nil
}

func (s *GormStore) SaveCart(ctx context.Context, cart *models.Cart) error {
	now := time.Now()
	if cart.Version == 0 {
		cart.Version = 1
		if err := s.DB.WithContext(ctx).Create(cart).Error; err != nil {
			cart.Version = 0
			cart.ID = 0
			if err = translate(err); errors.Is(err, ErrDuplicate) {
				return ErrVersionConflict
			}
			return err
		}
		return nil
	}

	res := s.DB.WithContext(ctx).Model(&models.Cart{}).
		Where("user_id = ? AND version = ?", cart.UserID, cart.Version).
		Updates(map[string]interface{}{
			"lines":        cart.Lines,
			"item_count":   cart.ItemCount,
			"total_amount": cart.TotalAmount,
			"version":      cart.Version + 1,
			"updated_at":   now,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	cart.Version++
	cart.UpdatedAt = now
	return nil
}

// Orders

func (s *GormStore) CreateOrder(ctx context.Context, order *models.Order) error {
	return translate(s.DB.WithContext(ctx).Create(order).Error)
}

func (s *GormStore) FindOrder(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (s *GormStore) UpdateOrderStatus(ctx context.Context, id string, upd StatusUpdate) (*models.Order, error) {
	fields := map[string]interface{}{
		"status":     upd.Status,
		"updated_at": upd.UpdatedAt,
	}
	if upd.EstimatedDeliveryTime != nil {
		fields["estimated_delivery_time"] = *upd.EstimatedDeliveryTime
	}
	if upd.PickupTime != nil {
		fields["pickup_time"] = *upd.PickupTime
	}
	if upd.ActualDeliveryTime != nil {
		fields["actual_delivery_time"] = *upd.ActualDeliveryTime
	}

	res := s.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", id, upd.From).
		Updates(fields)
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := s.FindOrder(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrVersionConflict
	}
	return s.FindOrder(ctx, id)
}

func (s *GormStore) ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	q := s.DB.WithContext(ctx).Model(&models.Order{})
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	orders := []models.Order{}
	err := q.Order("created_at DESC").Limit(listLimit(filter.Limit)).Find(&orders).Error
	return orders, translate(err)
}

func (s *GormStore) CountOrdersByStatus(ctx context.Context) (map[models.OrderStatus]int64, error) {
	var rows []struct {
		Status models.OrderStatus
		Count  int64
	}
	err := s.DB.WithContext(ctx).Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err)
	}

	counts := make(map[models.OrderStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

func (s *GormStore) SumGrandTotal(ctx context.Context, status models.OrderStatus) (float64, error) {
	var total float64
	err := s.DB.WithContext(ctx).Model(&models.Order{}).
		Select("COALESCE(SUM(grand_total), 0)").
		Where("status = ?", status).
		Scan(&total).Error
	return total, translate(err)
}

// Catalog

func (s *GormStore) CreateCategory(ctx context.Context, cat *models.MenuCategory) error {
	return translate(s.DB.WithContext(ctx).Create(cat).Error)
}

func (s *GormStore) UpdateCategory(ctx context.Context, cat *models.MenuCategory) error {
	res := s.DB.WithContext(ctx).Model(cat).Select("*").Omit("created_at").Updates(cat)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *GormStore) FindCategory(ctx context.Context, id string) (*models.MenuCategory, error) {
	var cat models.MenuCategory
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&cat).Error; err != nil {
		return nil, translate(err)
	}
	return &cat, nil
}

func (s *GormStore) ListCategories(ctx context.Context) ([]models.MenuCategory, error) {
	cats := []models.MenuCategory{}
	err := s.DB.WithContext(ctx).Order("name ASC").Find(&cats).Error
	return cats, translate(err)
}

func (s *GormStore) CreateMenu(ctx context.Context, menu *models.Menu) error {
	return translate(s.DB.WithContext(ctx).Create(menu).Error)
}

func (s *GormStore) UpdateMenu(ctx context.Context, menu *models.Menu) error {
	res := s.DB.WithContext(ctx).Model(menu).Select("*").Omit("created_at").Updates(menu)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *GormStore) FindMenu(ctx context.Context, id string) (*models.Menu, error) {
	var menu models.Menu
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&menu).Error; err != nil {
		return nil, translate(err)
	}
	return &menu, nil
}

func (s *GormStore) ListMenus(ctx context.Context, categoryID string) ([]models.Menu, error) {
	q := s.DB.WithContext(ctx).Model(&models.Menu{})
	if categoryID != "" {
		q = q.Where("category_id = ?", categoryID)
	}
	menus := []models.Menu{}
	err := q.Order("name ASC").Find(&menus).Error
	return menus, translate(err)
}

// Notifications

func (s *GormStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	return translate(s.DB.WithContext(ctx).Create(n).Error)
}

func (s *GormStore) ListNotifications(ctx context.Context, limit int) ([]models.Notification, error) {
	list := []models.Notification{}
	err := s.DB.WithContext(ctx).Order("created_at DESC").Limit(listLimit(limit)).Find(&list).Error
	return list, translate(err)
}
