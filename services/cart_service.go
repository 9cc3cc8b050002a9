package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/restaurant-ordering/database"
	"github.com/yeremiapane/restaurant-ordering/models"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

// maxCartAttempts bounds the optimistic read-modify-write loop.
const maxCartAttempts = 5

type AddItemInput struct {
	FoodID          string                  `json:"foodId"`
	Name            string                  `json:"name"`
	Price           *float64                `json:"price"`
	Quantity        *int                    `json:"quantity"`
	SelectedPortion *models.SelectedPortion `json:"selectedPortion,omitempty"`
	Image           string                  `json:"image,omitempty"`
}

type CartService struct {
	store database.CartStore
	log   *logrus.Entry
}

func NewCartService(store database.CartStore) *CartService {
	return &CartService{store: store, log: utils.Component("cart")}
}

// GetCart never persists anything: a user without a cart gets an empty view.
func (s *CartService) GetCart(ctx context.Context, userID string) (*models.Cart, error) {
	if err := checkUserID(userID); err != nil {
		return nil, err
	}
	cart, err := s.store.FindCart(ctx, userID)
	if errors.Is(err, database.ErrRecordNotFound) {
		return models.EmptyCart(userID), nil
	}
	if err != nil {
		return nil, storeError(err, "cart")
	}
	s.sanitize(cart)
	cart.Recalculate()
	return cart, nil
}

func (s *CartService) Summary(ctx context.Context, userID string) (models.CartSummary, error) {
	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return models.CartSummary{}, err
	}
	return cart.Summary(), nil
}

func (s *CartService) AddItem(ctx context.Context, userID string, in AddItemInput) (*models.Cart, error) {
	if err := checkUserID(userID); err != nil {
		return nil, err
	}
	line, err := newCartLine(in)
	if err != nil {
		return nil, err
	}

	cart, err := s.mutate(ctx, userID, true, func(cart *models.Cart) error {
		cart.AddLine(line)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"user_id":  userID,
		"food_id":  line.FoodID,
		"portion":  line.SelectedPortion.Index,
		"quantity": line.Quantity,
	}).Info("Item added to cart")
	return cart, nil
}

func (s *CartService) UpdateItemQuantity(ctx context.Context, userID, foodID string, quantity, portionIndex int) (*models.Cart, error) {
	if err := checkUserID(userID); err != nil {
		return nil, err
	}
	if quantity < 1 {
		return nil, validationError("quantity must be at least 1")
	}

	return s.mutate(ctx, userID, false, func(cart *models.Cart) error {
		if !cart.SetQuantity(foodID, portionIndex, quantity) {
			return fmt.Errorf("%w: item %s (portion %d) is not in the cart", ErrNotFound, foodID, portionIndex)
		}
		return nil
	})
}

// RemoveItem is idempotent; removing a missing line still succeeds.
func (s *CartService) RemoveItem(ctx context.Context, userID, foodID string, portionIndex int) (*models.Cart, error) {
	if err := checkUserID(userID); err != nil {
		return nil, err
	}
	cart, err := s.mutate(ctx, userID, false, func(cart *models.Cart) error {
		cart.RemoveLine(foodID, portionIndex)
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		return models.EmptyCart(userID), nil
	}
	return cart, err
}

// Clear empties the lines but keeps the cart document.
func (s *CartService) Clear(ctx context.Context, userID string) (*models.Cart, error) {
	if err := checkUserID(userID); err != nil {
		return nil, err
	}
	cart, err := s.mutate(ctx, userID, false, func(cart *models.Cart) error {
		cart.Clear()
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		return models.EmptyCart(userID), nil
	}
	return cart, err
}

// ConsumeSnapshot empties a cart that was checked out from snapshot. The
// write expects the snapshot's version; if the cart moved on since, only the
// snapshotted quantities are taken out and newer additions are kept.
func (s *CartService) ConsumeSnapshot(ctx context.Context, snapshot *models.Cart) (*models.Cart, error) {
	taken := snapshot.Snapshot()
	cleared := *snapshot
	cleared.Clear()

	err := s.store.SaveCart(ctx, &cleared)
	if err == nil {
		return &cleared, nil
	}
	if !errors.Is(err, database.ErrVersionConflict) {
		return nil, storeError(err, "cart")
	}

	s.log.WithField("user_id", snapshot.UserID).Info("Cart changed during checkout, keeping newer lines")
	cart, err := s.mutate(ctx, snapshot.UserID, false, func(cart *models.Cart) error {
		cart.Consume(taken)
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		return models.EmptyCart(snapshot.UserID), nil
	}
	return cart, err
}

// mutate runs fn against a freshly loaded, sanitized cart and saves it,
// retrying from the read when another writer got there first.
func (s *CartService) mutate(ctx context.Context, userID string, create bool, fn func(*models.Cart) error) (*models.Cart, error) {
	for attempt := 1; attempt <= maxCartAttempts; attempt++ {
		cart, err := s.store.FindCart(ctx, userID)
		switch {
		case errors.Is(err, database.ErrRecordNotFound):
			if !create {
				return nil, fmt.Errorf("%w: cart", ErrNotFound)
			}
			cart = models.EmptyCart(userID)
		case err != nil:
			return nil, storeError(err, "cart")
		}

		s.sanitize(cart)
		if err := fn(cart); err != nil {
			return nil, err
		}
		cart.Recalculate()

		err = s.store.SaveCart(ctx, cart)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, database.ErrVersionConflict) {
			return nil, storeError(err, "cart")
		}
		s.log.WithFields(logrus.Fields{"user_id": userID, "attempt": attempt}).Debug("Cart version conflict, retrying")
	}
	return nil, fmt.Errorf("%w: cart is being modified concurrently, try again", ErrConflict)
}

func (s *CartService) sanitize(cart *models.Cart) {
	if dropped := cart.Sanitize(); dropped > 0 {
		utils.ErrorLogger.WithFields(logrus.Fields{
			"component": "cart",
			"user_id":   cart.UserID,
			"dropped":   dropped,
		}).Warn("Dropped malformed cart lines")
	}
}

func newCartLine(in AddItemInput) (models.CartLine, error) {
	foodID := strings.TrimSpace(in.FoodID)
	if !utils.ValidID(foodID) {
		return models.CartLine{}, validationError("foodId %q is not a valid identifier", in.FoodID)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.CartLine{}, validationError("name is required")
	}
	if in.Price == nil {
		return models.CartLine{}, validationError("price is required")
	}
	if *in.Price < 0 || !finite(*in.Price) {
		return models.CartLine{}, validationError("price must be a non-negative number")
	}

	// absent quantity means one
	quantity := 1
	if in.Quantity != nil {
		quantity = *in.Quantity
	}
	if quantity < 1 {
		return models.CartLine{}, validationError("quantity must be at least 1")
	}

	portion := models.SelectedPortion{Index: 0, Label: models.DefaultPortionLabel, Price: *in.Price}
	if p := in.SelectedPortion; p != nil && p.Index >= 0 && strings.TrimSpace(p.Label) != "" && p.Price >= 0 && finite(p.Price) {
		portion = models.SelectedPortion{Index: p.Index, Label: strings.TrimSpace(p.Label), Price: p.Price}
	}

	unit := models.RoundMoney(portion.Price)
	return models.CartLine{
		FoodID:          foodID,
		Name:            name,
		Image:           in.Image,
		Price:           unit,
		Quantity:        quantity,
		SelectedPortion: portion,
		TotalPrice:      models.RoundMoney(unit * float64(quantity)),
	}, nil
}

func checkUserID(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return validationError("user id is required")
	}
	return nil
}

