package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/restaurant-ordering/database"
	"github.com/yeremiapane/restaurant-ordering/kds"
	"github.com/yeremiapane/restaurant-ordering/models"
)

var allowedTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending:   {models.OrderStatusConfirmed, models.OrderStatusCancelled},
	models.OrderStatusConfirmed: {models.OrderStatusPreparing, models.OrderStatusCancelled},
	models.OrderStatusPreparing: {models.OrderStatusReady},
	models.OrderStatusReady:     {models.OrderStatusDelivered},
}

// CanTransition reports whether from -> to is an edge of the order lifecycle.
func CanTransition(from, to models.OrderStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// StatusExtras are persisted with any status write.
type StatusExtras struct {
	EstimatedDeliveryTime *time.Time `json:"estimatedDeliveryTime,omitempty"`
	PickupTime            *time.Time `json:"pickupTime,omitempty"`
}

// SetStatus moves an order to a new status. Writing the current status again
// is allowed on non-terminal orders and only updates the timing fields.
// Moving to confirmed hands a confirmation to the dispatcher once the write
// succeeded; its outcome never affects the result.
func (s *OrderService) SetStatus(ctx context.Context, id, status string, extra StatusExtras) (*models.Order, error) {
	if strings.TrimSpace(status) == "" {
		return nil, validationError("status is required")
	}
	next, ok := models.ParseOrderStatus(status)
	if !ok {
		return nil, validationError("unknown status %q", status)
	}

	order, err := s.FindOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.strict {
		if next == order.Status && order.Status.Terminal() {
			return nil, fmt.Errorf("%w: order is already %s", ErrInvalidTransition, order.Status)
		}
		if next != order.Status && !CanTransition(order.Status, next) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, next)
		}
	}

	now := s.now()
	upd := database.StatusUpdate{
		From:                  order.Status,
		Status:                next,
		EstimatedDeliveryTime: extra.EstimatedDeliveryTime,
		PickupTime:            extra.PickupTime,
		UpdatedAt:             now,
	}
	if next == models.OrderStatusDelivered {
		upd.ActualDeliveryTime = &now
	}

	updated, err := s.orders.UpdateOrderStatus(ctx, order.ID, upd)
	if err != nil {
		return nil, storeError(err, "order")
	}

	s.log.WithFields(logrus.Fields{
		"order_id": updated.ID,
		"from":     order.Status,
		"status":   updated.Status,
	}).Info("Order status updated")

	if next == models.OrderStatusConfirmed && order.Status != models.OrderStatusConfirmed {
		s.dispatcher.Confirmation(ctx, *updated)
	}
	s.broadcast(kds.EventOrderUpdate, *updated)
	return updated, nil
}

// Cancel lets a customer cancel their own order while it is pending or
// confirmed. Only status and update time are written.
func (s *OrderService) Cancel(ctx context.Context, id, userID string) (*models.Order, error) {
	order, err := s.FindOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, fmt.Errorf("%w: order belongs to another customer", ErrForbidden)
	}
	if order.Status != models.OrderStatusPending && order.Status != models.OrderStatusConfirmed {
		return nil, fmt.Errorf("%w: cannot cancel an order that is %s", ErrInvalidTransition, order.Status)
	}

	updated, err := s.orders.UpdateOrderStatus(ctx, order.ID, database.StatusUpdate{
		From:      order.Status,
		Status:    models.OrderStatusCancelled,
		UpdatedAt: s.now(),
	})
	if err != nil {
		return nil, storeError(err, "order")
	}

	s.log.WithFields(logrus.Fields{
		"order_id": updated.ID,
		"user_id":  userID,
	}).Info("Order cancelled by customer")
	s.broadcast(kds.EventOrderUpdate, *updated)
	return updated, nil
}
