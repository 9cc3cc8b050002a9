package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/skip2/go-qrcode"

	"github.com/yeremiapane/restaurant-ordering/database"
	"github.com/yeremiapane/restaurant-ordering/kds"
	"github.com/yeremiapane/restaurant-ordering/models"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

// Broadcaster pushes order events to connected realtime clients.
type Broadcaster interface {
	Broadcast(event string, data interface{})
}

type CheckoutInput struct {
	CustomerName  string     `json:"customerName"`
	CustomerPhone string     `json:"customerPhone"`
	Address       string     `json:"address"`
	OrderType     string     `json:"orderType"`
	PaymentMethod string     `json:"paymentMethod"`
	PickupTime    *time.Time `json:"pickupTime,omitempty"`
}

type OrderStats struct {
	Counts  map[models.OrderStatus]int64 `json:"counts"`
	Total   int64                        `json:"total"`
	Revenue float64                      `json:"revenue"`
}

type OrderServiceOptions struct {
	Dispatcher        *Dispatcher
	Broadcaster       Broadcaster
	StrictTransitions bool
	PublicBaseURL     string
}

type OrderService struct {
	orders        database.OrderStore
	carts         *CartService
	dispatcher    *Dispatcher
	broadcaster   Broadcaster
	strict        bool
	publicBaseURL string
	now           func() time.Time
	log           *logrus.Entry
}

func NewOrderService(orders database.OrderStore, carts *CartService, opts OrderServiceOptions) *OrderService {
	return &OrderService{
		orders:        orders,
		carts:         carts,
		dispatcher:    opts.Dispatcher,
		broadcaster:   opts.Broadcaster,
		strict:        opts.StrictTransitions,
		publicBaseURL: strings.TrimRight(opts.PublicBaseURL, "/"),
		now:           func() time.Time { return time.Now().UTC() },
		log:           utils.Component("orders"),
	}
}

// CreateOrder snapshots the user's cart into a new pending order and then
// empties the cart. A failure to clear the cart is logged; the order stands.
func (s *OrderService) CreateOrder(ctx context.Context, userID string, in CheckoutInput) (*models.Order, error) {
	in, err := normalizeCheckout(userID, in)
	if err != nil {
		return nil, err
	}

	cart, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(cart.Lines) == 0 {
		return nil, fmt.Errorf("%w: add items before checking out", ErrEmptyCart)
	}

	now := s.now()
	items := cart.Snapshot()
	total := 0.0
	for _, line := range items {
		total += line.TotalPrice
	}
	total = models.RoundMoney(total)

	order := &models.Order{
		ID:            utils.NewID(),
		UserID:        userID,
		Items:         items,
		TotalAmount:   total,
		DeliveryFee:   0,
		ServiceCharge: 0,
		Status:        models.OrderStatusPending,
		OrderType:     in.OrderType,
		PaymentMethod: in.PaymentMethod,
		PaymentStatus: models.PaymentStatusPending,
		CustomerName:  in.CustomerName,
		CustomerPhone: in.CustomerPhone,
		Address:       in.Address,
		PickupTime:    in.PickupTime,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	order.GrandTotal = models.RoundMoney(order.TotalAmount + order.DeliveryFee + order.ServiceCharge)

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return nil, storeError(err, "order")
	}

	fields := logrus.Fields{"user_id": userID, "order_id": order.ID}
	if _, err := s.carts.ConsumeSnapshot(ctx, cart); err != nil {
		utils.ErrorLogger.WithFields(fields).Errorf("Order created but cart was not cleared: %v", err)
	}

	s.log.WithFields(fields).WithField("grand_total", order.GrandTotal).Info("Order created")
	s.broadcast(kds.EventOrderCreated, *order)
	return order, nil
}

// GetOrder returns an order to its owner.
func (s *OrderService) GetOrder(ctx context.Context, id, userID string) (*models.Order, error) {
	order, err := s.FindOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, fmt.Errorf("%w: order belongs to another customer", ErrForbidden)
	}
	return order, nil
}

// FindOrder skips the ownership check; admin use only.
func (s *OrderService) FindOrder(ctx context.Context, id string) (*models.Order, error) {
	if !utils.ValidID(id) {
		return nil, fmt.Errorf("%w: order %q", ErrNotFound, id)
	}
	order, err := s.orders.FindOrder(ctx, id)
	if err != nil {
		return nil, storeError(err, "order")
	}
	return order, nil
}

func (s *OrderService) ListOrdersForUser(ctx context.Context, userID string, limit int) ([]models.Order, error) {
	if err := checkUserID(userID); err != nil {
		return nil, err
	}
	orders, err := s.orders.ListOrders(ctx, database.OrderFilter{UserID: userID, Limit: limit})
	if err != nil {
		return nil, storeError(err, "orders")
	}
	return orders, nil
}

func (s *OrderService) ListOrders(ctx context.Context, status string, limit int) ([]models.Order, error) {
	filter := database.OrderFilter{Limit: limit}
	if status != "" {
		st, ok := models.ParseOrderStatus(status)
		if !ok {
			return nil, validationError("unknown status %q", status)
		}
		filter.Status = st
	}
	orders, err := s.orders.ListOrders(ctx, filter)
	if err != nil {
		return nil, storeError(err, "orders")
	}
	return orders, nil
}

// Stats counts orders per status; revenue only includes delivered orders.
func (s *OrderService) Stats(ctx context.Context) (*OrderStats, error) {
	counts, err := s.orders.CountOrdersByStatus(ctx)
	if err != nil {
		return nil, storeError(err, "order stats")
	}
	revenue, err := s.orders.SumGrandTotal(ctx, models.OrderStatusDelivered)
	if err != nil {
		return nil, storeError(err, "order stats")
	}

	stats := &OrderStats{
		Counts:  make(map[models.OrderStatus]int64, len(models.OrderStatuses)),
		Revenue: models.RoundMoney(revenue),
	}
	for _, st := range models.OrderStatuses {
		stats.Counts[st] = counts[st]
		stats.Total += counts[st]
	}
	return stats, nil
}

// TrackingQR renders a PNG QR code linking to the order tracking page.
func (s *OrderService) TrackingQR(ctx context.Context, id, userID string) ([]byte, error) {
	order, err := s.GetOrder(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(s.TrackingURL(order.ID), qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}

func (s *OrderService) TrackingURL(orderID string) string {
	return s.publicBaseURL + "/orders/" + orderID
}

func (s *OrderService) broadcast(event string, order models.Order) {
	if s.broadcaster != nil {
		s.broadcaster.Broadcast(event, order)
	}
}

func normalizeCheckout(userID string, in CheckoutInput) (CheckoutInput, error) {
	if err := checkUserID(userID); err != nil {
		return in, err
	}
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.CustomerPhone = strings.TrimSpace(in.CustomerPhone)
	in.Address = strings.TrimSpace(in.Address)

	var missing []string
	if in.CustomerName == "" {
		missing = append(missing, "customerName")
	}
	if in.CustomerPhone == "" {
		missing = append(missing, "customerPhone")
	}
	if in.Address == "" {
		missing = append(missing, "address")
	}
	if len(missing) > 0 {
		return in, validationError("missing required fields: %s", strings.Join(missing, ", "))
	}

	in.OrderType = strings.ToLower(strings.TrimSpace(in.OrderType))
	switch in.OrderType {
	case "":
		in.OrderType = models.OrderTypePickup
	case models.OrderTypePickup, models.OrderTypeDelivery:
	default:
		return in, validationError("orderType must be %s or %s", models.OrderTypePickup, models.OrderTypeDelivery)
	}

	in.PaymentMethod = strings.ToLower(strings.TrimSpace(in.PaymentMethod))
	switch in.PaymentMethod {
	case "":
		in.PaymentMethod = models.PaymentMethodCash
	case models.PaymentMethodCash, models.PaymentMethodCard, models.PaymentMethodOnline:
	default:
		return in, validationError("unsupported paymentMethod %q", in.PaymentMethod)
	}
	return in, nil
}
