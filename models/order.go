package models

import (
	"strings"
	"time"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusPreparing,
	OrderStatusReady,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

func ParseOrderStatus(s string) (OrderStatus, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, st := range OrderStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

const (
	OrderTypePickup   = "pickup"
	OrderTypeDelivery = "delivery"

	PaymentMethodCash   = "cash"
	PaymentMethodCard   = "card"
	PaymentMethodOnline = "online"

	PaymentStatusPending = "pending"
)

// Order is materialized once from a cart snapshot. Only Status, the timing
// fields and PickupTime change afterwards.
type Order struct {
	ID                    string      `gorm:"primaryKey;type:varchar(64)" json:"id" bson:"_id"`
	UserID                string      `gorm:"type:varchar(191);index;not null" json:"userId" bson:"userId"`
	Items                 CartLines   `gorm:"type:text;not null" json:"items" bson:"items"`
	TotalAmount           float64     `gorm:"type:decimal(12,2);not null" json:"totalAmount" bson:"totalAmount"`
	DeliveryFee           float64     `gorm:"type:decimal(12,2);not null" json:"deliveryFee" bson:"deliveryFee"`
	ServiceCharge         float64     `gorm:"type:decimal(12,2);not null" json:"serviceCharge" bson:"serviceCharge"`
	GrandTotal            float64     `gorm:"type:decimal(12,2);not null" json:"grandTotal" bson:"grandTotal"`
	Status                OrderStatus `gorm:"type:varchar(20);index;not null" json:"status" bson:"status"`
	OrderType             string      `gorm:"type:varchar(20);not null" json:"orderType" bson:"orderType"`
	PaymentMethod         string      `gorm:"type:varchar(20);not null" json:"paymentMethod" bson:"paymentMethod"`
	PaymentStatus         string      `gorm:"type:varchar(20);not null" json:"paymentStatus" bson:"paymentStatus"`
	CustomerName          string      `gorm:"type:varchar(255);not null" json:"customerName" bson:"customerName"`
	CustomerPhone         string      `gorm:"type:varchar(32);not null" json:"customerPhone" bson:"customerPhone"`
	Address               string      `gorm:"type:text;not null" json:"address" bson:"address"`
	PickupTime            *time.Time  `json:"pickupTime,omitempty" bson:"pickupTime,omitempty"`
	EstimatedDeliveryTime *time.Time  `json:"estimatedDeliveryTime,omitempty" bson:"estimatedDeliveryTime,omitempty"`
	ActualDeliveryTime    *time.Time  `json:"actualDeliveryTime,omitempty" bson:"actualDeliveryTime,omitempty"`
	CreatedAt             time.Time   `gorm:"index;not null" json:"createdAt" bson:"createdAt"`
	UpdatedAt             time.Time   `gorm:"not null" json:"updatedAt" bson:"updatedAt"`
}

// ShortID is the customer-facing order reference.
func (o *Order) ShortID() string {
	id := strings.ReplaceAll(o.ID, "-", "")
	if len(id) > 8 {
		id = id[:8]
	}
	return strings.ToUpper(id)
}
