package models

import "time"

// Notification records one confirmation message handed to a notifier.
type Notification struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id" bson:"_id"`
	OrderID   string    `gorm:"type:varchar(64);index;not null" json:"orderId" bson:"orderId"`
	Phone     string    `gorm:"type:varchar(32);not null" json:"phone" bson:"phone"`
	Channel   string    `gorm:"type:varchar(20);not null" json:"channel" bson:"channel"`
	Message   string    `gorm:"type:text;not null" json:"message" bson:"message"`
	Error     *string   `gorm:"type:text" json:"error,omitempty" bson:"error,omitempty"`
	CreatedAt time.Time `gorm:"index;not null" json:"createdAt" bson:"createdAt"`
}
