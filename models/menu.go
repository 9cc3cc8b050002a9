package models

import "time"

type DiscountKind string

const (
	DiscountPercent DiscountKind = "percent"
	DiscountAmount  DiscountKind = "amount"
)

type PortionDiscount struct {
	Active bool         `json:"active" bson:"active"`
	Kind   DiscountKind `json:"kind" bson:"kind"`
	Value  float64      `json:"value" bson:"value"`
}

// Portion is one priced size of a menu item. Its identity within the item is
// the lower-cased label.
type Portion struct {
	Label     string          `json:"label" bson:"label"`
	BasePrice float64         `json:"basePrice" bson:"basePrice"`
	Discount  PortionDiscount `json:"discount" bson:"discount"`
}

type Menu struct {
	ID          string      `gorm:"primaryKey;type:varchar(64)" json:"id" bson:"_id"`
	CategoryID  string      `gorm:"type:varchar(64);index;not null" json:"categoryId" bson:"categoryId"`
	Name        string      `gorm:"type:varchar(255);not null" json:"name" bson:"name"`
	Description string      `gorm:"type:text" json:"description" bson:"description"`
	Image       string      `gorm:"type:varchar(255)" json:"image,omitempty" bson:"image,omitempty"`
	Price       float64     `gorm:"type:decimal(10,2);not null" json:"price" bson:"price"`
	Portions    PortionList `gorm:"type:text" json:"portions" bson:"portions"`
	Available   bool        `gorm:"not null" json:"available" bson:"available"`
	CreatedAt   time.Time   `gorm:"not null" json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time   `gorm:"not null" json:"updatedAt" bson:"updatedAt"`
}
