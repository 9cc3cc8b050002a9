package models

import "time"

// MenuCategory groups menu items. When AllowedPortionLabels is non-empty, items
// in the category may only carry portions with those labels (case-insensitive).
type MenuCategory struct {
	ID                   string     `gorm:"primaryKey;type:varchar(64)" json:"id" bson:"_id"`
	Name                 string     `gorm:"type:varchar(100);not null" json:"name" bson:"name"`
	NameKey              string     `gorm:"type:varchar(100);uniqueIndex;not null" json:"-" bson:"nameKey"`
	AllowedPortionLabels StringList `gorm:"type:text" json:"allowedPortionLabels" bson:"allowedPortionLabels"`
	CreatedAt            time.Time  `gorm:"not null" json:"createdAt" bson:"createdAt"`
	UpdatedAt            time.Time  `gorm:"not null" json:"updatedAt" bson:"updatedAt"`
}
