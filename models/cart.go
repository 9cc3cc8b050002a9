package models

import (
	"math"
	"strings"
	"time"
)

const DefaultPortionLabel = "Standard"

// SelectedPortion is the portion snapshot taken when a line is added.
type SelectedPortion struct {
	Index int     `json:"index" bson:"index"`
	Label string  `json:"label" bson:"label"`
	Price float64 `json:"price" bson:"price"`
}

// CartLine is keyed by (FoodID, SelectedPortion.Index). Price is the unit
// price captured at add time; later catalog edits never touch it.
type CartLine struct {
	FoodID          string          `json:"foodId" bson:"foodId"`
	Name            string          `json:"name" bson:"name"`
	Image           string          `json:"image,omitempty" bson:"image,omitempty"`
	Price           float64         `json:"price" bson:"price"`
	Quantity        int             `json:"quantity" bson:"quantity"`
	SelectedPortion SelectedPortion `json:"selectedPortion" bson:"selectedPortion"`
	TotalPrice      float64         `json:"totalPrice" bson:"totalPrice"`
}

func (l CartLine) matches(foodID string, portionIndex int) bool {
	return l.FoodID == foodID && l.SelectedPortion.Index == portionIndex
}

// valid reports whether a stored line still carries every field the cart
// needs. Lines failing this check are dropped before each mutation.
func (l CartLine) valid() bool {
	return strings.TrimSpace(l.FoodID) != "" &&
		strings.TrimSpace(l.Name) != "" &&
		l.Quantity >= 1 &&
		l.Price >= 0 &&
		!math.IsNaN(l.Price) && !math.IsInf(l.Price, 0)
}

// Cart is one document per user. ItemCount and TotalAmount are persisted for
// readers of the stored document but only Recalculate writes them.
type Cart struct {
	ID          uint      `gorm:"primaryKey" json:"-" bson:"-"`
	UserID      string    `gorm:"type:varchar(191);uniqueIndex;not null" json:"userId" bson:"userId"`
	Lines       CartLines `gorm:"type:text" json:"lines" bson:"lines"`
	ItemCount   int       `gorm:"not null;default:0" json:"itemCount" bson:"itemCount"`
	TotalAmount float64   `gorm:"type:decimal(12,2);not null;default:0" json:"totalAmount" bson:"totalAmount"`
	Version     int64     `gorm:"not null;default:0" json:"-" bson:"version"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}

type CartSummary struct {
	ItemCount   int     `json:"itemCount"`
	TotalAmount float64 `json:"totalAmount"`
}

// EmptyCart is the read view returned for a user who never added anything.
func EmptyCart(userID string) *Cart {
	return &Cart{UserID: userID, Lines: CartLines{}}
}

// Sanitize drops corrupted lines and rewrites every line total from its
// stored unit price.
func (c *Cart) Sanitize() int {
	kept := make(CartLines, 0, len(c.Lines))
	for _, line := range c.Lines {
		if !line.valid() {
			continue
		}
		line.TotalPrice = RoundMoney(line.Price * float64(line.Quantity))
		kept = append(kept, line)
	}
	dropped := len(c.Lines) - len(kept)
	c.Lines = kept
	return dropped
}

// Recalculate derives ItemCount and TotalAmount from the lines.
func (c *Cart) Recalculate() {
	count := 0
	total := 0.0
	for _, line := range c.Lines {
		count += line.Quantity
		total += line.TotalPrice
	}
	c.ItemCount = count
	c.TotalAmount = RoundMoney(total)
}

func (c *Cart) Summary() CartSummary {
	return CartSummary{ItemCount: c.ItemCount, TotalAmount: c.TotalAmount}
}

func (c *Cart) FindLine(foodID string, portionIndex int) (int, bool) {
	for i, line := range c.Lines {
		if line.matches(foodID, portionIndex) {
			return i, true
		}
	}
	return -1, false
}

// AddLine merges into an existing line with the same identity key, keeping
// that line's stored unit price, or appends the incoming snapshot.
func (c *Cart) AddLine(line CartLine) {
	if i, ok := c.FindLine(line.FoodID, line.SelectedPortion.Index); ok {
		existing := &c.Lines[i]
		existing.Quantity += line.Quantity
		existing.TotalPrice = RoundMoney(existing.Price * float64(existing.Quantity))
	} else {
		line.TotalPrice = RoundMoney(line.Price * float64(line.Quantity))
		c.Lines = append(c.Lines, line)
	}
	c.Recalculate()
}

// SetQuantity returns false when no line matches.
func (c *Cart) SetQuantity(foodID string, portionIndex, quantity int) bool {
	i, ok := c.FindLine(foodID, portionIndex)
	if !ok {
		return false
	}
	line := &c.Lines[i]
	line.Quantity = quantity
	line.TotalPrice = RoundMoney(line.Price * float64(quantity))
	c.Recalculate()
	return true
}

// RemoveLine is a no-op when no line matches.
func (c *Cart) RemoveLine(foodID string, portionIndex int) {
	kept := c.Lines[:0]
	for _, line := range c.Lines {
		if !line.matches(foodID, portionIndex) {
			kept = append(kept, line)
		}
	}
	c.Lines = kept
	c.Recalculate()
}

func (c *Cart) Clear() {
	c.Lines = CartLines{}
	c.Recalculate()
}

// Consume takes the quantities of taken out of the cart, keyed by line
// identity. Lines that drop to zero are removed; anything added on top of
// taken stays.
func (c *Cart) Consume(taken CartLines) {
	for _, t := range taken {
		i, ok := c.FindLine(t.FoodID, t.SelectedPortion.Index)
		if !ok {
			continue
		}
		line := &c.Lines[i]
		line.Quantity -= t.Quantity
		if line.Quantity <= 0 {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			continue
		}
		line.TotalPrice = RoundMoney(line.Price * float64(line.Quantity))
	}
	c.Recalculate()
}

// Snapshot deep-copies the lines.
func (c *Cart) Snapshot() CartLines {
	out := make(CartLines, len(c.Lines))
	copy(out, c.Lines)
	return out
}

func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
