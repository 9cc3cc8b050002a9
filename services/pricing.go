package services

import (
	"math"

	"github.com/yeremiapane/restaurant-ordering/models"
)

// EffectivePrice applies a portion discount to its base price. Percent values
// are clamped to [0,100] and amounts to >= 0; the result is never negative.
// A discount with an unknown kind or a non-finite value is ignored.
func EffectivePrice(basePrice float64, discount models.PortionDiscount) float64 {
	if !finite(basePrice) || basePrice <= 0 {
		return 0
	}
	if !discount.Active || !finite(discount.Value) {
		return basePrice
	}

	var price float64
	switch discount.Kind {
	case models.DiscountPercent, "":
		pct := math.Min(math.Max(discount.Value, 0), 100)
		price = basePrice - basePrice*pct/100
	case models.DiscountAmount:
		price = basePrice - math.Max(discount.Value, 0)
	default:
		return basePrice
	}
	return models.RoundMoney(math.Max(0, price))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
