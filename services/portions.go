package services

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/yeremiapane/restaurant-ordering/models"
)

// PortionInput is a portion as submitted by the admin console. Price and the
// discount fields arrive loosely typed and are coerced by NormalizePortions.
type PortionInput struct {
	Label    string         `json:"label"`
	Price    interface{}    `json:"price"`
	Discount *DiscountInput `json:"discount,omitempty"`
}

type DiscountInput struct {
	Active interface{} `json:"active"`
	Kind   string      `json:"kind"`
	Value  interface{} `json:"value"`
}

type NormalizedPortions struct {
	Cleaned  []models.Portion
	Rejected []string
}

// LabelSet is a case-folded set of portion labels.
type LabelSet map[string]struct{}

func NewLabelSet(labels []string) LabelSet {
	set := make(LabelSet, len(labels))
	for _, l := range labels {
		if key := labelKey(l); key != "" {
			set[key] = struct{}{}
		}
	}
	return set
}

func (s LabelSet) Contains(label string) bool {
	_, ok := s[labelKey(label)]
	return ok
}

func labelKey(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// NormalizePortions cleans raw portions: entries without a label or with a
// missing, non-numeric or negative price are dropped, labels are trimmed and
// de-duplicated case-insensitively (first wins) and discounts are coerced.
// When allowed is non-empty, portions outside it are moved to Rejected; the
// caller must refuse the write in that case. An empty Cleaned list is a
// validation error.
func NormalizePortions(raw []PortionInput, allowed []string) (NormalizedPortions, error) {
	allowedSet := NewLabelSet(allowed)
	seen := make(map[string]struct{}, len(raw))
	result := NormalizedPortions{Cleaned: []models.Portion{}}

	for _, in := range raw {
		label := strings.TrimSpace(in.Label)
		if label == "" {
			continue
		}
		price, ok := coerceNumber(in.Price)
		if !ok || price < 0 {
			continue
		}

		key := labelKey(label)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		if len(allowedSet) > 0 && !allowedSet.Contains(label) {
			result.Rejected = append(result.Rejected, label)
			continue
		}

		result.Cleaned = append(result.Cleaned, models.Portion{
			Label:     label,
			BasePrice: models.RoundMoney(price),
			Discount:  coerceDiscount(in.Discount),
		})
	}

	if len(result.Cleaned) == 0 {
		if len(result.Rejected) > 0 {
			return result, validationError("portion labels not allowed in this category: %s", strings.Join(result.Rejected, ", "))
		}
		return result, validationError("at least one portion with a label and a non-negative price is required")
	}
	return result, nil
}

func coerceDiscount(in *DiscountInput) models.PortionDiscount {
	if in == nil {
		return models.PortionDiscount{Kind: models.DiscountPercent}
	}

	kind := models.DiscountPercent
	if models.DiscountKind(strings.ToLower(strings.TrimSpace(in.Kind))) == models.DiscountAmount {
		kind = models.DiscountAmount
	}

	value, ok := coerceNumber(in.Value)
	if !ok {
		value = 0
	}
	return models.PortionDiscount{
		Active: coerceBool(in.Active),
		Kind:   kind,
		Value:  math.Max(0, value),
	}
}

func coerceNumber(v interface{}) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	return f, finite(f)
}

func coerceBool(v interface{}) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		return err == nil && parsed
	case float64:
		return b != 0
	case int:
		return b != 0
	}
	return false
}
