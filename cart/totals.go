package cart

import (
	"errors"
	"math"

	"solemart/models"
)

var (
	ErrInvalidQty   = errors.New("invalid quantity")
	ErrInvalidPrice = errors.New("invalid price")
)

// ValidateLine rejects lines that would poison totals: non-positive or
// non-finite quantities and prices never reach the fold below.
func ValidateLine(item models.CartItem) error {
	if item.Qty < 1 {
		return ErrInvalidQty
	}
	if item.Price < 0 || math.IsNaN(item.Price) || math.IsInf(item.Price, 0) {
		return ErrInvalidPrice
	}
	return nil
}

// LineSubtotal is price * qty for one line.
func LineSubtotal(item models.CartItem) float64 {
	return item.Price * float64(item.Qty)
}

// Subtotal folds the cart into a single amount. No side effects.
func Subtotal(items []models.CartItem) float64 {
	var total float64
	for _, it := range items {
		total += LineSubtotal(it)
	}
	return total
}

// ItemCount is the total number of units across all lines.
func ItemCount(items []models.CartItem) int {
	var n int
	for _, it := range items {
		n += it.Qty
	}
	return n
}
