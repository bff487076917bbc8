package orders

import (
	"math"
	"os"
	"strconv"

	"solemart/models"
)

// Pricing policy knobs. Totals are always recomputed here from the item
// snapshots; whatever totals the client sent along are ignored.
var (
	taxRate         = envFloat("ORDER_TAX_RATE", 0)
	flatShipping    = envFloat("ORDER_FLAT_SHIPPING", 0)
	freeShippingMin = envFloat("ORDER_FREE_SHIPPING_MIN", 0)
)

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ComputeTotals folds the order items into itemsPrice, shippingPrice,
// taxPrice and totalPrice. Pure function of the snapshot and the policy vars.
func ComputeTotals(items []models.OrderItem) (itemsPrice, shippingPrice, taxPrice, totalPrice float64) {
	for _, it := range items {
		itemsPrice += it.Price * float64(it.Qty)
	}
	itemsPrice = round2(itemsPrice)

	shippingPrice = flatShipping
	if freeShippingMin > 0 && itemsPrice >= freeShippingMin {
		shippingPrice = 0
	}
	taxPrice = round2(itemsPrice * taxRate)
	totalPrice = round2(itemsPrice + shippingPrice + taxPrice)
	return
}

// ValidateItems rejects snapshots that would corrupt the ledger.
func ValidateItems(items []models.OrderItem) bool {
	if len(items) == 0 {
		return false
	}
	for _, it := range items {
		if it.ProductID == "" || it.Qty < 1 {
			return false
		}
		if it.Price < 0 || math.IsNaN(it.Price) || math.IsInf(it.Price, 0) {
			return false
		}
	}
	return true
}
