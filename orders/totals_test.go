package orders

import (
	"math"
	"testing"

	"solemart/models"
)

func TestComputeTotalsDefaultPolicy(t *testing.T) {
	// Default policy: no tax, free shipping.
	items := []models.OrderItem{
		{ProductID: "p1", Price: 400, Qty: 2},
		{ProductID: "p2", Price: 200, Qty: 1},
	}

	itemsPrice, shippingPrice, taxPrice, totalPrice := ComputeTotals(items)
	if itemsPrice != 1000 {
		t.Fatalf("itemsPrice = %v, want 1000", itemsPrice)
	}
	if shippingPrice != 0 || taxPrice != 0 {
		t.Fatalf("shipping/tax = %v/%v, want 0/0", shippingPrice, taxPrice)
	}
	if totalPrice != 1000 {
		t.Fatalf("totalPrice = %v, want 1000", totalPrice)
	}
}

func TestComputeTotalsWithPolicy(t *testing.T) {
	oldTax, oldFlat, oldMin := taxRate, flatShipping, freeShippingMin
	defer func() { taxRate, flatShipping, freeShippingMin = oldTax, oldFlat, oldMin }()

	taxRate = 0.13
	flatShipping = 50
	freeShippingMin = 2000

	items := []models.OrderItem{{ProductID: "p1", Price: 1000, Qty: 1}}
	itemsPrice, shippingPrice, taxPrice, totalPrice := ComputeTotals(items)

	if itemsPrice != 1000 {
		t.Fatalf("itemsPrice = %v, want 1000", itemsPrice)
	}
	if shippingPrice != 50 {
		t.Fatalf("shippingPrice = %v, want 50 (below free-shipping threshold)", shippingPrice)
	}
	if taxPrice != 130 {
		t.Fatalf("taxPrice = %v, want 130", taxPrice)
	}
	if totalPrice != 1180 {
		t.Fatalf("totalPrice = %v, want 1180", totalPrice)
	}

	// Over the threshold shipping drops to zero.
	items = []models.OrderItem{{ProductID: "p1", Price: 1000, Qty: 2}}
	_, shippingPrice, _, _ = ComputeTotals(items)
	if shippingPrice != 0 {
		t.Fatalf("shippingPrice = %v, want 0 above threshold", shippingPrice)
	}
}

func TestComputeTotalsFlatShippingWithoutThreshold(t *testing.T) {
	oldFlat, oldMin := flatShipping, freeShippingMin
	defer func() { flatShipping, freeShippingMin = oldFlat, oldMin }()

	// Flat shipping with no free-shipping threshold configured must charge
	// on every order; a zero threshold means "no waiver", not "always waive".
	flatShipping = 50
	freeShippingMin = 0

	items := []models.OrderItem{{ProductID: "p1", Price: 100, Qty: 1}}
	_, shippingPrice, _, totalPrice := ComputeTotals(items)
	if shippingPrice != 50 {
		t.Fatalf("shippingPrice = %v, want 50", shippingPrice)
	}
	if totalPrice != 150 {
		t.Fatalf("totalPrice = %v, want 150", totalPrice)
	}
}

func TestComputeTotalsRounding(t *testing.T) {
	items := []models.OrderItem{{ProductID: "p1", Price: 0.1, Qty: 3}}
	itemsPrice, _, _, totalPrice := ComputeTotals(items)
	if itemsPrice != 0.3 {
		t.Fatalf("itemsPrice = %v, want 0.3", itemsPrice)
	}
	if totalPrice != 0.3 {
		t.Fatalf("totalPrice = %v, want 0.3", totalPrice)
	}
}

func TestValidateItems(t *testing.T) {
	cases := []struct {
		name  string
		items []models.OrderItem
		want  bool
	}{
		{"ok", []models.OrderItem{{ProductID: "p1", Price: 10, Qty: 1}}, true},
		{"empty", nil, false},
		{"zero qty", []models.OrderItem{{ProductID: "p1", Price: 10, Qty: 0}}, false},
		{"missing product", []models.OrderItem{{Price: 10, Qty: 1}}, false},
		{"negative price", []models.OrderItem{{ProductID: "p1", Price: -1, Qty: 1}}, false},
		{"NaN price", []models.OrderItem{{ProductID: "p1", Price: math.NaN(), Qty: 1}}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ValidateItems(tc.items); got != tc.want {
				t.Fatalf("ValidateItems() = %v, want %v", got, tc.want)
			}
		})
	}
}
