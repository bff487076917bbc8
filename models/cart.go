package models

import "time"

// CartItem is a snapshot of a product at add-time, embedded in the user document.
// Name, image and price are copied, not live-linked: later product edits do not
// touch existing carts.
type CartItem struct {
	ProductID string    `json:"product" bson:"product"`
	Name      string    `json:"name" bson:"name"`
	Image     string    `json:"image" bson:"image"`
	Price     float64   `json:"price" bson:"price"`
	Qty       int       `json:"qty" bson:"qty"`
	AddedAt   time.Time `json:"addedAt" bson:"addedAt"`
}
