package models

import "time"

type ShippingAddress struct {
	Address    string `json:"address" bson:"address"`
	City       string `json:"city" bson:"city"`
	PostalCode string `json:"postalCode" bson:"postalCode"`
	Country    string `json:"country" bson:"country"`
}

// OrderItem is frozen at checkout from the cart snapshot.
type OrderItem struct {
	ProductID string  `json:"product" bson:"product"`
	Name      string  `json:"name" bson:"name"`
	Image     string  `json:"image" bson:"image"`
	Price     float64 `json:"price" bson:"price"`
	Qty       int     `json:"qty" bson:"qty"`
}

// PaymentResult records what the gateway reported on a verified confirm.
type PaymentResult struct {
	ID           string `json:"id" bson:"id"` // gateway transaction/reference id
	Status       string `json:"status" bson:"status"`
	UpdateTime   string `json:"update_time" bson:"update_time"`
	EmailAddress string `json:"email_address" bson:"email_address"`
}

type Order struct {
	OrderID         string          `json:"orderId" bson:"orderId"`
	UserID          string          `json:"userId" bson:"userId"`
	UserEmail       string          `json:"userEmail,omitempty" bson:"userEmail,omitempty"`
	Items           []OrderItem     `json:"orderItems" bson:"orderItems"`
	ShippingAddress ShippingAddress `json:"shippingAddress" bson:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod" bson:"paymentMethod"`
	ItemsPrice      float64         `json:"itemsPrice" bson:"itemsPrice"`
	ShippingPrice   float64         `json:"shippingPrice" bson:"shippingPrice"`
	TaxPrice        float64         `json:"taxPrice" bson:"taxPrice"`
	TotalPrice      float64         `json:"totalPrice" bson:"totalPrice"`
	IsPaid          bool            `json:"isPaid" bson:"isPaid"`
	PaidAt          *time.Time      `json:"paidAt,omitempty" bson:"paidAt,omitempty"`
	PaymentResult   *PaymentResult  `json:"paymentResult,omitempty" bson:"paymentResult,omitempty"`
	IsDelivered     bool            `json:"isDelivered" bson:"isDelivered"`
	DeliveredAt     *time.Time      `json:"deliveredAt,omitempty" bson:"deliveredAt,omitempty"`
	CreatedAt       time.Time       `json:"createdAt" bson:"createdAt"`
}
