package models

import "time"

type Product struct {
	ProductID    string    `json:"productid" bson:"productid"`
	Name         string    `json:"name" bson:"name"`
	Description  string    `json:"description" bson:"description"`
	Brand        string    `json:"brand,omitempty" bson:"brand,omitempty"`
	Category     string    `json:"category" bson:"category"`
	Price        float64   `json:"price" bson:"price"`
	CountInStock int       `json:"countInStock" bson:"countInStock"`
	Image        string    `json:"image" bson:"image"`
	Thumb        string    `json:"thumb,omitempty" bson:"thumb,omitempty"`
	CreatedBy    string    `json:"createdBy" bson:"createdBy"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}
