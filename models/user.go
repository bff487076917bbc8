package models

import "time"

type User struct {
	UserID    string     `json:"userid" bson:"userid"`
	Name      string     `json:"name" bson:"name"`
	Email     string     `json:"email" bson:"email"`
	Password  string     `json:"-" bson:"password"`
	Role      string     `json:"role" bson:"role"` // "user" or "admin"
	CartItems []CartItem `json:"cartItems" bson:"cartItems"`
	CreatedAt time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" bson:"updated_at"`
	LastLogin time.Time  `json:"last_login,omitempty" bson:"last_login,omitempty"`
}

// PublicUser is what admin listings and /me return. Never carries the hash.
type PublicUser struct {
	UserID    string    `json:"userid" bson:"userid"`
	Name      string    `json:"name" bson:"name"`
	Email     string    `json:"email" bson:"email"`
	Role      string    `json:"role" bson:"role"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
