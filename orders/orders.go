package orders

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"solemart/db"
	"solemart/models"
	"solemart/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateOrder persists a new unpaid order from the submitted cart snapshot and
// shipping details, then clears the user's embedded cart. Totals come from
// ComputeTotals, never from the client.
func CreateOrder(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var input struct {
		OrderItems      []models.OrderItem     `json:"orderItems"`
		ShippingAddress models.ShippingAddress `json:"shippingAddress"`
		PaymentMethod   string                 `json:"paymentMethod"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		log.Println("CreateOrder decode error:", err)
		http.Error(w, "Invalid order payload", http.StatusBadRequest)
		return
	}

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if !ValidateItems(input.OrderItems) {
		http.Error(w, "No valid order items", http.StatusBadRequest)
		return
	}
	if input.ShippingAddress.Address == "" || input.ShippingAddress.City == "" {
		http.Error(w, "Shipping address is required", http.StatusBadRequest)
		return
	}
	if input.PaymentMethod == "" {
		input.PaymentMethod = "esewa"
	}

	var user models.User
	if err := db.UserCollection.FindOne(ctx, bson.M{"userid": userID}).Decode(&user); err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	itemsPrice, shippingPrice, taxPrice, totalPrice := ComputeTotals(input.OrderItems)

	order := models.Order{
		OrderID:         "ORD" + utils.GenerateRandomString(12),
		UserID:          userID,
		UserEmail:       user.Email,
		Items:           input.OrderItems,
		ShippingAddress: input.ShippingAddress,
		PaymentMethod:   input.PaymentMethod,
		ItemsPrice:      itemsPrice,
		ShippingPrice:   shippingPrice,
		TaxPrice:        taxPrice,
		TotalPrice:      totalPrice,
		IsPaid:          false,
		IsDelivered:     false,
		CreatedAt:       time.Now(),
	}

	if _, err := db.OrderCollection.InsertOne(ctx, order); err != nil {
		log.Println("CreateOrder InsertOne error:", err)
		http.Error(w, "Order creation failed", http.StatusInternalServerError)
		return
	}

	// The server-held cart is spent once the order exists
	if _, err := db.UserCollection.UpdateOne(ctx,
		bson.M{"userid": userID},
		bson.M{"$set": bson.M{"cartItems": []models.CartItem{}}},
	); err != nil {
		log.Println("CreateOrder cart cleanup error:", err)
	}

	NotifyOrderCreated(order)

	utils.RespondWithJSON(w, http.StatusCreated, order)
}

// GetOrderByID returns the order to its owner or to an admin; anyone else is
// refused.
func GetOrderByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var order models.Order
	err := db.OrderCollection.FindOne(ctx, bson.M{"orderId": ps.ByName("id")}).Decode(&order)
	if err != nil {
		http.Error(w, "Order not found", http.StatusNotFound)
		return
	}

	if order.UserID != utils.GetUserIDFromRequest(r) && !utils.IsAdmin(r) {
		http.Error(w, "Not authorized to view this order", http.StatusForbidden)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, order)
}

// GetMyOrders lists the requesting user's orders, newest first.
func GetMyOrders(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	listOrders(ctx, w, bson.M{"userId": userID})
}

// GetOrders is the admin view over every order, newest first.
func GetOrders(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	listOrders(ctx, w, bson.M{})
}

func listOrders(ctx context.Context, w http.ResponseWriter, filter bson.M) {
	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	cursor, err := db.OrderCollection.Find(ctx, filter, opts)
	if err != nil {
		log.Println("listOrders Find error:", err)
		http.Error(w, "Could not retrieve orders", http.StatusInternalServerError)
		return
	}
	defer cursor.Close(ctx)

	var found []models.Order
	if err := cursor.All(ctx, &found); err != nil {
		log.Println("listOrders cursor.All error:", err)
		http.Error(w, "Error reading orders", http.StatusInternalServerError)
		return
	}
	if len(found) == 0 {
		found = []models.Order{}
	}

	utils.RespondWithJSON(w, http.StatusOK, found)
}

// UpdateDeliveryStatus flips isDelivered. "delivered" stamps deliveredAt,
// "pending" clears it. Payment state is never touched here.
func UpdateDeliveryStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var input struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid input", http.StatusBadRequest)
		return
	}

	var update bson.M
	switch input.Status {
	case "delivered":
		update = bson.M{
			"$set": bson.M{"isDelivered": true, "deliveredAt": time.Now()},
		}
	case "pending":
		update = bson.M{
			"$set":   bson.M{"isDelivered": false},
			"$unset": bson.M{"deliveredAt": ""},
		}
	default:
		http.Error(w, "Status must be delivered or pending", http.StatusBadRequest)
		return
	}

	res, err := db.OrderCollection.UpdateOne(ctx, bson.M{"orderId": ps.ByName("id")}, update)
	if err != nil {
		log.Println("UpdateDeliveryStatus error:", err)
		http.Error(w, "Could not update order status", http.StatusInternalServerError)
		return
	}
	if res.MatchedCount == 0 {
		http.Error(w, "Order not found", http.StatusNotFound)
		return
	}

	var order models.Order
	if err := db.OrderCollection.FindOne(ctx, bson.M{"orderId": ps.ByName("id")}).Decode(&order); err != nil {
		http.Error(w, "Order not found", http.StatusNotFound)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, order)
}
