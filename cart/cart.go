package cart

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
)

// AddToCart increments quantity if the product already has a line, or appends
// a new snapshot line. Duplicate adds always accumulate; they never overwrite.
func AddToCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var input struct {
		ProductID string `json:"productId"`
		Qty       int    `json:"qty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		log.Println("AddToCart decode error:", err)
		http.Error(w, "Invalid quantity", http.StatusBadRequest)
		return
	}
	if input.ProductID == "" || input.Qty < 1 {
		http.Error(w, "Invalid quantity", http.StatusBadRequest)
		return
	}

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var product models.Product
	if err := db.ProductCollection.FindOne(ctx, bson.M{"productid": input.ProductID}).Decode(&product); err != nil {
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}

	// Increment the existing line if there is one
	res, err := db.UserCollection.UpdateOne(ctx,
		bson.M{"userid": userID, "cartItems.product": input.ProductID},
		bson.M{"$inc": bson.M{"cartItems.$.qty": input.Qty}},
	)
	if err != nil {
		log.Println("AddToCart increment error:", err)
		http.Error(w, "Failed to add to cart", http.StatusInternalServerError)
		return
	}

	if res.MatchedCount == 0 {
		// No line yet: push a snapshot of the product as it is right now
		line := models.CartItem{
			ProductID: product.ProductID,
			Name:      product.Name,
			Image:     product.Image,
			Price:     product.Price,
			Qty:       input.Qty,
			AddedAt:   time.Now(),
		}
		if err := ValidateLine(line); err != nil {
			http.Error(w, "Invalid product data", http.StatusBadRequest)
			return
		}
		pushRes, err := db.UserCollection.UpdateOne(ctx,
			bson.M{"userid": userID},
			bson.M{"$push": bson.M{"cartItems": line}},
		)
		if err != nil {
			log.Println("AddToCart push error:", err)
			http.Error(w, "Failed to add to cart", http.StatusInternalServerError)
			return
		}
		if pushRes.MatchedCount == 0 {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
	}

	respondWithCart(ctx, w, userID, http.StatusOK)
}

// GetCart returns the user's cart lines plus the folded totals.
func GetCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	respondWithCart(ctx, w, userID, http.StatusOK)
}

// UpdateQty sets a line's quantity outright; anything below 1 removes the line.
func UpdateQty(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var input struct {
		ProductID string `json:"productId"`
		Qty       int    `json:"qty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid quantity", http.StatusBadRequest)
		return
	}
	if input.ProductID == "" {
		http.Error(w, "productId is required", http.StatusBadRequest)
		return
	}

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if input.Qty < 1 {
		removeLine(ctx, w, userID, input.ProductID)
		return
	}

	res, err := db.UserCollection.UpdateOne(ctx,
		bson.M{"userid": userID, "cartItems.product": input.ProductID},
		bson.M{"$set": bson.M{"cartItems.$.qty": input.Qty}},
	)
	if err != nil {
		log.Println("UpdateQty error:", err)
		http.Error(w, "Failed to update cart", http.StatusInternalServerError)
		return
	}
	if res.MatchedCount == 0 {
		http.Error(w, "Item not found in cart", http.StatusNotFound)
		return
	}

	respondWithCart(ctx, w, userID, http.StatusOK)
}

func RemoveFromCart(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	removeLine(ctx, w, userID, ps.ByName("productId"))
}

func ClearCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if _, err := db.UserCollection.UpdateOne(ctx,
		bson.M{"userid": userID},
		bson.M{"$set": bson.M{"cartItems": []models.CartItem{}}},
	); err != nil {
		log.Println("ClearCart error:", err)
		http.Error(w, "Failed to clear cart", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Cart cleared successfully"})
}

func removeLine(ctx context.Context, w http.ResponseWriter, userID, productID string) {
	res, err := db.UserCollection.UpdateOne(ctx,
		bson.M{"userid": userID},
		bson.M{"$pull": bson.M{"cartItems": bson.M{"product": productID}}},
	)
	if err != nil {
		log.Println("removeLine error:", err)
		http.Error(w, "Failed to update cart", http.StatusInternalServerError)
		return
	}
	if res.MatchedCount == 0 {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	respondWithCart(ctx, w, userID, http.StatusOK)
}

func respondWithCart(ctx context.Context, w http.ResponseWriter, userID string, status int) {
	var user struct {
		CartItems []models.CartItem `bson:"cartItems"`
	}
	if err := db.UserCollection.FindOne(ctx, bson.M{"userid": userID}).Decode(&user); err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	if user.CartItems == nil {
		user.CartItems = []models.CartItem{}
	}

	utils.RespondWithJSON(w, status, map[string]any{
		"cartItems": user.CartItems,
		"subtotal":  Subtotal(user.CartItems),
		"itemCount": ItemCount(user.CartItems),
	})
}
