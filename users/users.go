package users

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"solemart/db"
	"solemart/models"
	"solemart/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GetUsers returns every account, newest first, without password hashes.
func GetUsers(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.M{"created_at": -1})
	cursor, err := db.UserCollection.Find(ctx, bson.M{}, opts)
	if err != nil {
		log.Println("GetUsers Find error:", err)
		http.Error(w, "Could not fetch users", http.StatusInternalServerError)
		return
	}
	defer cursor.Close(ctx)

	var users []models.PublicUser
	if err := cursor.All(ctx, &users); err != nil {
		log.Println("GetUsers cursor.All error:", err)
		http.Error(w, "Error reading users", http.StatusInternalServerError)
		return
	}
	if len(users) == 0 {
		users = []models.PublicUser{}
	}

	utils.RespondWithJSON(w, http.StatusOK, users)
}

func GetUserByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var user models.PublicUser
	err := db.UserCollection.FindOne(ctx, bson.M{"userid": ps.ByName("id")}).Decode(&user)
	if err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, user)
}

// UpdateUser lets an admin change a user's name, email or role.
func UpdateUser(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var input struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid input", http.StatusBadRequest)
		return
	}

	set := bson.M{"updated_at": time.Now()}
	if input.Name != "" {
		set["name"] = input.Name
	}
	if input.Email != "" {
		set["email"] = strings.ToLower(strings.TrimSpace(input.Email))
	}
	if input.Role != "" {
		if input.Role != "user" && input.Role != "admin" {
			http.Error(w, "Role must be user or admin", http.StatusBadRequest)
			return
		}
		set["role"] = input.Role
	}

	res, err := db.UserCollection.UpdateOne(ctx, bson.M{"userid": ps.ByName("id")}, bson.M{"$set": set})
	if err != nil {
		log.Println("UpdateUser error:", err)
		http.Error(w, "Could not update user", http.StatusInternalServerError)
		return
	}
	if res.MatchedCount == 0 {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	var user models.PublicUser
	if err := db.UserCollection.FindOne(ctx, bson.M{"userid": ps.ByName("id")}).Decode(&user); err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, user)
}

// DeleteUser removes an account. Admins cannot delete themselves.
func DeleteUser(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	targetID := ps.ByName("id")
	if targetID == utils.GetUserIDFromRequest(r) {
		http.Error(w, "You cannot delete your own admin account", http.StatusBadRequest)
		return
	}

	res, err := db.UserCollection.DeleteOne(ctx, bson.M{"userid": targetID})
	if err != nil {
		log.Println("DeleteUser error:", err)
		http.Error(w, "Could not delete user", http.StatusInternalServerError)
		return
	}
	if res.DeletedCount == 0 {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "User removed successfully"})
}
