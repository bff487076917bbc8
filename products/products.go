package products

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"solemart/db"
	"solemart/filemgr"
	"solemart/models"
	"solemart/rdx"
	"solemart/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const listCacheTTL = 2 * time.Minute

// GetProducts returns the full catalog, served from the Redis cache when warm.
func GetProducts(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if cached, ok := rdx.CachedProductList(); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(cached))
		return
	}

	opts := options.Find().SetSort(bson.M{"created_at": -1})
	cursor, err := db.ProductCollection.Find(ctx, bson.M{}, opts)
	if err != nil {
		log.Println("GetProducts Find error:", err)
		http.Error(w, "Could not retrieve products", http.StatusInternalServerError)
		return
	}
	defer cursor.Close(ctx)

	var items []models.Product
	if err := cursor.All(ctx, &items); err != nil {
		log.Println("GetProducts cursor.All error:", err)
		http.Error(w, "Error reading products", http.StatusInternalServerError)
		return
	}
	if len(items) == 0 {
		items = []models.Product{}
	}

	payload, err := json.Marshal(items)
	if err != nil {
		http.Error(w, "Error encoding products", http.StatusInternalServerError)
		return
	}
	rdx.CacheProductList(string(payload), listCacheTTL)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

func GetProductByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var product models.Product
	err := db.ProductCollection.FindOne(ctx, bson.M{"productid": ps.ByName("id")}).Decode(&product)
	if err != nil {
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, product)
}

// parseProductForm reads the multipart fields shared by create and update.
func parseProductForm(r *http.Request) (name, description, brand, category string, price float64, stock int, err error) {
	name = r.FormValue("name")
	description = r.FormValue("description")
	brand = r.FormValue("brand")
	category = r.FormValue("category")

	if v := r.FormValue("price"); v != "" {
		price, err = strconv.ParseFloat(v, 64)
		if err != nil {
			return
		}
	}
	if v := r.FormValue("countInStock"); v != "" {
		stock, err = strconv.Atoi(v)
		if err != nil {
			return
		}
	}
	return
}

// CreateProduct is admin-only: multipart form with an optional image upload.
func CreateProduct(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	name, description, brand, category, price, stock, err := parseProductForm(r)
	if err != nil {
		http.Error(w, "Invalid price or stock value", http.StatusBadRequest)
		return
	}
	if name == "" || description == "" || category == "" {
		http.Error(w, "Missing required fields", http.StatusBadRequest)
		return
	}
	if price < 0 || stock < 0 {
		http.Error(w, "Price and stock must not be negative", http.StatusBadRequest)
		return
	}

	// Name is unique across the catalog
	err = db.ProductCollection.FindOne(ctx, bson.M{"name": name}).Err()
	if err == nil {
		http.Error(w, "Product name already exists", http.StatusBadRequest)
		return
	} else if err != mongo.ErrNoDocuments {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	imagePath := "/uploads/products/sample.jpg"
	thumbPath := ""
	if file, header, ferr := r.FormFile("image"); ferr == nil {
		if !utils.ValidateImageFileType(w, header) {
			return
		}
		imagePath, thumbPath, err = filemgr.SaveProductImage(file, header)
		if err != nil {
			log.Println("CreateProduct image save error:", err)
			http.Error(w, "Could not save image", http.StatusBadRequest)
			return
		}
	}

	now := time.Now()
	product := models.Product{
		ProductID:    "p" + utils.GenerateRandomString(10),
		Name:         name,
		Description:  description,
		Brand:        brand,
		Category:     category,
		Price:        price,
		CountInStock: stock,
		Image:        imagePath,
		Thumb:        thumbPath,
		CreatedBy:    utils.GetUserIDFromRequest(r),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := db.ProductCollection.InsertOne(ctx, product); err != nil {
		log.Println("CreateProduct InsertOne error:", err)
		http.Error(w, "Failed to create product", http.StatusInternalServerError)
		return
	}

	rdx.InvalidateProductList()
	utils.RespondWithJSON(w, http.StatusCreated, product)
}

// UpdateProduct is admin-only; only sent fields are changed.
func UpdateProduct(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	set := bson.M{"updated_at": time.Now()}
	if v := r.FormValue("name"); v != "" {
		set["name"] = v
	}
	if v := r.FormValue("description"); v != "" {
		set["description"] = v
	}
	if v := r.FormValue("brand"); v != "" {
		set["brand"] = v
	}
	if v := r.FormValue("category"); v != "" {
		set["category"] = v
	}
	if v := r.FormValue("price"); v != "" {
		price, err := strconv.ParseFloat(v, 64)
		if err != nil || price < 0 {
			http.Error(w, "Invalid price", http.StatusBadRequest)
			return
		}
		set["price"] = price
	}
	if v := r.FormValue("countInStock"); v != "" {
		stock, err := strconv.Atoi(v)
		if err != nil || stock < 0 {
			http.Error(w, "Invalid stock count", http.StatusBadRequest)
			return
		}
		set["countInStock"] = stock
	}

	if file, header, ferr := r.FormFile("image"); ferr == nil {
		if !utils.ValidateImageFileType(w, header) {
			return
		}
		imagePath, thumbPath, err := filemgr.SaveProductImage(file, header)
		if err != nil {
			log.Println("UpdateProduct image save error:", err)
			http.Error(w, "Could not save image", http.StatusBadRequest)
			return
		}
		set["image"] = imagePath
		set["thumb"] = thumbPath
	}

	res, err := db.ProductCollection.UpdateOne(ctx, bson.M{"productid": ps.ByName("id")}, bson.M{"$set": set})
	if err != nil {
		log.Println("UpdateProduct error:", err)
		http.Error(w, "Failed to update product", http.StatusInternalServerError)
		return
	}
	if res.MatchedCount == 0 {
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}

	rdx.InvalidateProductList()

	var product models.Product
	if err := db.ProductCollection.FindOne(ctx, bson.M{"productid": ps.ByName("id")}).Decode(&product); err != nil {
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, product)
}

func DeleteProduct(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	res, err := db.ProductCollection.DeleteOne(ctx, bson.M{"productid": ps.ByName("id")})
	if err != nil {
		log.Println("DeleteProduct error:", err)
		http.Error(w, "Failed to delete product", http.StatusInternalServerError)
		return
	}
	if res.DeletedCount == 0 {
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}

	rdx.InvalidateProductList()
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Product removed"})
}
