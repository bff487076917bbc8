package rdx

import (
	"log"
	"os"
	"time"

	"solemart/globals"

	"github.com/redis/go-redis/v9"
)

var Conn *redis.Client

func init() {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	Conn = redis.NewClient(&redis.Options{Addr: addr})
}

func RdxSet(key, value string) error {
	return Conn.Set(globals.Ctx, key, value, 0).Err()
}

func RdxGet(key string) (string, error) {
	return Conn.Get(globals.Ctx, key).Result()
}

func RdxDel(key string) error {
	return Conn.Del(globals.Ctx, key).Err()
}

func SetWithExpiry(key, value string, ttl time.Duration) error {
	return Conn.Set(globals.Ctx, key, value, ttl).Err()
}

func RdxHset(hash, field, value string) error {
	return Conn.HSet(globals.Ctx, hash, field, value).Err()
}

func RdxHdel(hash, field string) (int64, error) {
	return Conn.HDel(globals.Ctx, hash, field).Result()
}

// --- Product listing cache ---

const productListKey = "cache:products"

func CacheProductList(payload string, ttl time.Duration) {
	if err := SetWithExpiry(productListKey, payload, ttl); err != nil {
		log.Printf("rdx: failed to cache product list: %v", err)
	}
}

func CachedProductList() (string, bool) {
	val, err := RdxGet(productListKey)
	if err != nil {
		return "", false
	}
	return val, true
}

func InvalidateProductList() {
	if err := RdxDel(productListKey); err != nil {
		log.Printf("rdx: failed to invalidate product cache: %v", err)
	}
}
