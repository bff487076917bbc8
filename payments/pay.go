package payments

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"solemart/db"
	"solemart/models"
	"solemart/orders"
	"solemart/rdx"

	"go.mongodb.org/mongo-driver/bson"
)

// Outbound gateway calls share one client so a hung gateway cannot pin a
// callback request forever.
var gatewayClient = &http.Client{Timeout: 15 * time.Second}

var ErrOrderNotFound = errors.New("order not found")

// MarkOrderPaid is the only unpaid→paid transition in the system. It is safe
// to call more than once for the same order: a duplicate callback finds the
// order already paid and returns alreadyPaid=true with no write.
//
// Two guards stack here: a short redis lock serializes concurrent callbacks
// for one order, and the mongo update filters on isPaid:false so even a raced
// duplicate cannot re-apply the transition.
func MarkOrderPaid(ctx context.Context, orderID string, result models.PaymentResult) (order models.Order, alreadyPaid bool, err error) {
	lockKey := "payment_lock:" + orderID
	locked, lockErr := rdx.Conn.SetNX(ctx, lockKey, "1", 30*time.Second).Result()
	if lockErr != nil {
		// Redis being down must not block payment confirmation; the
		// conditional update below still guarantees exactly-once.
		log.Printf("MarkOrderPaid: lock error for %s: %v", orderID, lockErr)
	} else if !locked {
		log.Printf("MarkOrderPaid: concurrent confirm in flight for %s", orderID)
	} else {
		defer func() {
			if delErr := rdx.Conn.Del(ctx, lockKey).Err(); delErr != nil {
				log.Printf("MarkOrderPaid: unlock error for %s: %v", orderID, delErr)
			}
		}()
	}

	if findErr := db.OrderCollection.FindOne(ctx, bson.M{"orderId": orderID}).Decode(&order); findErr != nil {
		return models.Order{}, false, ErrOrderNotFound
	}

	if order.IsPaid {
		return order, true, nil
	}

	now := time.Now()
	res, updErr := db.OrderCollection.UpdateOne(ctx,
		bson.M{"orderId": orderID, "isPaid": false},
		bson.M{"$set": bson.M{
			"isPaid":        true,
			"paidAt":        now,
			"paymentResult": result,
		}},
	)
	if updErr != nil {
		return models.Order{}, false, updErr
	}
	if res.ModifiedCount == 0 {
		// Lost the race to another confirm; treat as the duplicate it is.
		return order, true, nil
	}

	order.IsPaid = true
	order.PaidAt = &now
	order.PaymentResult = &result

	orders.NotifyOrderPaid(order)
	log.Printf("Order %s marked paid (txn %s)", orderID, result.ID)
	return order, false, nil
}

func findOrder(ctx context.Context, orderID string) (models.Order, error) {
	var order models.Order
	if err := db.OrderCollection.FindOne(ctx, bson.M{"orderId": orderID}).Decode(&order); err != nil {
		return models.Order{}, ErrOrderNotFound
	}
	return order, nil
}
