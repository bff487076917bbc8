package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"solemart/db"
	"solemart/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func unpaidOrderDoc(orderID string) bson.D {
	return bson.D{
		{Key: "orderId", Value: orderID},
		{Key: "userId", Value: "u1"},
		{Key: "userEmail", Value: "shopper@example.com"},
		{Key: "totalPrice", Value: 1000.0},
		{Key: "isPaid", Value: false},
	}
}

func paidOrderDoc(orderID string) bson.D {
	return bson.D{
		{Key: "orderId", Value: orderID},
		{Key: "userId", Value: "u1"},
		{Key: "userEmail", Value: "shopper@example.com"},
		{Key: "totalPrice", Value: 1000.0},
		{Key: "isPaid", Value: true},
		{Key: "paidAt", Value: primitive.NewDateTimeFromTime(time.Now())},
	}
}

func swapOrderCollection(mt *mtest.T) func() {
	old := db.OrderCollection
	db.OrderCollection = mt.Coll
	return func() { db.OrderCollection = old }
}

func TestMarkOrderPaidFirstConfirm(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("unpaid order becomes paid", func(mt *mtest.T) {
		defer swapOrderCollection(mt)()

		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "solemartdb.orders", mtest.FirstBatch, unpaidOrderDoc("ORD1")),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
		)

		result := models.PaymentResult{ID: "TXN1", Status: "success"}
		order, alreadyPaid, err := MarkOrderPaid(context.Background(), "ORD1", result)
		if err != nil {
			mt.Fatalf("MarkOrderPaid error: %v", err)
		}
		if alreadyPaid {
			mt.Fatal("first confirm reported as a duplicate")
		}
		if !order.IsPaid || order.PaidAt == nil {
			mt.Fatal("order not marked paid")
		}
		if order.PaymentResult == nil || order.PaymentResult.ID != "TXN1" {
			mt.Fatalf("paymentResult = %+v", order.PaymentResult)
		}
	})
}

func TestMarkOrderPaidDuplicateConfirm(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("already paid order is untouched", func(mt *mtest.T) {
		defer swapOrderCollection(mt)()

		// Only the lookup runs; a second update would fail the mock.
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, "solemartdb.orders", mtest.FirstBatch, paidOrderDoc("ORD1")),
		)

		order, alreadyPaid, err := MarkOrderPaid(context.Background(), "ORD1", models.PaymentResult{ID: "TXN2"})
		if err != nil {
			mt.Fatalf("MarkOrderPaid error: %v", err)
		}
		if !alreadyPaid {
			mt.Fatal("duplicate confirm not reported as alreadyPaid")
		}
		if !order.IsPaid {
			mt.Fatal("returned order lost its paid state")
		}
	})
}

func TestMarkOrderPaidRacedConfirm(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("losing the conditional update is a duplicate", func(mt *mtest.T) {
		defer swapOrderCollection(mt)()

		// The read saw an unpaid order, but another confirm got the
		// isPaid:false update in first: nModified comes back zero.
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "solemartdb.orders", mtest.FirstBatch, unpaidOrderDoc("ORD1")),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 0}),
		)

		_, alreadyPaid, err := MarkOrderPaid(context.Background(), "ORD1", models.PaymentResult{ID: "TXN3"})
		if err != nil {
			mt.Fatalf("MarkOrderPaid error: %v", err)
		}
		if !alreadyPaid {
			mt.Fatal("raced confirm must be treated as a duplicate")
		}
	})
}

func TestMarkOrderPaidUnknownOrder(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("missing order", func(mt *mtest.T) {
		defer swapOrderCollection(mt)()

		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "solemartdb.orders", mtest.FirstBatch),
		)

		if _, _, err := MarkOrderPaid(context.Background(), "ORDnope", models.PaymentResult{}); err != ErrOrderNotFound {
			mt.Fatalf("err = %v, want ErrOrderNotFound", err)
		}
	})
}

func TestVerifyKhaltiPaymentAlreadyPaidSkipsGateway(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("duplicate callback answers from the order", func(mt *mtest.T) {
		defer swapOrderCollection(mt)()

		gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mt.Error("gateway must not be contacted for an already paid order")
		}))
		defer gateway.Close()
		old := KhaltiBaseURL
		KhaltiBaseURL = gateway.URL
		defer func() { KhaltiBaseURL = old }()

		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, "solemartdb.orders", mtest.FirstBatch, paidOrderDoc("ORD1")),
		)

		body := strings.NewReader(`{"token":"tok","amount":100000,"orderId":"ORD1"}`)
		r := httptest.NewRequest(http.MethodPost, "/api/payment/khalti/verify", body)
		w := httptest.NewRecorder()
		VerifyKhaltiPayment(w, r, nil)

		if w.Code != http.StatusOK {
			mt.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
		}
		var resp struct {
			Success     bool `json:"success"`
			AlreadyPaid bool `json:"alreadyPaid"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			mt.Fatalf("decode response: %v", err)
		}
		if !resp.Success || !resp.AlreadyPaid {
			mt.Fatalf("response = %+v, want success and alreadyPaid", resp)
		}
	})
}

func TestEsewaSuccessAlreadyPaidRedirects(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("duplicate callback goes straight to the success page", func(mt *mtest.T) {
		defer swapOrderCollection(mt)()

		gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mt.Error("gateway must not be contacted for an already paid order")
		}))
		defer gateway.Close()
		old := EsewaBaseURL
		EsewaBaseURL = gateway.URL
		defer func() { EsewaBaseURL = old }()

		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, "solemartdb.orders", mtest.FirstBatch, paidOrderDoc("ORD1")),
		)

		r := httptest.NewRequest(http.MethodGet, "/api/payment/esewa/success?pid=ORD1&refId=REF1", nil)
		w := httptest.NewRecorder()
		EsewaSuccess(w, r, nil)

		if w.Code != http.StatusFound {
			mt.Fatalf("status = %d, want %d", w.Code, http.StatusFound)
		}
		if loc := w.Header().Get("Location"); !strings.Contains(loc, "payment-success") {
			mt.Fatalf("Location = %q, want the success page", loc)
		}
	})
}
