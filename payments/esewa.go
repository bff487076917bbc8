package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"solemart/globals"
	"solemart/models"
	"solemart/utils"

	"github.com/julienschmidt/httprouter"
	qrcode "github.com/skip2/go-qrcode"
)

// EsewaBaseURL is a var so tests can point it at a stub gateway.
var EsewaBaseURL = "https://uat.esewa.com.np"

// PublicBaseURL is this server's externally reachable address; eSewa redirects
// the shopper back here after payment.
var PublicBaseURL = globals.Getenv("PUBLIC_BASE_URL", "http://localhost:8080")

func esewaMerchantCode() string {
	return globals.Getenv("ESEWA_MERCHANT_CODE", "EPAYTEST")
}

// esewaRedirectURL builds the epay/main URL the shopper is sent to. The order
// id rides in pid and comes back on the success callback.
func esewaRedirectURL(order models.Order) string {
	params := url.Values{}
	params.Set("amt", fmt.Sprintf("%.2f", order.TotalPrice))
	params.Set("psc", "0")
	params.Set("pdc", "0")
	params.Set("txAmt", "0")
	params.Set("tAmt", fmt.Sprintf("%.2f", order.TotalPrice))
	params.Set("pid", order.OrderID)
	params.Set("scd", esewaMerchantCode())
	params.Set("su", PublicBaseURL+"/api/payment/esewa/success")
	params.Set("fu", PublicBaseURL+"/api/payment/esewa/failure")
	return EsewaBaseURL + "/epay/main?" + params.Encode()
}

// EsewaPay is the initiate step: given an unpaid order owned by the caller,
// return the gateway redirect URL. The order is not mutated.
func EsewaPay(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var input struct {
		OrderID string `json:"orderId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.OrderID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "orderId is required")
		return
	}

	order, err := findOrder(ctx, input.OrderID)
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Order not found")
		return
	}
	if order.UserID != utils.GetUserIDFromRequest(r) && !utils.IsAdmin(r) {
		utils.RespondWithError(w, http.StatusForbidden, "Not authorized for this order")
		return
	}
	if order.IsPaid {
		utils.RespondWithError(w, http.StatusBadRequest, "Order is already paid")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{
		"esewaUrl": esewaRedirectURL(order),
	})
}

// EsewaQR renders the redirect URL as a QR code PNG so the shopper can scan
// it from the eSewa app instead of following the redirect.
func EsewaQR(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	order, err := findOrder(ctx, ps.ByName("orderid"))
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Order not found")
		return
	}
	if order.UserID != utils.GetUserIDFromRequest(r) && !utils.IsAdmin(r) {
		utils.RespondWithError(w, http.StatusForbidden, "Not authorized for this order")
		return
	}

	png, err := qrcode.Encode(esewaRedirectURL(order), qrcode.Medium, 256)
	if err != nil {
		log.Println("EsewaQR encode error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Could not generate QR code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// esewaVerify re-checks the transaction with the gateway's transrec endpoint.
// The legacy API answers with an XML-ish body containing "Success".
func esewaVerify(ctx context.Context, orderID, refID string, amount float64) (bool, error) {
	form := url.Values{}
	form.Set("amt", fmt.Sprintf("%.2f", amount))
	form.Set("scd", esewaMerchantCode())
	form.Set("pid", orderID)
	form.Set("rid", refID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		EsewaBaseURL+"/epay/transrec", strings.NewReader(form.Encode()))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := gatewayClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return false, err
	}
	return strings.Contains(string(body), "Success"), nil
}

// EsewaSuccess is the confirm callback eSewa redirects the shopper to. The
// transaction is re-verified with the gateway before the order is touched;
// any failure routes the shopper to the failure page rather than erroring.
func EsewaSuccess(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 20*time.Second)
	defer cancel()

	q := r.URL.Query()
	orderID := q.Get("pid")
	refID := q.Get("refId")
	if orderID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing order reference")
		return
	}

	order, err := findOrder(ctx, orderID)
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Order not found")
		return
	}

	if order.IsPaid {
		redirectSuccess(w, r, order.OrderID)
		return
	}

	verified, err := esewaVerify(ctx, orderID, refID, order.TotalPrice)
	if err != nil {
		log.Println("eSewa verify error:", err)
		redirectFailure(w, r)
		return
	}
	if !verified {
		log.Printf("eSewa verification failed for order %s (ref %s)", orderID, refID)
		redirectFailure(w, r)
		return
	}

	result := models.PaymentResult{
		ID:           "ESEWA-" + refID,
		Status:       "success",
		UpdateTime:   time.Now().UTC().Format(time.RFC3339),
		EmailAddress: order.UserEmail,
	}
	if _, _, err := MarkOrderPaid(ctx, orderID, result); err != nil {
		log.Println("eSewa MarkOrderPaid error:", err)
		redirectFailure(w, r)
		return
	}

	redirectSuccess(w, r, orderID)
}

// EsewaFailure is where the gateway sends shoppers who cancelled or failed.
func EsewaFailure(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	redirectFailure(w, r)
}

func redirectSuccess(w http.ResponseWriter, r *http.Request, orderID string) {
	http.Redirect(w, r, globals.FrontendURL+"/payment-success?method=eSewa&orderId="+url.QueryEscape(orderID), http.StatusFound)
}

func redirectFailure(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, globals.FrontendURL+"/payment-failed?method=eSewa", http.StatusFound)
}
