package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"solemart/models"
	"solemart/utils"

	"github.com/julienschmidt/httprouter"
)

// KhaltiBaseURL is a var so tests can point it at a stub gateway.
var KhaltiBaseURL = "https://khalti.com/api/v2"

func khaltiSecretKey() string {
	return os.Getenv("KHALTI_SECRET_KEY")
}

// CreateKhaltiPayment proxies the initiate call to Khalti and hands the
// gateway token payload back to the client. The order itself is untouched.
func CreateKhaltiPayment(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input struct {
		Amount          int64  `json:"amount"` // paisa
		ProductIdentity string `json:"productIdentity"`
		ProductName     string `json:"productName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if input.Amount <= 0 || input.ProductIdentity == "" || input.ProductName == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	body, _ := json.Marshal(map[string]any{
		"amount":           input.Amount,
		"product_identity": input.ProductIdentity,
		"product_name":     input.ProductName,
	})

	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost,
		KhaltiBaseURL+"/payment/initiate/", bytes.NewReader(body))
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Key "+khaltiSecretKey())

	resp, err := gatewayClient.Do(req)
	if err != nil {
		log.Println("Khalti initiate error:", err)
		utils.RespondWithError(w, http.StatusBadGateway, "Payment gateway unreachable")
		return
	}
	defer resp.Body.Close()

	payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(payload)
}

// khaltiVerify asks the gateway whether the token really completed. Client
// "success" claims are never trusted directly.
func khaltiVerify(ctx context.Context, token string, amount int64) (bool, error) {
	body, _ := json.Marshal(map[string]any{"token": token, "amount": amount})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		KhaltiBaseURL+"/payment/verify/", bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Key "+khaltiSecretKey())

	resp, err := gatewayClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("khalti verify returned %d", resp.StatusCode)
	}

	var verifyResp struct {
		State struct {
			Name string `json:"name"`
		} `json:"state"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&verifyResp); err != nil {
		return false, err
	}
	return verifyResp.State.Name == "Completed", nil
}

// VerifyKhaltiPayment is the confirm callback for the Khalti flow. A failed
// verification is an expected outcome, not a server error.
func VerifyKhaltiPayment(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 20*time.Second)
	defer cancel()

	var input struct {
		Token   string `json:"token"`
		Amount  int64  `json:"amount"`
		OrderID string `json:"orderId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if input.Token == "" || input.OrderID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "token and orderId are required")
		return
	}

	order, err := findOrder(ctx, input.OrderID)
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Order not found")
		return
	}
	if order.IsPaid {
		// Duplicate callback; nothing to do.
		utils.RespondWithJSON(w, http.StatusOK, map[string]any{"success": true, "alreadyPaid": true})
		return
	}

	completed, err := khaltiVerify(ctx, input.Token, input.Amount)
	if err != nil {
		log.Println("Khalti verify error:", err)
		utils.RespondWithJSON(w, http.StatusBadGateway, map[string]any{
			"success": false, "message": "Could not verify payment with Khalti",
		})
		return
	}
	if !completed {
		utils.RespondWithJSON(w, http.StatusBadRequest, map[string]any{
			"success": false, "message": "Khalti payment not completed",
		})
		return
	}

	result := models.PaymentResult{
		ID:           input.Token,
		Status:       "success",
		UpdateTime:   time.Now().UTC().Format(time.RFC3339),
		EmailAddress: order.UserEmail,
	}
	if _, _, err := MarkOrderPaid(ctx, input.OrderID, result); err != nil {
		log.Println("Khalti MarkOrderPaid error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update order")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]any{"success": true})
}
