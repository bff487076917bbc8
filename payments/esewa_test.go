package payments

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"solemart/globals"
	"solemart/models"

	"github.com/julienschmidt/httprouter"
)

func TestEsewaRedirectURL(t *testing.T) {
	order := models.Order{OrderID: "ORDabc123", TotalPrice: 1250.5}

	raw := esewaRedirectURL(order)
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("redirect URL does not parse: %v", err)
	}
	if u.Path != "/epay/main" {
		t.Errorf("path = %q, want /epay/main", u.Path)
	}

	q := u.Query()
	want := map[string]string{
		"pid":   "ORDabc123",
		"amt":   "1250.50",
		"tAmt":  "1250.50",
		"txAmt": "0",
		"psc":   "0",
		"pdc":   "0",
		"scd":   esewaMerchantCode(),
		"su":    PublicBaseURL + "/api/payment/esewa/success",
		"fu":    PublicBaseURL + "/api/payment/esewa/failure",
	}
	for key, val := range want {
		if got := q.Get(key); got != val {
			t.Errorf("param %s = %q, want %q", key, got, val)
		}
	}
}

func TestEsewaVerify(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{"success response", "<response_code>\nSuccess\n</response_code>", true},
		{"failure response", "<response_code>\nFailure\n</response_code>", false},
		{"empty response", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/epay/transrec" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				if err := r.ParseForm(); err != nil {
					t.Errorf("parse form: %v", err)
				}
				if pid := r.PostFormValue("pid"); pid != "ORDabc123" {
					t.Errorf("pid = %q", pid)
				}
				if rid := r.PostFormValue("rid"); rid != "REF1" {
					t.Errorf("rid = %q", rid)
				}
				if amt := r.PostFormValue("amt"); amt != "1000.00" {
					t.Errorf("amt = %q", amt)
				}
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			old := EsewaBaseURL
			EsewaBaseURL = srv.URL
			defer func() { EsewaBaseURL = old }()

			got, err := esewaVerify(context.Background(), "ORDabc123", "REF1", 1000)
			if err != nil {
				t.Fatalf("esewaVerify error: %v", err)
			}
			if got != tc.want {
				t.Errorf("esewaVerify = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestEsewaVerifyGatewayDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	old := EsewaBaseURL
	EsewaBaseURL = srv.URL
	defer func() { EsewaBaseURL = old }()

	if _, err := esewaVerify(context.Background(), "ORDabc123", "REF1", 1000); err == nil {
		t.Fatal("expected error when gateway is unreachable")
	}
}

func TestEsewaFailureRedirect(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/payment/esewa/failure", nil)
	w := httptest.NewRecorder()

	EsewaFailure(w, r, httprouter.Params{})

	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusFound)
	}
	loc := w.Header().Get("Location")
	if loc != globals.FrontendURL+"/payment-failed?method=eSewa" {
		t.Errorf("Location = %q", loc)
	}
	if !strings.Contains(loc, "payment-failed") {
		t.Errorf("redirect does not hit the failure page: %q", loc)
	}
}
