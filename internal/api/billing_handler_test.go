package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"poovi/internal/billing"
)

func doBillingRequest(t *testing.T, h *BillingHandler, method string, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	if body != "" {
		c.Request = httptest.NewRequest(method, "/v1/billing/order", bytes.NewReader([]byte(body)))
		c.Request.Header.Set("Content-Type", "application/json")
	} else {
		c.Request = httptest.NewRequest(method, "/v1/billing/order", nil)
	}

	if method == http.MethodOptions {
		h.CreateOrderPreflight(c)
	} else {
		h.CreateOrder(c)
	}
	return w
}

func TestBillingPreflight(t *testing.T) {
	h := NewBillingHandler(billing.NewClient("", ""), nil)
	w := doBillingRequest(t, h, http.MethodOptions, "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("CORS origin header missing, got %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); got != "POST, OPTIONS" {
		t.Fatalf("CORS methods header wrong: %q", got)
	}
	if w.Body.Len() != 0 {
		t.Fatalf("preflight response should have no body, got %q", w.Body.String())
	}
}

func TestCreateOrderCurrencyForwarded(t *testing.T) {
	var gatewayReq struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gatewayReq); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"id":"order_fx","amount":%d,"currency":%q}`, gatewayReq.Amount, gatewayReq.Currency)
	}))
	defer srv.Close()

	h := NewBillingHandler(billing.NewClientWithBaseURL("key_test", "secret_test", srv.URL), nil)

	w := doBillingRequest(t, h, http.MethodPost, `{"amount":199,"planName":"Platinum","currency":"USD"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
	}
	if gatewayReq.Currency != "USD" {
		t.Fatalf("requested currency not forwarded, gateway saw %q", gatewayReq.Currency)
	}
	var resp createOrderResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Currency != "USD" {
		t.Fatalf("response should echo gateway currency: %+v", resp)
	}

	// 省略 currency 时仍默认 INR。
	if w := doBillingRequest(t, h, http.MethodPost, `{"amount":199,"planName":"Platinum"}`); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if gatewayReq.Currency != "INR" {
		t.Fatalf("omitted currency should default to INR, gateway saw %q", gatewayReq.Currency)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	h := NewBillingHandler(billing.NewClient("key", "secret"), nil)

	cases := []struct {
		name string
		body string
	}{
		{"missing fields", `{}`},
		{"unknown plan", `{"amount":199,"planName":"Gold"}`},
		{"free plan", `{"amount":1,"planName":"Free"}`},
		{"amount mismatch", `{"amount":100,"planName":"Platinum"}`},
	}
	for _, tc := range cases {
		w := doBillingRequest(t, h, http.MethodPost, tc.body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d body=%s", tc.name, w.Code, w.Body.String())
		}
	}
}

func TestCreateOrderNotConfigured(t *testing.T) {
	h := NewBillingHandler(billing.NewClient("", ""), nil)
	w := doBillingRequest(t, h, http.MethodPost, `{"amount":199,"planName":"Platinum"}`)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when credentials are missing, got %d body=%s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("error responses must still carry CORS headers, got %q", got)
	}
}
