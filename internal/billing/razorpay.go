// Package billing contains the thin order-creation client for the payment
// gateway. It only creates orders: nothing here verifies payment completion,
// and nothing here may treat a subscription as active.
package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.razorpay.com"

// ErrNotConfigured 表示支付凭据缺失。只有账单端点受影响，
// 服务其余部分照常运行。
var ErrNotConfigured = errors.New("razorpay credentials not configured")

// Plan 描述一个订阅档位。金额以整卢比计。
type Plan struct {
	Name  string
	Price int64
}

// Plans 是可购买的订阅档位。Free 档不经过支付网关。
var Plans = []Plan{
	{Name: "Free", Price: 0},
	{Name: "Platinum", Price: 199},
	{Name: "Diamond", Price: 499},
}

// LookupPlan 按名称查找档位。
func LookupPlan(name string) (Plan, bool) {
	for _, p := range Plans {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Plan{}, false
}

// Order 是网关返回的不透明订单句柄，用于驱动第三方结账流程。
// Amount 以最小货币单位（paise）计。
type Order struct {
	OrderID  string `json:"orderId"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	KeyID    string `json:"keyId"`
}

// Client 调用 Razorpay 订单接口。客户端把网关当作黑盒：
// 不构造签名，也不记录支付完成状态。
type Client struct {
	keyID      string
	keySecret  string
	baseURL    string
	httpClient *http.Client
}

// NewClient 构造账单客户端。凭据允许为空，调用时返回 ErrNotConfigured。
func NewClient(keyID, keySecret string) *Client {
	return NewClientWithBaseURL(keyID, keySecret, defaultBaseURL)
}

// NewClientWithBaseURL 指向给定的网关地址，用于沙箱环境。
func NewClientWithBaseURL(keyID, keySecret, baseURL string) *Client {
	return &Client{
		keyID:      strings.TrimSpace(keyID),
		keySecret:  strings.TrimSpace(keySecret),
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Configured 报告凭据是否齐备。
func (c *Client) Configured() bool {
	return c.keyID != "" && c.keySecret != ""
}

type orderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes"`
}

type orderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// CreateOrder 以整卢比金额创建订单。最小单位换算（卢比 → paise）
// 在这里完成，调用方只和整货币单位打交道。
func (c *Client) CreateOrder(ctx context.Context, amount int64, planName, currency string) (Order, error) {
	if !c.Configured() {
		return Order{}, ErrNotConfigured
	}
	if amount <= 0 {
		return Order{}, fmt.Errorf("amount must be positive, got %d", amount)
	}
	if currency == "" {
		currency = "INR"
	}

	payload, err := json.Marshal(orderRequest{
		Amount:   amount * 100, // Razorpay expects paise
		Currency: currency,
		Receipt:  fmt.Sprintf("receipt_%d", time.Now().UnixMilli()),
		Notes:    map[string]string{"plan_name": planName},
	})
	if err != nil {
		return Order{}, fmt.Errorf("encode order request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(payload))
	if err != nil {
		return Order{}, fmt.Errorf("build order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Order{}, fmt.Errorf("request razorpay order: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8*1024))
		return Order{}, fmt.Errorf("razorpay order status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var order orderResponse
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return Order{}, fmt.Errorf("decode order response: %w", err)
	}

	return Order{
		OrderID:  order.ID,
		Amount:   order.Amount,
		Currency: order.Currency,
		KeyID:    c.keyID,
	}, nil
}
