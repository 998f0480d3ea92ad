package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"poovi/internal/api/middleware"
	"poovi/internal/billing"
)

// BillingHandler 负责创建 Razorpay 支付订单。
type BillingHandler struct {
	client *billing.Client
	logger *slog.Logger
}

func NewBillingHandler(client *billing.Client, logger *slog.Logger) *BillingHandler {
	return &BillingHandler{
		client: client,
		logger: logger,
	}
}

// 支付页面由浏览器直接调用，需要放开跨域。
func setBillingCORSHeaders(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Headers", "authorization, x-client-info, apikey, content-type")
	c.Header("Access-Control-Allow-Methods", "POST, OPTIONS")
}

// OPTIONS /v1/billing/order
func (h *BillingHandler) CreateOrderPreflight(c *gin.Context) {
	setBillingCORSHeaders(c)
	c.Status(http.StatusOK)
}

type createOrderRequest struct {
	Amount   int64  `json:"amount" binding:"required"`
	PlanName string `json:"planName" binding:"required"`
	Currency string `json:"currency"`
}

type createOrderResponse struct {
	OrderID  string `json:"orderId"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	KeyID    string `json:"keyId"`
}

// POST /v1/billing/order
// 校验方案与金额后向 Razorpay 创建订单，凭证缺失时返回 503。
func (h *BillingHandler) CreateOrder(c *gin.Context) {
	setBillingCORSHeaders(c)

	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	plan, ok := billing.LookupPlan(req.PlanName)
	if !ok {
		BadRequest(c, "unknown plan")
		return
	}
	if plan.Price == 0 {
		BadRequest(c, "free plan does not require payment")
		return
	}
	if req.Amount != plan.Price {
		BadRequest(c, "amount does not match plan price")
		return
	}

	order, err := h.client.CreateOrder(c.Request.Context(), req.Amount, plan.Name, req.Currency)
	if err != nil {
		if errors.Is(err, billing.ErrNotConfigured) {
			ServiceUnavailable(c, "billing is not configured")
			return
		}
		h.loggerFromContext(c).Error("create razorpay order",
			slog.String("plan", plan.Name),
			slog.Any("error", err),
		)
		Internal(c, "failed to create order")
		return
	}

	c.JSON(http.StatusOK, createOrderResponse{
		OrderID:  order.OrderID,
		Amount:   order.Amount,
		Currency: order.Currency,
		KeyID:    order.KeyID,
	})
}

func (h *BillingHandler) loggerFromContext(c *gin.Context) *slog.Logger {
	if logger := middleware.LoggerFromContext(c); logger != nil {
		return logger
	}
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}
