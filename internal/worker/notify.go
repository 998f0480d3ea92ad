package worker

// 统一的 WebSocket 消息协议（通过 Redis Pub/Sub 转发给前端）。
// 注意：这里的字段名与前端解析保持一致。
type PublishRenderNotifyMessage struct {
	Status        string `json:"status"`
	PortfolioID   string `json:"portfolio_id"`
	ShareLink     string `json:"share_link"`
	CorrelationID string `json:"correlation_id"`
	ErrorCode     int    `json:"error_code"`
	ErrorMessage  string `json:"error_message"`
}
