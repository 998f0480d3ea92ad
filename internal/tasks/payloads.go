package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// 任务类型常量，确保队列生产者与消费者一致。
const (
	TypePublishRender = "portfolio:publish_render"
)

// PublishRenderPayload 描述预渲染公开页面所需的最小信息。
type PublishRenderPayload struct {
	PortfolioID   string `json:"portfolio_id"`
	CorrelationID string `json:"correlation_id"`
}

// NewPublishRenderTask 构造一个公开页面预渲染任务。
func NewPublishRenderTask(portfolioID, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(PublishRenderPayload{
		PortfolioID:   portfolioID,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypePublishRender, payload), nil
}
