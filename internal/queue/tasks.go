package queue

import (
	"encoding/json"

	"github.com/vendora-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskNotificationDispatch 交易事件通知任务
	TaskNotificationDispatch = constants.TaskNotificationDispatch
	// TaskOrderPaymentTimeout 订单支付超时取消任务
	TaskOrderPaymentTimeout = constants.TaskOrderPaymentTimeout
)

// NotificationPayload 通知任务载荷
type NotificationPayload struct {
	Event     string `json:"event"`
	UserID    uint   `json:"user_id"`
	OrderID   uint   `json:"order_id,omitempty"`
	PaymentID uint   `json:"payment_id,omitempty"`
	RefundID  uint   `json:"refund_id,omitempty"`
}

// OrderPaymentTimeoutPayload 支付超时取消任务载荷
type OrderPaymentTimeoutPayload struct {
	OrderID uint `json:"order_id"`
}

// NewNotificationTask 创建通知任务
func NewNotificationTask(payload NotificationPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNotificationDispatch, body), nil
}

// NewOrderPaymentTimeoutTask 创建支付超时取消任务
func NewOrderPaymentTimeoutTask(payload OrderPaymentTimeoutPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderPaymentTimeout, body), nil
}
