package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/vendora-next/internal/logger"
	"github.com/vendora-next/internal/provider"
	"github.com/vendora-next/internal/queue"
	"github.com/vendora-next/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskNotificationDispatch, c.handleNotificationDispatch)
	mux.HandleFunc(queue.TaskOrderPaymentTimeout, c.handleOrderPaymentTimeout)
}

// handleNotificationDispatch 投递交易事件通知。
// 当前的下游是结构化日志，外部通道接入后在这里分发。
func (c *Consumer) handleNotificationDispatch(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_notification_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.NotificationPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_notification_unmarshal_failed", "error", err)
		return err
	}
	if payload.Event == "" {
		logger.Debugw("worker_notification_skip_empty_event", "user_id", payload.UserID)
		return nil
	}

	kv := []interface{}{
		"event", payload.Event,
		"user_id", payload.UserID,
	}
	if payload.OrderID != 0 {
		order, err := c.OrderRepo.GetByID(payload.OrderID)
		if err != nil {
			logger.Warnw("worker_notification_fetch_order_failed", "order_id", payload.OrderID, "error", err)
			return err
		}
		if order == nil {
			logger.Debugw("worker_notification_skip_order_not_found", "order_id", payload.OrderID)
			return nil
		}
		kv = append(kv, "order_number", order.OrderNumber, "order_status", order.Status)
	}
	if payload.PaymentID != 0 {
		payment, err := c.PaymentRepo.GetByID(payload.PaymentID)
		if err != nil {
			logger.Warnw("worker_notification_fetch_payment_failed", "payment_id", payload.PaymentID, "error", err)
			return err
		}
		if payment != nil {
			kv = append(kv, "payment_id", payment.PaymentID, "payment_status", payment.Status)
		}
	}
	if payload.RefundID != 0 {
		refund, err := c.RefundRepo.GetByID(payload.RefundID)
		if err != nil {
			logger.Warnw("worker_notification_fetch_refund_failed", "refund_id", payload.RefundID, "error", err)
			return err
		}
		if refund != nil {
			kv = append(kv, "refund_id", refund.RefundID, "refund_status", refund.Status)
		}
	}

	logger.Infow("notification_dispatched", kv...)
	return nil
}

func (c *Consumer) handleOrderPaymentTimeout(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_payment_timeout_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderPaymentTimeoutPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_payment_timeout_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_payment_timeout_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	if c.OrderService == nil {
		logger.Warnw("worker_payment_timeout_skip_order_service_nil", "order_id", payload.OrderID)
		return nil
	}
	// 非 pending 的订单在服务层静默跳过，这里只需要处理真实错误
	if err := c.OrderService.CancelExpiredOrder(payload.OrderID); err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			logger.Debugw("worker_payment_timeout_skip_invalid_order", "order_id", payload.OrderID)
			return nil
		}
		logger.Warnw("worker_payment_timeout_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	return nil
}
