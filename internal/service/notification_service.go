package service

import (
	"time"

	"github.com/vendora-next/internal/logger"
	"github.com/vendora-next/internal/models"
	"github.com/vendora-next/internal/queue"
)

// NotificationService 交易事件通知。入队失败只记日志，
// 不把错误传回主流程。
type NotificationService struct {
	queueClient *queue.Client
}

// NewNotificationService 创建通知服务
func NewNotificationService(queueClient *queue.Client) *NotificationService {
	return &NotificationService{queueClient: queueClient}
}

// NotifyOrderEvent 推送订单事件通知
func (s *NotificationService) NotifyOrderEvent(event string, order *models.Order) {
	if s == nil || order == nil {
		return
	}
	err := s.queueClient.EnqueueNotification(queue.NotificationPayload{
		Event:   event,
		UserID:  order.UserID,
		OrderID: order.ID,
	})
	if err != nil {
		logger.Warnw("notification_enqueue_failed",
			"event", event,
			"order_id", order.ID,
			"error", err,
		)
	}
}

// NotifyPaymentEvent 推送支付事件通知
func (s *NotificationService) NotifyPaymentEvent(event string, payment *models.Payment) {
	if s == nil || payment == nil {
		return
	}
	err := s.queueClient.EnqueueNotification(queue.NotificationPayload{
		Event:     event,
		UserID:    payment.UserID,
		OrderID:   payment.OrderID,
		PaymentID: payment.ID,
	})
	if err != nil {
		logger.Warnw("notification_enqueue_failed",
			"event", event,
			"payment_id", payment.PaymentID,
			"error", err,
		)
	}
}

// NotifyRefundEvent 推送退款事件通知
func (s *NotificationService) NotifyRefundEvent(event string, refund *models.Refund) {
	if s == nil || refund == nil {
		return
	}
	err := s.queueClient.EnqueueNotification(queue.NotificationPayload{
		Event:    event,
		UserID:   refund.UserID,
		OrderID:  refund.OrderID,
		RefundID: refund.ID,
	})
	if err != nil {
		logger.Warnw("notification_enqueue_failed",
			"event", event,
			"refund_id", refund.RefundID,
			"error", err,
		)
	}
}

// SchedulePaymentTimeout 排程支付超时取消任务
func (s *NotificationService) SchedulePaymentTimeout(orderID uint, timeout time.Duration) {
	if s == nil || orderID == 0 || timeout <= 0 {
		return
	}
	err := s.queueClient.EnqueueOrderPaymentTimeout(queue.OrderPaymentTimeoutPayload{OrderID: orderID}, timeout)
	if err != nil {
		logger.Warnw("payment_timeout_enqueue_failed",
			"order_id", orderID,
			"error", err,
		)
	}
}
