package service

import (
	"time"

	"github.com/vendora-next/internal/constants"
	"github.com/vendora-next/internal/logger"
	"github.com/vendora-next/internal/models"
	"github.com/vendora-next/internal/repository"

	"gorm.io/gorm"
)

// allowedTransitions 订单状态机。refunded 不在此表内，
// 只能由退款台账在全额退款完成时落入
var allowedTransitions = map[string][]string{
	constants.OrderStatusPending:    {constants.OrderStatusConfirmed, constants.OrderStatusCancelled},
	constants.OrderStatusConfirmed:  {constants.OrderStatusProcessing, constants.OrderStatusCancelled},
	constants.OrderStatusProcessing: {constants.OrderStatusShipped},
	constants.OrderStatusShipped:    {constants.OrderStatusDelivered},
}

// transitionAllowed 判断状态迁移是否合法
func transitionAllowed(from, to string) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// OrderService 订单查询、取消与状态推进
type OrderService struct {
	db            *gorm.DB
	orderRepo     repository.OrderRepository
	paymentRepo   repository.PaymentRepository
	notifications *NotificationService
}

// NewOrderService 创建订单服务
func NewOrderService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	paymentRepo repository.PaymentRepository,
	notifications *NotificationService,
) *OrderService {
	return &OrderService{
		db:            db,
		orderRepo:     orderRepo,
		paymentRepo:   paymentRepo,
		notifications: notifications,
	}
}

// GetByID 获取用户订单详情
func (s *OrderService) GetByID(userID, orderID uint) (*models.Order, error) {
	if userID == 0 || orderID == 0 {
		return nil, ErrInvalidInput
	}
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetByNumber 按订单号获取用户订单详情
func (s *OrderService) GetByNumber(userID uint, orderNumber string) (*models.Order, error) {
	if userID == 0 || orderNumber == "" {
		return nil, ErrInvalidInput
	}
	order, err := s.orderRepo.GetByNumberAndUser(orderNumber, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// List 获取用户订单列表
func (s *OrderService) List(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	if filter.UserID == 0 {
		return nil, 0, ErrInvalidInput
	}
	return s.orderRepo.ListByUser(filter)
}

// Cancel 用户取消订单。只允许 pending/confirmed，
// 重复取消返回 ErrOrderCancelled（调用方可视为无害）。
// 关联的未完成支付一并置为 cancelled。
func (s *OrderService) Cancel(userID, orderID uint) (*models.Order, error) {
	if userID == 0 || orderID == 0 {
		return nil, ErrInvalidInput
	}

	var order *models.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		var err error
		order, err = orderRepo.GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if order == nil || order.UserID != userID {
			return ErrOrderNotFound
		}
		if order.Status == constants.OrderStatusCancelled {
			return ErrOrderCancelled
		}
		if order.Status != constants.OrderStatusPending && order.Status != constants.OrderStatusConfirmed {
			return ErrOrderNotCancellable
		}
		return s.cancelLocked(tx, order)
	})
	if err != nil {
		return nil, err
	}

	s.notifications.NotifyOrderEvent(constants.NotificationEventOrderCancelled, order)
	return order, nil
}

// AdvanceStatus 员工推进订单状态。shipped 时可带物流单号
func (s *OrderService) AdvanceStatus(orderID uint, target, trackingNumber string) (*models.Order, error) {
	if orderID == 0 || target == "" {
		return nil, ErrInvalidInput
	}

	var order *models.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		var err error
		order, err = orderRepo.GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if !transitionAllowed(order.Status, target) {
			return ErrInvalidTransition
		}

		now := time.Now()
		updates := map[string]interface{}{"updated_at": now}
		switch target {
		case constants.OrderStatusConfirmed:
			updates["confirmed_at"] = now
			order.ConfirmedAt = &now
		case constants.OrderStatusShipped:
			updates["shipped_at"] = now
			order.ShippedAt = &now
			if trackingNumber != "" {
				updates["tracking_number"] = trackingNumber
				order.TrackingNumber = trackingNumber
			}
		case constants.OrderStatusDelivered:
			updates["delivered_at"] = now
			order.DeliveredAt = &now
		case constants.OrderStatusCancelled:
			updates["cancelled_at"] = now
			order.CancelledAt = &now
		}
		if err := orderRepo.UpdateStatus(order.ID, target, updates); err != nil {
			return err
		}
		order.Status = target
		return nil
	})
	if err != nil {
		return nil, err
	}

	switch target {
	case constants.OrderStatusConfirmed:
		s.notifications.NotifyOrderEvent(constants.NotificationEventOrderConfirmed, order)
	case constants.OrderStatusShipped:
		s.notifications.NotifyOrderEvent(constants.NotificationEventOrderShipped, order)
	case constants.OrderStatusDelivered:
		s.notifications.NotifyOrderEvent(constants.NotificationEventOrderDelivered, order)
	case constants.OrderStatusCancelled:
		s.notifications.NotifyOrderEvent(constants.NotificationEventOrderCancelled, order)
	}
	return order, nil
}

// CancelExpiredOrder 支付超时取消（队列任务调用）。
// 仅处理仍为 pending 的订单；支付已进入 processing 的订单
// 结果未知，留给回调或人工处理
func (s *OrderService) CancelExpiredOrder(orderID uint) error {
	if orderID == 0 {
		return ErrInvalidInput
	}

	var order *models.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		paymentRepo := s.paymentRepo.WithTx(tx)
		var err error
		order, err = orderRepo.GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if order == nil || order.Status != constants.OrderStatusPending {
			order = nil
			return nil
		}
		payment, err := paymentRepo.GetByOrderID(order.ID)
		if err != nil {
			return err
		}
		if payment != nil && payment.Status != constants.PaymentStatusPending &&
			payment.Status != constants.PaymentStatusFailed {
			logger.Infow("payment_timeout_skip",
				"order_id", order.ID,
				"payment_status", payment.Status,
			)
			order = nil
			return nil
		}
		return s.cancelLocked(tx, order)
	})
	if err != nil {
		return err
	}

	if order != nil {
		logger.Infow("order_payment_timeout_cancelled", "order_id", order.ID)
		s.notifications.NotifyOrderEvent(constants.NotificationEventOrderCancelled, order)
	}
	return nil
}

// CancelExpiredOrders 批量兜底：扫描超过时限仍未支付的订单并取消。
// 单个失败不阻断其余订单
func (s *OrderService) CancelExpiredOrders(olderThan time.Duration, limit int) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	orders, err := s.orderRepo.ListByStatusBefore(constants.OrderStatusPending, cutoff, limit)
	if err != nil {
		return 0, err
	}
	cancelled := 0
	for _, order := range orders {
		if err := s.CancelExpiredOrder(order.ID); err != nil {
			logger.Warnw("expired_order_cancel_failed", "order_id", order.ID, "error", err)
			continue
		}
		cancelled++
	}
	return cancelled, nil
}

// cancelLocked 在持有订单行锁的事务内执行取消
func (s *OrderService) cancelLocked(tx *gorm.DB, order *models.Order) error {
	now := time.Now()
	orderRepo := s.orderRepo.WithTx(tx)
	paymentRepo := s.paymentRepo.WithTx(tx)

	if err := orderRepo.UpdateStatus(order.ID, constants.OrderStatusCancelled, map[string]interface{}{
		"cancelled_at": now,
		"updated_at":   now,
	}); err != nil {
		return err
	}
	order.Status = constants.OrderStatusCancelled
	order.CancelledAt = &now

	payment, err := paymentRepo.GetByOrderID(order.ID)
	if err != nil {
		return err
	}
	if payment != nil && payment.Status == constants.PaymentStatusPending {
		if err := paymentRepo.UpdateFields(payment.ID, map[string]interface{}{
			"status":     constants.PaymentStatusCancelled,
			"updated_at": now,
		}); err != nil {
			return err
		}
	}
	return nil
}
