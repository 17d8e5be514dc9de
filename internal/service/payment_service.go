package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/vendora-next/internal/constants"
	"github.com/vendora-next/internal/gateway"
	"github.com/vendora-next/internal/logger"
	"github.com/vendora-next/internal/models"
	"github.com/vendora-next/internal/repository"

	"gorm.io/gorm"
)

// 网关临时故障的重试间隔
const gatewayRetryDelay = 200 * time.Millisecond

// RefundInput 退款申请输入
type RefundInput struct {
	UserID    uint
	PaymentID string // 支付单号（PAY-XXXXXXXX）
	Amount    models.Money
	Reason    string
}

// PaymentService 支付与退款台账。
// 网关调用返回 error 表示结果未知，支付停在 processing 等回调裁决；
// 网关明确拒绝（Success=false）才落 failed。
type PaymentService struct {
	db            *gorm.DB
	paymentRepo   repository.PaymentRepository
	refundRepo    repository.RefundRepository
	orderRepo     repository.OrderRepository
	gw            gateway.Gateway
	notifications *NotificationService
	maxRetries    int
}

// NewPaymentService 创建支付服务
func NewPaymentService(
	db *gorm.DB,
	paymentRepo repository.PaymentRepository,
	refundRepo repository.RefundRepository,
	orderRepo repository.OrderRepository,
	gw gateway.Gateway,
	notifications *NotificationService,
	maxRetries int,
) *PaymentService {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &PaymentService{
		db:            db,
		paymentRepo:   paymentRepo,
		refundRepo:    refundRepo,
		orderRepo:     orderRepo,
		gw:            gw,
		notifications: notifications,
		maxRetries:    maxRetries,
	}
}

// InitiatePayment 为待支付订单创建支付单。订单与支付一一对应：
// 已有 pending 支付直接复用；failed/cancelled 的重置回 pending 重试
func (s *PaymentService) InitiatePayment(ctx context.Context, userID, orderID uint) (*models.Payment, error) {
	if userID == 0 || orderID == 0 {
		return nil, ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var payment *models.Payment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		paymentRepo := s.paymentRepo.WithTx(tx)

		order, err := orderRepo.GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if order == nil || order.UserID != userID {
			return ErrOrderNotFound
		}
		if order.Status == constants.OrderStatusCancelled {
			return ErrOrderCancelled
		}
		if order.Status != constants.OrderStatusPending {
			return ErrAlreadyProcessed
		}

		existing, err := paymentRepo.GetByOrderID(order.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			switch existing.Status {
			case constants.PaymentStatusPending:
				payment = existing
				return nil
			case constants.PaymentStatusFailed, constants.PaymentStatusCancelled:
				now := time.Now()
				if err := paymentRepo.UpdateFields(existing.ID, map[string]interface{}{
					"status":         constants.PaymentStatusPending,
					"failure_reason": "",
					"updated_at":     now,
				}); err != nil {
					return err
				}
				existing.Status = constants.PaymentStatusPending
				existing.FailureReason = ""
				payment = existing
				return nil
			default:
				// processing/completed/refunded 的支付不可重复发起
				return ErrPaymentExists
			}
		}

		now := time.Now()
		payment = &models.Payment{
			PaymentID: newPaymentID(),
			OrderID:   order.ID,
			UserID:    order.UserID,
			Amount:    order.TotalAmount,
			Currency:  order.Currency,
			Status:    constants.PaymentStatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return paymentRepo.Create(payment)
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// ProcessPayment 执行扣款。先把支付置为 processing 占位，
// 再调网关：明确拒绝落 failed；超时或结果未知停在 processing；
// 成功则支付 completed、订单 pending → confirmed
func (s *PaymentService) ProcessPayment(ctx context.Context, userID uint, paymentID string) (*models.Payment, error) {
	if userID == 0 || paymentID == "" {
		return nil, ErrInvalidInput
	}

	var payment *models.Payment
	var order *models.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		paymentRepo := s.paymentRepo.WithTx(tx)
		orderRepo := s.orderRepo.WithTx(tx)

		found, err := paymentRepo.GetByPaymentID(paymentID)
		if err != nil {
			return err
		}
		if found == nil || found.UserID != userID {
			return ErrPaymentNotFound
		}
		payment, err = paymentRepo.GetByIDForUpdate(found.ID)
		if err != nil {
			return err
		}
		if payment.Status != constants.PaymentStatusPending {
			return ErrAlreadyProcessed
		}

		order, err = orderRepo.GetByIDForUpdate(payment.OrderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if order.Status == constants.OrderStatusCancelled {
			return ErrOrderCancelled
		}

		now := time.Now()
		if err := paymentRepo.UpdateFields(payment.ID, map[string]interface{}{
			"status":     constants.PaymentStatusProcessing,
			"updated_at": now,
		}); err != nil {
			return err
		}
		payment.Status = constants.PaymentStatusProcessing
		return nil
	})
	if err != nil {
		return nil, err
	}

	result, err := s.chargeWithRetry(ctx, gateway.ChargeRequest{
		PaymentID:   payment.PaymentID,
		OrderNumber: order.OrderNumber,
		Amount:      payment.Amount,
		Currency:    payment.Currency,
	})
	if err != nil {
		// 结果未知，支付停在 processing，等回调或人工对账
		logger.Warnw("gateway_charge_unresolved",
			"payment_id", payment.PaymentID,
			"error", err,
		)
		return payment, ErrGatewayUnavailable
	}

	if !result.Success {
		if err := s.failCharge(payment.ID, result.Reason); err != nil {
			return nil, err
		}
		payment.Status = constants.PaymentStatusFailed
		payment.FailureReason = result.Reason
		s.notifications.NotifyPaymentEvent(constants.NotificationEventPaymentFailed, payment)
		return payment, nil
	}

	if err := s.completeCharge(payment.ID, result.GatewayTxnID, result.Method); err != nil {
		return nil, err
	}
	refreshed, err := s.paymentRepo.GetByID(payment.ID)
	if err != nil {
		return nil, err
	}
	if refreshed != nil {
		payment = refreshed
	}
	s.notifications.NotifyPaymentEvent(constants.NotificationEventPaymentCompleted, payment)
	if order, err := s.orderRepo.GetByID(payment.OrderID); err == nil && order != nil {
		s.notifications.NotifyOrderEvent(constants.NotificationEventOrderConfirmed, order)
	}
	return payment, nil
}

// chargeWithRetry 网关扣款，临时故障时有限重试。
// 超时不重试：请求可能已被网关受理，重试会造成重复扣款
func (s *PaymentService) chargeWithRetry(ctx context.Context, req gateway.ChargeRequest) (*gateway.ChargeResult, error) {
	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(gatewayRetryDelay):
			}
		}
		result, err := s.gw.Charge(ctx, req)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if errors.Is(err, gateway.ErrGatewayTimeout) {
			return nil, err
		}
	}
	return nil, lastErr
}

// webhookEvent 网关回调载荷
type webhookEvent struct {
	Type          string `json:"type"` // charge / refund
	PaymentID     string `json:"payment_id"`
	RefundID      string `json:"refund_id"`
	Status        string `json:"status"` // completed / failed
	TransactionID string `json:"transaction_id"`
	GatewayRef    string `json:"gateway_ref"`
	Method        string `json:"method"`
	Reason        string `json:"reason"`
}

// HandleWebhook 处理网关回调。验签失败直接拒绝；
// 重复回调幂等（已完成的支付/退款不再变更）
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if !s.gw.VerifyWebhook(payload, signature) {
		return ErrWebhookSignature
	}

	var event webhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return ErrInvalidInput
	}

	if event.Type == "refund" {
		return s.handleRefundWebhook(event)
	}
	return s.handleChargeWebhook(event)
}

func (s *PaymentService) handleChargeWebhook(event webhookEvent) error {
	payment, err := s.paymentRepo.GetByGatewayTxnID(event.TransactionID)
	if err != nil {
		return err
	}
	if payment == nil && event.PaymentID != "" {
		payment, err = s.paymentRepo.GetByPaymentID(event.PaymentID)
		if err != nil {
			return err
		}
	}
	if payment == nil {
		return ErrPaymentNotFound
	}

	switch event.Status {
	case "completed":
		if payment.Status == constants.PaymentStatusCompleted {
			return nil
		}
		if err := s.completeCharge(payment.ID, event.TransactionID, event.Method); err != nil {
			return err
		}
		if refreshed, err := s.paymentRepo.GetByID(payment.ID); err == nil && refreshed != nil {
			payment = refreshed
		}
		s.notifications.NotifyPaymentEvent(constants.NotificationEventPaymentCompleted, payment)
		if order, err := s.orderRepo.GetByID(payment.OrderID); err == nil && order != nil {
			s.notifications.NotifyOrderEvent(constants.NotificationEventOrderConfirmed, order)
		}
		return nil
	case "failed":
		if payment.Status == constants.PaymentStatusFailed {
			return nil
		}
		if err := s.failCharge(payment.ID, event.Reason); err != nil {
			return err
		}
		payment.Status = constants.PaymentStatusFailed
		s.notifications.NotifyPaymentEvent(constants.NotificationEventPaymentFailed, payment)
		return nil
	default:
		return ErrInvalidInput
	}
}

func (s *PaymentService) handleRefundWebhook(event webhookEvent) error {
	if event.RefundID == "" {
		return ErrInvalidInput
	}
	switch event.Status {
	case "completed":
		return s.CompleteRefund(event.RefundID, event.GatewayRef)
	case "failed":
		return s.FailRefund(event.RefundID, event.Reason)
	default:
		return ErrInvalidInput
	}
}

// completeCharge 支付成功落账：支付 completed，订单 pending → confirmed。
// 已完成的支付直接返回（幂等）
func (s *PaymentService) completeCharge(paymentID uint, gatewayTxnID, method string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		paymentRepo := s.paymentRepo.WithTx(tx)
		orderRepo := s.orderRepo.WithTx(tx)

		payment, err := paymentRepo.GetByIDForUpdate(paymentID)
		if err != nil {
			return err
		}
		if payment == nil {
			return ErrPaymentNotFound
		}
		if payment.Status == constants.PaymentStatusCompleted {
			return nil
		}
		if payment.Status != constants.PaymentStatusPending &&
			payment.Status != constants.PaymentStatusProcessing {
			return ErrAlreadyProcessed
		}

		now := time.Now()
		updates := map[string]interface{}{
			"status":       constants.PaymentStatusCompleted,
			"processed_at": now,
			"updated_at":   now,
		}
		if gatewayTxnID != "" {
			updates["gateway_txn_id"] = gatewayTxnID
		}
		if method != "" {
			updates["method"] = method
		}
		if err := paymentRepo.UpdateFields(payment.ID, updates); err != nil {
			return err
		}

		order, err := orderRepo.GetByIDForUpdate(payment.OrderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if order.Status == constants.OrderStatusPending {
			return orderRepo.UpdateStatus(order.ID, constants.OrderStatusConfirmed, map[string]interface{}{
				"confirmed_at": now,
				"updated_at":   now,
			})
		}
		if order.Status == constants.OrderStatusCancelled {
			// 已取消订单收到扣款成功，记录下来走退款流程
			logger.Warnw("payment_completed_on_cancelled_order",
				"order_id", order.ID,
				"payment_id", payment.PaymentID,
			)
		}
		return nil
	})
}

// failCharge 网关明确拒绝时落 failed
func (s *PaymentService) failCharge(paymentID uint, reason string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		paymentRepo := s.paymentRepo.WithTx(tx)
		payment, err := paymentRepo.GetByIDForUpdate(paymentID)
		if err != nil {
			return err
		}
		if payment == nil {
			return ErrPaymentNotFound
		}
		if payment.Status == constants.PaymentStatusCompleted {
			return ErrAlreadyProcessed
		}
		now := time.Now()
		return paymentRepo.UpdateFields(payment.ID, map[string]interface{}{
			"status":         constants.PaymentStatusFailed,
			"failure_reason": reason,
			"updated_at":     now,
		})
	})
}

// RequestRefund 申请退款。只允许对 completed / partially_refunded 的支付发起，
// 金额不得超过剩余可退余额（含其他在途退款不占额度，以已完成累计为准）
func (s *PaymentService) RequestRefund(ctx context.Context, input RefundInput) (*models.Refund, error) {
	if input.UserID == 0 || input.PaymentID == "" {
		return nil, ErrInvalidInput
	}
	if !input.Amount.Decimal.IsPositive() {
		return nil, ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var refund *models.Refund
	err := s.db.Transaction(func(tx *gorm.DB) error {
		paymentRepo := s.paymentRepo.WithTx(tx)
		refundRepo := s.refundRepo.WithTx(tx)

		found, err := paymentRepo.GetByPaymentID(input.PaymentID)
		if err != nil {
			return err
		}
		if found == nil || found.UserID != input.UserID {
			return ErrPaymentNotFound
		}
		payment, err := paymentRepo.GetByIDForUpdate(found.ID)
		if err != nil {
			return err
		}
		if payment.Status != constants.PaymentStatusCompleted &&
			payment.Status != constants.PaymentStatusPartiallyRefunded {
			return ErrPaymentNotRefundable
		}

		remaining := payment.Amount.Decimal.Sub(payment.RefundAmount.Decimal)
		if input.Amount.Decimal.GreaterThan(remaining) {
			return ErrRefundExceedsBalance
		}

		now := time.Now()
		refund = &models.Refund{
			RefundID:  newRefundID(),
			PaymentID: payment.ID,
			OrderID:   payment.OrderID,
			UserID:    payment.UserID,
			Amount:    input.Amount,
			Currency:  payment.Currency,
			Status:    constants.RefundStatusPending,
			Reason:    input.Reason,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return refundRepo.Create(refund)
	})
	if err != nil {
		return nil, err
	}
	return refund, nil
}

// ProcessRefund 执行退款。先置 processing 占位再调网关，
// 语义与扣款一致：明确拒绝落 failed，结果未知停在 processing
func (s *PaymentService) ProcessRefund(ctx context.Context, refundID string) (*models.Refund, error) {
	if refundID == "" {
		return nil, ErrInvalidInput
	}

	var refund *models.Refund
	var payment *models.Payment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		refundRepo := s.refundRepo.WithTx(tx)
		paymentRepo := s.paymentRepo.WithTx(tx)

		found, err := refundRepo.GetByRefundID(refundID)
		if err != nil {
			return err
		}
		if found == nil {
			return ErrRefundNotFound
		}
		refund, err = refundRepo.GetByIDForUpdate(found.ID)
		if err != nil {
			return err
		}
		if refund.Status != constants.RefundStatusPending {
			return ErrRefundNotPending
		}

		payment, err = paymentRepo.GetByID(refund.PaymentID)
		if err != nil {
			return err
		}
		if payment == nil {
			return ErrPaymentNotFound
		}

		refund.Status = constants.RefundStatusProcessing
		refund.UpdatedAt = time.Now()
		return refundRepo.Update(refund)
	})
	if err != nil {
		return nil, err
	}

	result, err := s.gw.Refund(ctx, gateway.RefundRequest{
		RefundID:     refund.RefundID,
		PaymentID:    payment.PaymentID,
		GatewayTxnID: payment.GatewayTxnID,
		Amount:       refund.Amount,
		Currency:     refund.Currency,
	})
	if err != nil {
		logger.Warnw("gateway_refund_unresolved",
			"refund_id", refund.RefundID,
			"error", err,
		)
		return refund, ErrGatewayUnavailable
	}

	if !result.Success {
		if err := s.FailRefund(refund.RefundID, result.Reason); err != nil {
			return nil, err
		}
		refund.Status = constants.RefundStatusFailed
		return refund, nil
	}

	if err := s.CompleteRefund(refund.RefundID, result.GatewayRef); err != nil {
		return nil, err
	}
	refreshed, err := s.refundRepo.GetByID(refund.ID)
	if err != nil {
		return nil, err
	}
	if refreshed != nil {
		refund = refreshed
	}
	return refund, nil
}

// CompleteRefund 退款完成落账：退款 completed，支付累计已退金额并更新状态，
// 全额退清时订单落 refunded。重复完成幂等
func (s *PaymentService) CompleteRefund(refundID, gatewayRef string) error {
	if refundID == "" {
		return ErrInvalidInput
	}

	var refund *models.Refund
	var fullyRefunded bool
	var order *models.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		refundRepo := s.refundRepo.WithTx(tx)
		paymentRepo := s.paymentRepo.WithTx(tx)
		orderRepo := s.orderRepo.WithTx(tx)

		found, err := refundRepo.GetByRefundID(refundID)
		if err != nil {
			return err
		}
		if found == nil {
			return ErrRefundNotFound
		}
		refund, err = refundRepo.GetByIDForUpdate(found.ID)
		if err != nil {
			return err
		}
		if refund.Status == constants.RefundStatusCompleted {
			return nil
		}
		if refund.Status != constants.RefundStatusPending &&
			refund.Status != constants.RefundStatusProcessing {
			return ErrRefundNotPending
		}

		payment, err := paymentRepo.GetByIDForUpdate(refund.PaymentID)
		if err != nil {
			return err
		}
		if payment == nil {
			return ErrPaymentNotFound
		}

		now := time.Now()
		refund.Status = constants.RefundStatusCompleted
		refund.GatewayRef = gatewayRef
		refund.CompletedAt = &now
		refund.UpdatedAt = now
		if err := refundRepo.Update(refund); err != nil {
			return err
		}

		// 以已完成退款合计为准累计，天然对重复回调免疫
		total, err := refundRepo.SumCompletedByPaymentID(payment.ID)
		if err != nil {
			return err
		}
		status := constants.PaymentStatusPartiallyRefunded
		if total.Decimal.GreaterThanOrEqual(payment.Amount.Decimal) {
			status = constants.PaymentStatusRefunded
			fullyRefunded = true
		}
		if err := paymentRepo.UpdateFields(payment.ID, map[string]interface{}{
			"status":        status,
			"refund_amount": total,
			"updated_at":    now,
		}); err != nil {
			return err
		}

		if fullyRefunded {
			order, err = orderRepo.GetByIDForUpdate(payment.OrderID)
			if err != nil {
				return err
			}
			if order != nil && order.Status != constants.OrderStatusRefunded {
				if err := orderRepo.UpdateStatus(order.ID, constants.OrderStatusRefunded, map[string]interface{}{
					"updated_at": now,
				}); err != nil {
					return err
				}
				order.Status = constants.OrderStatusRefunded
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.notifications.NotifyRefundEvent(constants.NotificationEventRefundCompleted, refund)
	if fullyRefunded && order != nil {
		s.notifications.NotifyOrderEvent(constants.NotificationEventOrderRefunded, order)
	}
	return nil
}

// FailRefund 退款失败落账
func (s *PaymentService) FailRefund(refundID, reason string) error {
	if refundID == "" {
		return ErrInvalidInput
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		refundRepo := s.refundRepo.WithTx(tx)
		found, err := refundRepo.GetByRefundID(refundID)
		if err != nil {
			return err
		}
		if found == nil {
			return ErrRefundNotFound
		}
		refund, err := refundRepo.GetByIDForUpdate(found.ID)
		if err != nil {
			return err
		}
		if refund.Status == constants.RefundStatusFailed {
			return nil
		}
		if refund.Status != constants.RefundStatusPending &&
			refund.Status != constants.RefundStatusProcessing {
			return ErrRefundNotPending
		}
		refund.Status = constants.RefundStatusFailed
		refund.Reason = reason
		refund.UpdatedAt = time.Now()
		return refundRepo.Update(refund)
	})
}

// CancelRefund 用户撤回退款申请，仅限 pending
func (s *PaymentService) CancelRefund(userID uint, refundID string) error {
	if userID == 0 || refundID == "" {
		return ErrInvalidInput
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		refundRepo := s.refundRepo.WithTx(tx)
		found, err := refundRepo.GetByRefundID(refundID)
		if err != nil {
			return err
		}
		if found == nil || found.UserID != userID {
			return ErrRefundNotFound
		}
		refund, err := refundRepo.GetByIDForUpdate(found.ID)
		if err != nil {
			return err
		}
		if refund.Status != constants.RefundStatusPending {
			return ErrRefundNotPending
		}
		refund.Status = constants.RefundStatusCancelled
		refund.UpdatedAt = time.Now()
		return refundRepo.Update(refund)
	})
}

// GetPayment 获取用户支付单详情
func (s *PaymentService) GetPayment(userID uint, paymentID string) (*models.Payment, error) {
	if userID == 0 || paymentID == "" {
		return nil, ErrInvalidInput
	}
	payment, err := s.paymentRepo.GetByPaymentID(paymentID)
	if err != nil {
		return nil, err
	}
	if payment == nil || payment.UserID != userID {
		return nil, ErrPaymentNotFound
	}
	return payment, nil
}

// GetPaymentByOrder 获取订单的支付单
func (s *PaymentService) GetPaymentByOrder(userID, orderID uint) (*models.Payment, error) {
	if userID == 0 || orderID == 0 {
		return nil, ErrInvalidInput
	}
	payment, err := s.paymentRepo.GetByOrderID(orderID)
	if err != nil {
		return nil, err
	}
	if payment == nil || payment.UserID != userID {
		return nil, ErrPaymentNotFound
	}
	return payment, nil
}

// ListPayments 获取支付列表
func (s *PaymentService) ListPayments(filter repository.PaymentListFilter) ([]models.Payment, int64, error) {
	return s.paymentRepo.List(filter)
}

// GetRefund 获取用户退款单详情
func (s *PaymentService) GetRefund(userID uint, refundID string) (*models.Refund, error) {
	if userID == 0 || refundID == "" {
		return nil, ErrInvalidInput
	}
	refund, err := s.refundRepo.GetByRefundID(refundID)
	if err != nil {
		return nil, err
	}
	if refund == nil || refund.UserID != userID {
		return nil, ErrRefundNotFound
	}
	return refund, nil
}

// ListRefunds 获取退款列表
func (s *PaymentService) ListRefunds(filter repository.RefundListFilter) ([]models.Refund, int64, error) {
	return s.refundRepo.List(filter)
}
