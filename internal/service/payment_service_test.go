package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"

	"github.com/vendora-next/internal/constants"
	"github.com/vendora-next/internal/gateway"
	"github.com/vendora-next/internal/models"
	"github.com/vendora-next/internal/repository"

	"gorm.io/gorm"
)

// stubGateway 可编排结果的网关替身
type stubGateway struct {
	chargeResult *gateway.ChargeResult
	chargeErr    error
	refundResult *gateway.RefundResult
	refundErr    error
	chargeCalls  int
	secret       string
}

func (g *stubGateway) Charge(ctx context.Context, req gateway.ChargeRequest) (*gateway.ChargeResult, error) {
	g.chargeCalls++
	if g.chargeErr != nil {
		return nil, g.chargeErr
	}
	if g.chargeResult != nil {
		return g.chargeResult, nil
	}
	return &gateway.ChargeResult{Success: true, GatewayTxnID: "stub-txn-1", Method: "card"}, nil
}

func (g *stubGateway) Refund(ctx context.Context, req gateway.RefundRequest) (*gateway.RefundResult, error) {
	if g.refundErr != nil {
		return nil, g.refundErr
	}
	if g.refundResult != nil {
		return g.refundResult, nil
	}
	return &gateway.RefundResult{Success: true, GatewayRef: "stub-ref-1"}, nil
}

func (g *stubGateway) VerifyWebhook(payload []byte, signature string) bool {
	if g.secret == "" {
		return true
	}
	mac := hmac.New(sha256.New, []byte(g.secret))
	mac.Write(payload)
	return hmac.Equal([]byte(hex.EncodeToString(mac.Sum(nil))), []byte(signature))
}

func newPaymentService(t *testing.T, db *gorm.DB, gw gateway.Gateway) *PaymentService {
	t.Helper()
	return NewPaymentService(
		db,
		repository.NewPaymentRepository(db),
		repository.NewRefundRepository(db),
		repository.NewOrderRepository(db),
		gw,
		NewNotificationService(nil),
		2,
	)
}

func seedCompletedPayment(t *testing.T, db *gorm.DB, userID, orderID uint, amount string) *models.Payment {
	t.Helper()
	payment := &models.Payment{
		PaymentID:    newPaymentID(),
		OrderID:      orderID,
		UserID:       userID,
		Amount:       mustMoney(t, amount),
		Currency:     "USD",
		Status:       constants.PaymentStatusCompleted,
		GatewayTxnID: "txn-" + newPaymentID(),
	}
	if err := db.Create(payment).Error; err != nil {
		t.Fatalf("seed payment failed: %v", err)
	}
	return payment
}

func TestInitiatePaymentIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := newPaymentService(t, db, &stubGateway{})
	user := seedUser(t, db)
	order := seedOrder(t, db, user.ID, constants.OrderStatusPending)

	first, err := svc.InitiatePayment(context.Background(), user.ID, order.ID)
	if err != nil {
		t.Fatalf("initiate failed: %v", err)
	}
	if first.Status != constants.PaymentStatusPending {
		t.Fatalf("status want pending got %s", first.Status)
	}
	if got := first.Amount.String(); got != order.TotalAmount.String() {
		t.Fatalf("amount want %s got %s", order.TotalAmount.String(), got)
	}

	second, err := svc.InitiatePayment(context.Background(), user.ID, order.ID)
	if err != nil {
		t.Fatalf("repeat initiate failed: %v", err)
	}
	if second.PaymentID != first.PaymentID {
		t.Fatalf("repeat initiate must reuse payment: %s vs %s", second.PaymentID, first.PaymentID)
	}

	var count int64
	if err := db.Model(&models.Payment{}).Where("order_id = ?", order.ID).Count(&count).Error; err != nil {
		t.Fatalf("count payments failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("payments want 1 got %d", count)
	}
}

func TestInitiatePaymentRejectedWhileProcessing(t *testing.T) {
	db := newTestDB(t)
	gw := &stubGateway{chargeErr: fmt.Errorf("%w: context deadline exceeded", gateway.ErrGatewayTimeout)}
	svc := newPaymentService(t, db, gw)
	user := seedUser(t, db)
	order := seedOrder(t, db, user.ID, constants.OrderStatusPending)

	payment, err := svc.InitiatePayment(context.Background(), user.ID, order.ID)
	if err != nil {
		t.Fatalf("initiate failed: %v", err)
	}
	// 网关超时把支付留在 processing，结果未知时不许重新发起
	if _, err := svc.ProcessPayment(context.Background(), user.ID, payment.PaymentID); !errors.Is(err, ErrGatewayUnavailable) {
		t.Fatalf("want ErrGatewayUnavailable got %v", err)
	}
	if _, err := svc.InitiatePayment(context.Background(), user.ID, order.ID); !errors.Is(err, ErrPaymentExists) {
		t.Fatalf("want ErrPaymentExists got %v", err)
	}
}

func TestInitiatePaymentCancelledOrder(t *testing.T) {
	db := newTestDB(t)
	svc := newPaymentService(t, db, &stubGateway{})
	user := seedUser(t, db)
	order := seedOrder(t, db, user.ID, constants.OrderStatusCancelled)

	_, err := svc.InitiatePayment(context.Background(), user.ID, order.ID)
	if !errors.Is(err, ErrOrderCancelled) {
		t.Fatalf("want ErrOrderCancelled got %v", err)
	}
}

func TestProcessPaymentSuccessConfirmsOrder(t *testing.T) {
	db := newTestDB(t)
	svc := newPaymentService(t, db, &stubGateway{})
	user := seedUser(t, db)
	order := seedOrder(t, db, user.ID, constants.OrderStatusPending)

	payment, err := svc.InitiatePayment(context.Background(), user.ID, order.ID)
	if err != nil {
		t.Fatalf("initiate failed: %v", err)
	}
	processed, err := svc.ProcessPayment(context.Background(), user.ID, payment.PaymentID)
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}

	if processed.Status != constants.PaymentStatusCompleted {
		t.Fatalf("payment status want completed got %s", processed.Status)
	}
	if processed.GatewayTxnID != "stub-txn-1" || processed.Method != "card" {
		t.Fatalf("gateway fields not recorded: %+v", processed)
	}
	if processed.ProcessedAt == nil {
		t.Fatalf("processed_at not set")
	}

	var reloadedOrder models.Order
	if err := db.First(&reloadedOrder, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloadedOrder.Status != constants.OrderStatusConfirmed {
		t.Fatalf("order status want confirmed got %s", reloadedOrder.Status)
	}
	if reloadedOrder.ConfirmedAt == nil {
		t.Fatalf("confirmed_at not set")
	}
}

func TestProcessPaymentDeclined(t *testing.T) {
	db := newTestDB(t)
	gw := &stubGateway{chargeResult: &gateway.ChargeResult{Success: false, Reason: "card_declined"}}
	svc := newPaymentService(t, db, gw)
	user := seedUser(t, db)
	order := seedOrder(t, db, user.ID, constants.OrderStatusPending)

	payment, err := svc.InitiatePayment(context.Background(), user.ID, order.ID)
	if err != nil {
		t.Fatalf("initiate failed: %v", err)
	}
	processed, err := svc.ProcessPayment(context.Background(), user.ID, payment.PaymentID)
	if err != nil {
		t.Fatalf("explicit decline must not be an error: %v", err)
	}
	if processed.Status != constants.PaymentStatusFailed {
		t.Fatalf("payment status want failed got %s", processed.Status)
	}
	if processed.FailureReason != "card_declined" {
		t.Fatalf("failure reason want card_declined got %s", processed.FailureReason)
	}

	var reloadedOrder models.Order
	if err := db.First(&reloadedOrder, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloadedOrder.Status != constants.OrderStatusPending {
		t.Fatalf("declined charge must leave order pending, got %s", reloadedOrder.Status)
	}

	// 失败后可重试
	retried, err := svc.InitiatePayment(context.Background(), user.ID, order.ID)
	if err != nil {
		t.Fatalf("re-initiate after failure failed: %v", err)
	}
	if retried.Status != constants.PaymentStatusPending {
		t.Fatalf("retried payment want pending got %s", retried.Status)
	}
}

func TestProcessPaymentTimeoutLeavesProcessing(t *testing.T) {
	db := newTestDB(t)
	gw := &stubGateway{chargeErr: fmt.Errorf("%w: context deadline exceeded", gateway.ErrGatewayTimeout)}
	svc := newPaymentService(t, db, gw)
	user := seedUser(t, db)
	order := seedOrder(t, db, user.ID, constants.OrderStatusPending)

	payment, err := svc.InitiatePayment(context.Background(), user.ID, order.ID)
	if err != nil {
		t.Fatalf("initiate failed: %v", err)
	}
	processed, err := svc.ProcessPayment(context.Background(), user.ID, payment.PaymentID)
	if !errors.Is(err, ErrGatewayUnavailable) {
		t.Fatalf("want ErrGatewayUnavailable got %v", err)
	}
	if processed == nil || processed.Status != constants.PaymentStatusProcessing {
		t.Fatalf("timeout must leave payment processing: %+v", processed)
	}
	if gw.chargeCalls != 1 {
		t.Fatalf("timeout must not be retried, calls=%d", gw.chargeCalls)
	}
}

func TestProcessPaymentRetriesTransientFailure(t *testing.T) {
	db := newTestDB(t)
	gw := &stubGateway{chargeErr: gateway.ErrRequestFailed}
	svc := newPaymentService(t, db, gw)
	user := seedUser(t, db)
	order := seedOrder(t, db, user.ID, constants.OrderStatusPending)

	payment, err := svc.InitiatePayment(context.Background(), user.ID, order.ID)
	if err != nil {
		t.Fatalf("initiate failed: %v", err)
	}
	_, err = svc.ProcessPayment(context.Background(), user.ID, payment.PaymentID)
	if !errors.Is(err, ErrGatewayUnavailable) {
		t.Fatalf("want ErrGatewayUnavailable got %v", err)
	}
	// maxRetries=2 → 1 次原始请求 + 2 次重试
	if gw.chargeCalls != 3 {
		t.Fatalf("charge calls want 3 got %d", gw.chargeCalls)
	}
}

func TestWebhookCompletesPayment(t *testing.T) {
	db := newTestDB(t)
	gw := &stubGateway{secret: "whsec"}
	svc := newPaymentService(t, db, gw)
	user := seedUser(t, db)
	order := seedOrder(t, db, user.ID, constants.OrderStatusPending)

	payment, err := svc.InitiatePayment(context.Background(), user.ID, order.ID)
	if err != nil {
		t.Fatalf("initiate failed: %v", err)
	}

	payload := []byte(fmt.Sprintf(
		`{"type":"charge","payment_id":%q,"status":"completed","transaction_id":"txn-web-1","method":"card"}`,
		payment.PaymentID,
	))
	mac := hmac.New(sha256.New, []byte("whsec"))
	mac.Write(payload)
	signature := hex.EncodeToString(mac.Sum(nil))

	if err := svc.HandleWebhook(context.Background(), payload, signature); err != nil {
		t.Fatalf("webhook failed: %v", err)
	}

	var reloaded models.Payment
	if err := db.First(&reloaded, payment.ID).Error; err != nil {
		t.Fatalf("reload payment failed: %v", err)
	}
	if reloaded.Status != constants.PaymentStatusCompleted {
		t.Fatalf("payment status want completed got %s", reloaded.Status)
	}
	if reloaded.GatewayTxnID != "txn-web-1" {
		t.Fatalf("gateway_txn_id want txn-web-1 got %s", reloaded.GatewayTxnID)
	}

	var reloadedOrder models.Order
	if err := db.First(&reloadedOrder, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloadedOrder.Status != constants.OrderStatusConfirmed {
		t.Fatalf("order status want confirmed got %s", reloadedOrder.Status)
	}

	// 重复回调幂等
	if err := svc.HandleWebhook(context.Background(), payload, signature); err != nil {
		t.Fatalf("duplicate webhook must be benign: %v", err)
	}
}

func TestWebhookBadSignature(t *testing.T) {
	db := newTestDB(t)
	svc := newPaymentService(t, db, &stubGateway{secret: "whsec"})

	err := svc.HandleWebhook(context.Background(), []byte(`{}`), "bad")
	if !errors.Is(err, ErrWebhookSignature) {
		t.Fatalf("want ErrWebhookSignature got %v", err)
	}
}

func TestRefundPartialThenFull(t *testing.T) {
	db := newTestDB(t)
	svc := newPaymentService(t, db, &stubGateway{})
	user := seedUser(t, db)
	order := seedOrder(t, db, user.ID, constants.OrderStatusConfirmed)
	payment := seedCompletedPayment(t, db, user.ID, order.ID, "100.00")

	first, err := svc.RequestRefund(context.Background(), RefundInput{
		UserID:    user.ID,
		PaymentID: payment.PaymentID,
		Amount:    mustMoney(t, "40.00"),
		Reason:    "damaged item",
	})
	if err != nil {
		t.Fatalf("request first refund failed: %v", err)
	}
	if _, err := svc.ProcessRefund(context.Background(), first.RefundID); err != nil {
		t.Fatalf("process first refund failed: %v", err)
	}

	var reloaded models.Payment
	if err := db.First(&reloaded, payment.ID).Error; err != nil {
		t.Fatalf("reload payment failed: %v", err)
	}
	if reloaded.Status != constants.PaymentStatusPartiallyRefunded {
		t.Fatalf("after 40/100 want partially_refunded got %s", reloaded.Status)
	}
	if got := reloaded.RefundAmount.String(); got != "40.00" {
		t.Fatalf("refund_amount want 40.00 got %s", got)
	}

	second, err := svc.RequestRefund(context.Background(), RefundInput{
		UserID:    user.ID,
		PaymentID: payment.PaymentID,
		Amount:    mustMoney(t, "60.00"),
	})
	if err != nil {
		t.Fatalf("request second refund failed: %v", err)
	}
	if _, err := svc.ProcessRefund(context.Background(), second.RefundID); err != nil {
		t.Fatalf("process second refund failed: %v", err)
	}

	if err := db.First(&reloaded, payment.ID).Error; err != nil {
		t.Fatalf("reload payment failed: %v", err)
	}
	if reloaded.Status != constants.PaymentStatusRefunded {
		t.Fatalf("after full refund want refunded got %s", reloaded.Status)
	}
	if got := reloaded.RefundAmount.String(); got != "100.00" {
		t.Fatalf("refund_amount want 100.00 got %s", got)
	}

	var reloadedOrder models.Order
	if err := db.First(&reloadedOrder, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloadedOrder.Status != constants.OrderStatusRefunded {
		t.Fatalf("order status want refunded got %s", reloadedOrder.Status)
	}
}

func TestRefundExceedsBalance(t *testing.T) {
	db := newTestDB(t)
	svc := newPaymentService(t, db, &stubGateway{})
	user := seedUser(t, db)
	order := seedOrder(t, db, user.ID, constants.OrderStatusConfirmed)
	payment := seedCompletedPayment(t, db, user.ID, order.ID, "50.00")

	_, err := svc.RequestRefund(context.Background(), RefundInput{
		UserID:    user.ID,
		PaymentID: payment.PaymentID,
		Amount:    mustMoney(t, "60.00"),
	})
	if !errors.Is(err, ErrRefundExceedsBalance) {
		t.Fatalf("want ErrRefundExceedsBalance got %v", err)
	}
}

func TestRefundPendingPaymentRejected(t *testing.T) {
	db := newTestDB(t)
	svc := newPaymentService(t, db, &stubGateway{})
	user := seedUser(t, db)
	order := seedOrder(t, db, user.ID, constants.OrderStatusPending)

	payment, err := svc.InitiatePayment(context.Background(), user.ID, order.ID)
	if err != nil {
		t.Fatalf("initiate failed: %v", err)
	}
	_, err = svc.RequestRefund(context.Background(), RefundInput{
		UserID:    user.ID,
		PaymentID: payment.PaymentID,
		Amount:    mustMoney(t, "10.00"),
	})
	if !errors.Is(err, ErrPaymentNotRefundable) {
		t.Fatalf("want ErrPaymentNotRefundable got %v", err)
	}
}

func TestRefundDeclinedByGateway(t *testing.T) {
	db := newTestDB(t)
	gw := &stubGateway{refundResult: &gateway.RefundResult{Success: false, Reason: "window_closed"}}
	svc := newPaymentService(t, db, gw)
	user := seedUser(t, db)
	order := seedOrder(t, db, user.ID, constants.OrderStatusConfirmed)
	payment := seedCompletedPayment(t, db, user.ID, order.ID, "50.00")

	refund, err := svc.RequestRefund(context.Background(), RefundInput{
		UserID:    user.ID,
		PaymentID: payment.PaymentID,
		Amount:    mustMoney(t, "20.00"),
	})
	if err != nil {
		t.Fatalf("request refund failed: %v", err)
	}
	processed, err := svc.ProcessRefund(context.Background(), refund.RefundID)
	if err != nil {
		t.Fatalf("declined refund must not be an error: %v", err)
	}
	if processed.Status != constants.RefundStatusFailed {
		t.Fatalf("refund status want failed got %s", processed.Status)
	}

	// 失败的退款不占可退余额
	var reloaded models.Payment
	if err := db.First(&reloaded, payment.ID).Error; err != nil {
		t.Fatalf("reload payment failed: %v", err)
	}
	if reloaded.Status != constants.PaymentStatusCompleted {
		t.Fatalf("payment must stay completed, got %s", reloaded.Status)
	}
	if got := reloaded.RefundAmount.String(); got != "0.00" {
		t.Fatalf("refund_amount want 0.00 got %s", got)
	}
}

func TestCancelRefundPendingOnly(t *testing.T) {
	db := newTestDB(t)
	svc := newPaymentService(t, db, &stubGateway{})
	user := seedUser(t, db)
	order := seedOrder(t, db, user.ID, constants.OrderStatusConfirmed)
	payment := seedCompletedPayment(t, db, user.ID, order.ID, "50.00")

	refund, err := svc.RequestRefund(context.Background(), RefundInput{
		UserID:    user.ID,
		PaymentID: payment.PaymentID,
		Amount:    mustMoney(t, "20.00"),
	})
	if err != nil {
		t.Fatalf("request refund failed: %v", err)
	}
	if err := svc.CancelRefund(user.ID, refund.RefundID); err != nil {
		t.Fatalf("cancel refund failed: %v", err)
	}
	if err := svc.CancelRefund(user.ID, refund.RefundID); !errors.Is(err, ErrRefundNotPending) {
		t.Fatalf("repeat cancel want ErrRefundNotPending got %v", err)
	}
}
