//go:build integration
// +build integration

package repository

import (
	"os"
	"strings"
	"testing"

	"github.com/vendora-next/internal/constants"
	"github.com/vendora-next/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("VENDORA_TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: VENDORA_TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	cleanupModels := []interface{}{
		&models.Refund{},
		&models.Payment{},
		&models.OrderItem{},
		&models.Order{},
		&models.Product{},
	}
	_ = db.Migrator().DropTable(cleanupModels...)

	if err := db.AutoMigrate(
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
		&models.Refund{},
	); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Migrator().DropTable(cleanupModels...)
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func TestPostgresOrderNumberSearchIsCaseInsensitive(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewOrderRepository(db)

	order := &models.Order{
		OrderNumber:       "ORD-20260801-ABC123",
		UserID:            1,
		Status:            constants.OrderStatusPending,
		Currency:          "USD",
		Subtotal:          models.NewMoneyFromDecimal(decimal.NewFromInt(40)),
		TotalAmount:       models.NewMoneyFromDecimal(decimal.NewFromInt(40)),
		ShippingAddressID: 1,
	}
	items := []models.OrderItem{{
		ProductID:   1,
		ProductName: "Ceramic Mug",
		ProductSKU:  "MUG-010",
		UnitPrice:   models.NewMoneyFromDecimal(decimal.NewFromFloat(12.50)),
		Quantity:    2,
		TotalPrice:  models.NewMoneyFromDecimal(decimal.NewFromInt(25)),
	}}
	if err := repo.Create(order, items); err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	// postgres 走 ILIKE，小写搜索也要命中
	rows, total, err := repo.ListByUser(OrderListFilter{
		Page:        1,
		UserID:      1,
		OrderNumber: "abc123",
	})
	if err != nil {
		t.Fatalf("list orders failed: %v", err)
	}
	if total != 1 || len(rows) != 1 {
		t.Fatalf("order search want 1 got total=%d len=%d", total, len(rows))
	}
	if rows[0].OrderNumber != order.OrderNumber {
		t.Fatalf("order number want %s got %s", order.OrderNumber, rows[0].OrderNumber)
	}
	if len(rows[0].Items) != 1 {
		t.Fatalf("order items want 1 got %d", len(rows[0].Items))
	}
}

func TestPostgresPaymentAndRefundFilters(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	orderRepo := NewOrderRepository(db)
	paymentRepo := NewPaymentRepository(db)
	refundRepo := NewRefundRepository(db)

	order := &models.Order{
		OrderNumber:       "ORD-20260801-PGPAY1",
		UserID:            2,
		Status:            constants.OrderStatusConfirmed,
		Currency:          "USD",
		Subtotal:          models.NewMoneyFromDecimal(decimal.NewFromInt(80)),
		TotalAmount:       models.NewMoneyFromDecimal(decimal.NewFromInt(80)),
		ShippingAddressID: 1,
	}
	if err := orderRepo.Create(order, nil); err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	payment := &models.Payment{
		PaymentID: "PAY-PG000001",
		OrderID:   order.ID,
		UserID:    2,
		Amount:    models.NewMoneyFromDecimal(decimal.NewFromInt(80)),
		Currency:  "USD",
		Status:    constants.PaymentStatusCompleted,
	}
	if err := paymentRepo.Create(payment); err != nil {
		t.Fatalf("create payment failed: %v", err)
	}

	refund := &models.Refund{
		RefundID:  "REF-PG000001",
		PaymentID: payment.ID,
		OrderID:   order.ID,
		UserID:    2,
		Amount:    models.NewMoneyFromDecimal(decimal.NewFromInt(30)),
		Currency:  "USD",
		Status:    constants.RefundStatusPending,
		Reason:    "damaged item",
	}
	if err := refundRepo.Create(refund); err != nil {
		t.Fatalf("create refund failed: %v", err)
	}

	payRows, payTotal, err := paymentRepo.List(PaymentListFilter{
		Page:   1,
		UserID: 2,
		Status: constants.PaymentStatusCompleted,
	})
	if err != nil {
		t.Fatalf("list payments failed: %v", err)
	}
	if payTotal != 1 || len(payRows) != 1 {
		t.Fatalf("payment list want 1 got total=%d len=%d", payTotal, len(payRows))
	}
	if payRows[0].PaymentID != payment.PaymentID {
		t.Fatalf("payment id want %s got %s", payment.PaymentID, payRows[0].PaymentID)
	}

	refundRows, refundTotal, err := refundRepo.List(RefundListFilter{
		Page:      1,
		PaymentID: payment.ID,
	})
	if err != nil {
		t.Fatalf("list refunds failed: %v", err)
	}
	if refundTotal != 1 || len(refundRows) != 1 {
		t.Fatalf("refund list want 1 got total=%d len=%d", refundTotal, len(refundRows))
	}
	if refundRows[0].RefundID != refund.RefundID {
		t.Fatalf("refund id want %s got %s", refund.RefundID, refundRows[0].RefundID)
	}
}
