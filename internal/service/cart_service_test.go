package service

import (
	"errors"
	"testing"

	"github.com/vendora-next/internal/models"
)

func TestCartAddItemMergesSameLine(t *testing.T) {
	db := newTestDB(t)
	svc := newCartService(t, db)
	user := seedUser(t, db)
	product := seedProduct(t, db, "10.00", 10)

	if _, err := svc.AddItem(AddCartItemInput{UserID: user.ID, ProductID: product.ID, Quantity: 2}); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	cart, err := svc.AddItem(AddCartItemInput{UserID: user.ID, ProductID: product.ID, Quantity: 3})
	if err != nil {
		t.Fatalf("second add failed: %v", err)
	}

	if len(cart.Items) != 1 {
		t.Fatalf("items want 1 got %d", len(cart.Items))
	}
	if cart.Items[0].Quantity != 5 {
		t.Fatalf("quantity want 5 got %d", cart.Items[0].Quantity)
	}
	if got := cart.Subtotal.String(); got != "50.00" {
		t.Fatalf("subtotal want 50.00 got %s", got)
	}
}

func TestCartAddItemInsufficientStock(t *testing.T) {
	db := newTestDB(t)
	svc := newCartService(t, db)
	user := seedUser(t, db)
	product := seedProduct(t, db, "10.00", 3)

	if _, err := svc.AddItem(AddCartItemInput{UserID: user.ID, ProductID: product.ID, Quantity: 2}); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	// 合并后 4 > 库存 3
	_, err := svc.AddItem(AddCartItemInput{UserID: user.ID, ProductID: product.ID, Quantity: 2})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("want ErrInsufficientStock got %v", err)
	}
}

func TestCartAddItemInactiveProduct(t *testing.T) {
	db := newTestDB(t)
	svc := newCartService(t, db)
	user := seedUser(t, db)
	product := seedProduct(t, db, "10.00", 10)
	if err := db.Model(product).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate product failed: %v", err)
	}

	_, err := svc.AddItem(AddCartItemInput{UserID: user.ID, ProductID: product.ID, Quantity: 1})
	if !errors.Is(err, ErrProductUnavailable) {
		t.Fatalf("want ErrProductUnavailable got %v", err)
	}
}

func TestCartVariantPriceSnapshot(t *testing.T) {
	db := newTestDB(t)
	svc := newCartService(t, db)
	user := seedUser(t, db)
	product := seedProduct(t, db, "10.00", 10)
	variant := seedVariant(t, db, product.ID, "2.50", 5)

	cart, err := svc.AddItem(AddCartItemInput{
		UserID:    user.ID,
		ProductID: product.ID,
		VariantID: variant.ID,
		Quantity:  2,
	})
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if got := cart.Items[0].UnitPriceSnapshot.String(); got != "12.50" {
		t.Fatalf("unit price want 12.50 got %s", got)
	}
	if got := cart.Subtotal.String(); got != "25.00" {
		t.Fatalf("subtotal want 25.00 got %s", got)
	}
}

func TestCartVariantStockChecked(t *testing.T) {
	db := newTestDB(t)
	svc := newCartService(t, db)
	user := seedUser(t, db)
	product := seedProduct(t, db, "10.00", 100)
	variant := seedVariant(t, db, product.ID, "0", 2)

	_, err := svc.AddItem(AddCartItemInput{
		UserID:    user.ID,
		ProductID: product.ID,
		VariantID: variant.ID,
		Quantity:  3,
	})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("want ErrInsufficientStock got %v", err)
	}
}

func TestCartUpdateItemZeroRemoves(t *testing.T) {
	db := newTestDB(t)
	svc := newCartService(t, db)
	user := seedUser(t, db)
	product := seedProduct(t, db, "10.00", 10)

	cart, err := svc.AddItem(AddCartItemInput{UserID: user.ID, ProductID: product.ID, Quantity: 2})
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	itemID := cart.Items[0].ID

	cart, err = svc.UpdateItem(user.ID, itemID, 0)
	if err != nil {
		t.Fatalf("update to zero failed: %v", err)
	}
	if len(cart.Items) != 0 {
		t.Fatalf("items want 0 got %d", len(cart.Items))
	}
	if got := cart.Subtotal.String(); got != "0.00" {
		t.Fatalf("subtotal want 0.00 got %s", got)
	}

	// 幂等：对已删除条目再置零不报错
	if _, err := svc.UpdateItem(user.ID, itemID, 0); err != nil {
		t.Fatalf("repeat zero update must be benign: %v", err)
	}
}

func TestCartUpdateItemRechecksStock(t *testing.T) {
	db := newTestDB(t)
	svc := newCartService(t, db)
	user := seedUser(t, db)
	product := seedProduct(t, db, "10.00", 5)

	cart, err := svc.AddItem(AddCartItemInput{UserID: user.ID, ProductID: product.ID, Quantity: 2})
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	_, err = svc.UpdateItem(user.ID, cart.Items[0].ID, 6)
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("want ErrInsufficientStock got %v", err)
	}
}

func TestCartApplyCouponRecomputesTotals(t *testing.T) {
	db := newTestDB(t)
	svc := newCartService(t, db)
	user := seedUser(t, db)
	product := seedProduct(t, db, "10.00", 10)
	coupon := seedCoupon(t, db, &models.Coupon{
		CouponType: "percentage",
		Value:      mustMoney(t, "10"),
		IsActive:   true,
	})

	if _, err := svc.AddItem(AddCartItemInput{UserID: user.ID, ProductID: product.ID, Quantity: 2}); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	cart, err := svc.ApplyCoupon(user.ID, coupon.Code)
	if err != nil {
		t.Fatalf("apply coupon failed: %v", err)
	}

	if cart.CouponID == nil || *cart.CouponID != coupon.ID {
		t.Fatalf("coupon not attached: %+v", cart.CouponID)
	}
	if got := cart.DiscountAmount.String(); got != "2.00" {
		t.Fatalf("discount want 2.00 got %s", got)
	}
	// 税基为折后金额：(20 - 2) × 10% = 1.80
	if got := cart.TaxAmount.String(); got != "1.80" {
		t.Fatalf("tax want 1.80 got %s", got)
	}
	if got := cart.TotalAmount.String(); got != "19.80" {
		t.Fatalf("total want 19.80 got %s", got)
	}
}

func TestCartApplyCouponBelowMinimum(t *testing.T) {
	db := newTestDB(t)
	svc := newCartService(t, db)
	user := seedUser(t, db)
	product := seedProduct(t, db, "10.00", 10)
	coupon := seedCoupon(t, db, &models.Coupon{
		CouponType:    "fixed",
		Value:         mustMoney(t, "5"),
		MinimumAmount: mustMoney(t, "50.00"),
		IsActive:      true,
	})

	if _, err := svc.AddItem(AddCartItemInput{UserID: user.ID, ProductID: product.ID, Quantity: 2}); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	_, err := svc.ApplyCoupon(user.ID, coupon.Code)
	if !errors.Is(err, ErrCouponBelowMinimum) {
		t.Fatalf("want ErrCouponBelowMinimum got %v", err)
	}
}

func TestCartClearDetachesCoupon(t *testing.T) {
	db := newTestDB(t)
	svc := newCartService(t, db)
	user := seedUser(t, db)
	product := seedProduct(t, db, "10.00", 10)
	coupon := seedCoupon(t, db, &models.Coupon{
		CouponType: "percentage",
		Value:      mustMoney(t, "10"),
		IsActive:   true,
	})

	if _, err := svc.AddItem(AddCartItemInput{UserID: user.ID, ProductID: product.ID, Quantity: 2}); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if _, err := svc.ApplyCoupon(user.ID, coupon.Code); err != nil {
		t.Fatalf("apply coupon failed: %v", err)
	}

	cart, err := svc.Clear(user.ID)
	if err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if len(cart.Items) != 0 {
		t.Fatalf("items want 0 got %d", len(cart.Items))
	}
	if cart.CouponID != nil {
		t.Fatalf("coupon must be detached, got %v", *cart.CouponID)
	}
	if got := cart.TotalAmount.String(); got != "0.00" {
		t.Fatalf("total want 0.00 got %s", got)
	}
}

func TestCartReAddAfterRemove(t *testing.T) {
	db := newTestDB(t)
	svc := newCartService(t, db)
	user := seedUser(t, db)
	product := seedProduct(t, db, "10.00", 10)

	cart, err := svc.AddItem(AddCartItemInput{UserID: user.ID, ProductID: product.ID, Quantity: 2})
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if _, err := svc.RemoveItem(user.ID, cart.Items[0].ID); err != nil {
		t.Fatalf("remove failed: %v", err)
	}

	// 移除后同一 (product, variant) 必须能重新加入，唯一索引不能被残留行占住
	cart, err = svc.AddItem(AddCartItemInput{UserID: user.ID, ProductID: product.ID, Quantity: 3})
	if err != nil {
		t.Fatalf("re-add after remove failed: %v", err)
	}
	if len(cart.Items) != 1 || cart.Items[0].Quantity != 3 {
		t.Fatalf("re-added line mismatch: %+v", cart.Items)
	}
}

func TestCartReAddAfterClear(t *testing.T) {
	db := newTestDB(t)
	svc := newCartService(t, db)
	user := seedUser(t, db)
	product := seedProduct(t, db, "10.00", 10)

	if _, err := svc.AddItem(AddCartItemInput{UserID: user.ID, ProductID: product.ID, Quantity: 2}); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if _, err := svc.Clear(user.ID); err != nil {
		t.Fatalf("clear failed: %v", err)
	}

	cart, err := svc.AddItem(AddCartItemInput{UserID: user.ID, ProductID: product.ID, Quantity: 1})
	if err != nil {
		t.Fatalf("re-add after clear failed: %v", err)
	}
	if len(cart.Items) != 1 || cart.Items[0].Quantity != 1 {
		t.Fatalf("re-added line mismatch: %+v", cart.Items)
	}
}

func TestCartRemoveItemNotFound(t *testing.T) {
	db := newTestDB(t)
	svc := newCartService(t, db)
	user := seedUser(t, db)

	_, err := svc.RemoveItem(user.ID, 999)
	if !errors.Is(err, ErrCartItemNotFound) {
		t.Fatalf("want ErrCartItemNotFound got %v", err)
	}
}
