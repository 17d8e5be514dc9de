package pricing

import (
	"testing"

	"github.com/vendora-next/internal/constants"
	"github.com/vendora-next/internal/models"

	"github.com/shopspring/decimal"
)

func money(t *testing.T, s string) models.Money {
	t.Helper()
	m, err := models.NewMoneyFromString(s)
	if err != nil {
		t.Fatalf("parse money %q failed: %v", s, err)
	}
	return m
}

func TestCalculatePercentageCoupon(t *testing.T) {
	lines := []Line{
		{UnitPrice: money(t, "10.00"), Quantity: 2},
		{UnitPrice: money(t, "5.00"), Quantity: 1},
	}
	coupon := &models.Coupon{
		CouponType: constants.CouponTypePercentage,
		Value:      money(t, "10"),
	}

	quote := Calculate(lines, coupon, Policy{TaxRate: decimal.Zero})

	if got := quote.Subtotal.String(); got != "25.00" {
		t.Fatalf("subtotal want 25.00 got %s", got)
	}
	if got := quote.Discount.String(); got != "2.50" {
		t.Fatalf("discount want 2.50 got %s", got)
	}
	if got := quote.Total.String(); got != "22.50" {
		t.Fatalf("total want 22.50 got %s", got)
	}
}

func TestCalculateFixedCouponClampedToSubtotal(t *testing.T) {
	lines := []Line{{UnitPrice: money(t, "8.00"), Quantity: 1}}
	coupon := &models.Coupon{
		CouponType: constants.CouponTypeFixed,
		Value:      money(t, "20.00"),
	}

	quote := Calculate(lines, coupon, Policy{TaxRate: decimal.Zero})

	if got := quote.Discount.String(); got != "8.00" {
		t.Fatalf("discount want clamp to 8.00 got %s", got)
	}
	if got := quote.Total.String(); got != "0.00" {
		t.Fatalf("total want 0.00 got %s", got)
	}
	if quote.Total.Decimal.IsNegative() {
		t.Fatalf("total must never be negative, got %s", quote.Total)
	}
}

func TestCalculateFreeShippingCoupon(t *testing.T) {
	lines := []Line{{UnitPrice: money(t, "30.00"), Quantity: 1}}
	coupon := &models.Coupon{CouponType: constants.CouponTypeFreeShipping}
	policy := Policy{
		TaxRate:         decimal.Zero,
		ShippingFlatFee: money(t, "5.00"),
	}

	quote := Calculate(lines, coupon, policy)

	if got := quote.Discount.String(); got != "0.00" {
		t.Fatalf("free_shipping must not discount subtotal, got %s", got)
	}
	if got := quote.Shipping.String(); got != "0.00" {
		t.Fatalf("shipping want 0.00 got %s", got)
	}
	if got := quote.Total.String(); got != "30.00" {
		t.Fatalf("total want 30.00 got %s", got)
	}
}

func TestCalculateFreeShippingThreshold(t *testing.T) {
	threshold := decimal.NewFromInt(50)
	policy := Policy{
		TaxRate:               decimal.Zero,
		ShippingFlatFee:       money(t, "6.00"),
		FreeShippingThreshold: &threshold,
	}

	below := Calculate([]Line{{UnitPrice: money(t, "20.00"), Quantity: 2}}, nil, policy)
	if got := below.Shipping.String(); got != "6.00" {
		t.Fatalf("below threshold shipping want 6.00 got %s", got)
	}

	above := Calculate([]Line{{UnitPrice: money(t, "25.00"), Quantity: 2}}, nil, policy)
	if got := above.Shipping.String(); got != "0.00" {
		t.Fatalf("at threshold shipping want 0.00 got %s", got)
	}
}

func TestCalculateTaxOnDiscountedAmount(t *testing.T) {
	lines := []Line{{UnitPrice: money(t, "100.00"), Quantity: 1}}
	coupon := &models.Coupon{
		CouponType: constants.CouponTypeFixed,
		Value:      money(t, "20.00"),
	}
	rate, _ := decimal.NewFromString("0.10")

	quote := Calculate(lines, coupon, Policy{TaxRate: rate})

	if got := quote.Tax.String(); got != "8.00" {
		t.Fatalf("tax want 8.00 (10%% of 80.00) got %s", got)
	}
	if got := quote.Total.String(); got != "88.00" {
		t.Fatalf("total want 88.00 got %s", got)
	}
}

func TestMoneyBankersRounding(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"2.125", "2.12"},
		{"2.135", "2.14"},
		{"2.145", "2.14"},
		{"2.155", "2.16"},
	}
	for _, c := range cases {
		d, err := decimal.NewFromString(c.in)
		if err != nil {
			t.Fatalf("parse %q failed: %v", c.in, err)
		}
		if got := models.NewMoneyFromDecimal(d).String(); got != c.want {
			t.Fatalf("round %s want %s got %s", c.in, c.want, got)
		}
	}
}

func TestSubtotalIgnoresNonPositiveQuantities(t *testing.T) {
	lines := []Line{
		{UnitPrice: money(t, "10.00"), Quantity: 0},
		{UnitPrice: money(t, "10.00"), Quantity: -3},
		{UnitPrice: money(t, "4.50"), Quantity: 2},
	}
	if got := Subtotal(lines).String(); got != "9.00" {
		t.Fatalf("subtotal want 9.00 got %s", got)
	}
}
