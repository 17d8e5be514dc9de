// Package pricing 计算行小计、折扣、税费、运费与应付总额。
// 全部为纯函数，金额统一按 2 位小数银行家舍入。
package pricing

import (
	"github.com/vendora-next/internal/constants"
	"github.com/vendora-next/internal/models"

	"github.com/shopspring/decimal"
)

// Line 参与计价的一行（单价快照 × 数量）
type Line struct {
	UnitPrice models.Money
	Quantity  int
}

// Policy 税费与运费策略，由配置注入
type Policy struct {
	TaxRate               decimal.Decimal  // 税率（如 0.08），对折后金额计税
	ShippingFlatFee       models.Money     // 固定运费
	FreeShippingThreshold *decimal.Decimal // 满额免运费门槛，nil 表示不启用
}

// Quote 计价结果，各项均不为负
type Quote struct {
	Subtotal models.Money `json:"subtotal"`
	Discount models.Money `json:"discount"`
	Tax      models.Money `json:"tax"`
	Shipping models.Money `json:"shipping"`
	Total    models.Money `json:"total"`
}

// Subtotal 计算行小计之和
func Subtotal(lines []Line) models.Money {
	sum := decimal.Zero
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		sum = sum.Add(line.UnitPrice.Decimal.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return models.NewMoneyFromDecimal(sum)
}

// LineTotal 计算单行金额
func LineTotal(unitPrice models.Money, quantity int) models.Money {
	if quantity <= 0 {
		return models.NewMoneyFromDecimal(decimal.Zero)
	}
	return models.NewMoneyFromDecimal(unitPrice.Decimal.Mul(decimal.NewFromInt(int64(quantity))))
}

// Discount 按优惠券类型计算小计折扣。折扣不超过小计；free_shipping 不产生小计折扣
func Discount(subtotal models.Money, coupon *models.Coupon) models.Money {
	if coupon == nil {
		return models.NewMoneyFromDecimal(decimal.Zero)
	}
	var discount decimal.Decimal
	switch coupon.CouponType {
	case constants.CouponTypePercentage:
		discount = subtotal.Decimal.Mul(coupon.Value.Decimal).Div(decimal.NewFromInt(100))
	case constants.CouponTypeFixed:
		discount = coupon.Value.Decimal
	default:
		discount = decimal.Zero
	}
	if discount.GreaterThan(subtotal.Decimal) {
		discount = subtotal.Decimal
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	return models.NewMoneyFromDecimal(discount)
}

// Calculate 汇总计价。税基为折后金额，运费按策略与 free_shipping 券决定
func Calculate(lines []Line, coupon *models.Coupon, policy Policy) Quote {
	subtotal := Subtotal(lines)
	discount := Discount(subtotal, coupon)

	taxable := subtotal.Decimal.Sub(discount.Decimal)
	if taxable.IsNegative() {
		taxable = decimal.Zero
	}
	tax := models.NewMoneyFromDecimal(taxable.Mul(policy.TaxRate))

	shipping := policy.ShippingFlatFee
	if policy.FreeShippingThreshold != nil && subtotal.Decimal.GreaterThanOrEqual(*policy.FreeShippingThreshold) {
		shipping = models.NewMoneyFromDecimal(decimal.Zero)
	}
	if coupon != nil && coupon.CouponType == constants.CouponTypeFreeShipping {
		shipping = models.NewMoneyFromDecimal(decimal.Zero)
	}

	total := subtotal.Decimal.Add(tax.Decimal).Add(shipping.Decimal).Sub(discount.Decimal)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Quote{
		Subtotal: subtotal,
		Discount: discount,
		Tax:      tax,
		Shipping: shipping,
		Total:    models.NewMoneyFromDecimal(total),
	}
}
