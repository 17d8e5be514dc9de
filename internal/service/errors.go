package service

import "errors"

// 通用错误
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("resource not found")
)

// 购物车错误
var (
	ErrProductUnavailable = errors.New("product unavailable")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrCartItemNotFound   = errors.New("cart item not found")
	ErrEmptyCart          = errors.New("cart is empty")
)

// 优惠券错误
var (
	ErrCouponNotFound     = errors.New("coupon not found")
	ErrCouponInactive     = errors.New("coupon inactive")
	ErrCouponOutOfWindow  = errors.New("coupon out of validity window")
	ErrCouponExhausted    = errors.New("coupon usage exhausted")
	ErrCouponBelowMinimum = errors.New("cart subtotal below coupon minimum")
	ErrCouponPerUserLimit = errors.New("coupon per-user limit exceeded")
	ErrCouponCodeTaken    = errors.New("coupon code already exists")
)

// 结账与订单错误
var (
	ErrAddressNotFound     = errors.New("address not found")
	ErrOrderNotFound       = errors.New("order not found")
	ErrOrderNotCancellable = errors.New("order not cancellable")
	ErrOrderCancelled      = errors.New("order already cancelled")
	ErrInvalidTransition   = errors.New("invalid order status transition")
	ErrCheckoutConflict    = errors.New("checkout conflict, retry")
)

// 支付与退款错误
var (
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrPaymentExists        = errors.New("payment already exists for order")
	ErrAlreadyProcessed     = errors.New("payment already processed")
	ErrPaymentNotRefundable = errors.New("payment not refundable")
	ErrRefundExceedsBalance = errors.New("refund exceeds refundable balance")
	ErrRefundNotFound       = errors.New("refund not found")
	ErrRefundNotPending     = errors.New("refund not in a pending state")
	ErrGatewayUnavailable   = errors.New("payment gateway unavailable")
	ErrWebhookSignature     = errors.New("webhook signature invalid")
)
