package public

import (
	"errors"

	"github.com/vendora-next/internal/http/response"
	"github.com/vendora-next/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

func concatMappedHandlerErrors(groups ...[]mappedHandlerError) []mappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]mappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

var couponCommonErrorRules = []mappedHandlerError{
	{target: service.ErrCouponNotFound, code: response.CodeBadRequest, msg: "coupon not found"},
	{target: service.ErrCouponInactive, code: response.CodeBadRequest, msg: "coupon is inactive"},
	{target: service.ErrCouponOutOfWindow, code: response.CodeBadRequest, msg: "coupon is outside its validity window"},
	{target: service.ErrCouponExhausted, code: response.CodeBadRequest, msg: "coupon usage limit reached"},
	{target: service.ErrCouponBelowMinimum, code: response.CodeBadRequest, msg: "cart subtotal below coupon minimum"},
	{target: service.ErrCouponPerUserLimit, code: response.CodeBadRequest, msg: "coupon per-user limit reached"},
}

var cartCommonErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidInput, code: response.CodeBadRequest, msg: "invalid request"},
	{target: service.ErrProductUnavailable, code: response.CodeBadRequest, msg: "product unavailable"},
	{target: service.ErrInsufficientStock, code: response.CodeBadRequest, msg: "insufficient stock"},
	{target: service.ErrCartItemNotFound, code: response.CodeNotFound, msg: "cart item not found"},
}

var checkoutErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidInput, code: response.CodeBadRequest, msg: "invalid request"},
	{target: service.ErrEmptyCart, code: response.CodeBadRequest, msg: "cart is empty"},
	{target: service.ErrAddressNotFound, code: response.CodeBadRequest, msg: "address not found"},
	{target: service.ErrProductUnavailable, code: response.CodeBadRequest, msg: "product unavailable"},
	{target: service.ErrInsufficientStock, code: response.CodeBadRequest, msg: "insufficient stock"},
	{target: service.ErrCheckoutConflict, code: response.CodeConflict, msg: "checkout conflict, please retry"},
}

var orderErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidInput, code: response.CodeBadRequest, msg: "invalid request"},
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "order not found"},
	{target: service.ErrOrderCancelled, code: response.CodeConflict, msg: "order already cancelled"},
	{target: service.ErrOrderNotCancellable, code: response.CodeConflict, msg: "order can no longer be cancelled"},
}

var paymentErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidInput, code: response.CodeBadRequest, msg: "invalid request"},
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "order not found"},
	{target: service.ErrPaymentNotFound, code: response.CodeNotFound, msg: "payment not found"},
	{target: service.ErrPaymentExists, code: response.CodeConflict, msg: "payment already exists for this order"},
	{target: service.ErrAlreadyProcessed, code: response.CodeConflict, msg: "payment already processed"},
	{target: service.ErrOrderCancelled, code: response.CodeConflict, msg: "order already cancelled"},
	{target: service.ErrGatewayUnavailable, code: response.CodeBadGateway, msg: "payment gateway unavailable"},
}

var refundErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidInput, code: response.CodeBadRequest, msg: "invalid request"},
	{target: service.ErrPaymentNotFound, code: response.CodeNotFound, msg: "payment not found"},
	{target: service.ErrPaymentNotRefundable, code: response.CodeConflict, msg: "payment not refundable"},
	{target: service.ErrRefundExceedsBalance, code: response.CodeBadRequest, msg: "refund exceeds refundable balance"},
	{target: service.ErrRefundNotFound, code: response.CodeNotFound, msg: "refund not found"},
	{target: service.ErrRefundNotPending, code: response.CodeConflict, msg: "refund is not pending"},
	{target: service.ErrGatewayUnavailable, code: response.CodeBadGateway, msg: "payment gateway unavailable"},
}

func respondCartError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(cartCommonErrorRules, couponCommonErrorRules), response.CodeInternal, "cart operation failed")
}

func respondCheckoutError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(checkoutErrorRules, couponCommonErrorRules), response.CodeInternal, "checkout failed")
}

func respondOrderError(c *gin.Context, err error) {
	respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "order operation failed")
}

func respondPaymentError(c *gin.Context, err error) {
	respondWithMappedError(c, err, paymentErrorRules, response.CodeInternal, "payment operation failed")
}

func respondRefundError(c *gin.Context, err error) {
	respondWithMappedError(c, err, refundErrorRules, response.CodeInternal, "refund operation failed")
}
