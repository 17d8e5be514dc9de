package public

import (
	"errors"
	"io"

	"github.com/vendora-next/internal/http/response"
	"github.com/vendora-next/internal/service"

	"github.com/gin-gonic/gin"
)

const webhookSignatureHeader = "X-Signature"

// PaymentWebhook 网关异步回调入口。
// 验签失败一律 401，避免向探测方泄露单据是否存在。
func (h *Handler) PaymentWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondError(c, response.CodeBadRequest, "read payload failed", err)
		return
	}
	signature := c.GetHeader(webhookSignatureHeader)

	if err := h.PaymentService.HandleWebhook(c.Request.Context(), payload, signature); err != nil {
		switch {
		case errors.Is(err, service.ErrWebhookSignature):
			respondError(c, response.CodeUnauthorized, "signature verification failed", nil)
		case errors.Is(err, service.ErrInvalidInput):
			respondError(c, response.CodeBadRequest, "invalid webhook payload", nil)
		case errors.Is(err, service.ErrPaymentNotFound), errors.Is(err, service.ErrRefundNotFound):
			respondError(c, response.CodeNotFound, "unknown webhook target", nil)
		default:
			requestLog(c).Errorw("payment_webhook_failed", "error", err)
			respondError(c, response.CodeInternal, "webhook processing failed", nil)
		}
		return
	}
	response.Success(c, gin.H{"received": true})
}
