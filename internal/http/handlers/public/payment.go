package public

import (
	"strconv"
	"strings"

	"github.com/vendora-next/internal/http/response"
	"github.com/vendora-next/internal/models"
	"github.com/vendora-next/internal/repository"
	"github.com/vendora-next/internal/service"

	"github.com/gin-gonic/gin"
)

// RequestRefundRequest 申请退款请求
type RequestRefundRequest struct {
	Amount string `json:"amount" binding:"required"`
	Reason string `json:"reason"`
}

// CreatePayment 对订单发起支付
func (h *Handler) CreatePayment(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "invalid order id", nil)
		return
	}

	payment, err := h.PaymentService.InitiatePayment(c.Request.Context(), uid, uint(orderID))
	if err != nil {
		respondPaymentError(c, err)
		return
	}
	response.Success(c, payment)
}

// GetOrderPayment 获取订单对应的支付记录
func (h *Handler) GetOrderPayment(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "invalid order id", nil)
		return
	}

	payment, err := h.PaymentService.GetPaymentByOrder(uid, uint(orderID))
	if err != nil {
		respondPaymentError(c, err)
		return
	}
	response.Success(c, payment)
}

// GetPayment 获取支付单详情
func (h *Handler) GetPayment(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	paymentID := strings.TrimSpace(c.Param("payment_id"))
	if paymentID == "" {
		respondError(c, response.CodeBadRequest, "invalid payment id", nil)
		return
	}

	payment, err := h.PaymentService.GetPayment(uid, paymentID)
	if err != nil {
		respondPaymentError(c, err)
		return
	}
	response.Success(c, payment)
}

// CapturePayment 推进支付扣款
func (h *Handler) CapturePayment(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	paymentID := strings.TrimSpace(c.Param("payment_id"))
	if paymentID == "" {
		respondError(c, response.CodeBadRequest, "invalid payment id", nil)
		return
	}

	payment, err := h.PaymentService.ProcessPayment(c.Request.Context(), uid, paymentID)
	if err != nil {
		respondPaymentError(c, err)
		return
	}
	response.Success(c, payment)
}

// RequestRefund 用户申请退款
func (h *Handler) RequestRefund(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	paymentID := strings.TrimSpace(c.Param("payment_id"))
	if paymentID == "" {
		respondError(c, response.CodeBadRequest, "invalid payment id", nil)
		return
	}
	var req RequestRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	amount, err := models.NewMoneyFromString(req.Amount)
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid refund amount", nil)
		return
	}

	refund, err := h.PaymentService.RequestRefund(c.Request.Context(), service.RefundInput{
		UserID:    uid,
		PaymentID: paymentID,
		Amount:    amount,
		Reason:    req.Reason,
	})
	if err != nil {
		respondRefundError(c, err)
		return
	}
	response.Success(c, refund)
}

// ListRefunds 获取当前用户退款列表
func (h *Handler) ListRefunds(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	status := strings.TrimSpace(c.Query("status"))

	refunds, total, err := h.PaymentService.ListRefunds(repository.RefundListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   uid,
		Status:   status,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "refund list failed", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, refunds, pagination)
}

// GetRefund 获取退款单详情
func (h *Handler) GetRefund(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	refundID := strings.TrimSpace(c.Param("refund_id"))
	if refundID == "" {
		respondError(c, response.CodeBadRequest, "invalid refund id", nil)
		return
	}

	refund, err := h.PaymentService.GetRefund(uid, refundID)
	if err != nil {
		respondRefundError(c, err)
		return
	}
	response.Success(c, refund)
}

// CancelRefund 用户撤回退款申请
func (h *Handler) CancelRefund(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	refundID := strings.TrimSpace(c.Param("refund_id"))
	if refundID == "" {
		respondError(c, response.CodeBadRequest, "invalid refund id", nil)
		return
	}

	if err := h.PaymentService.CancelRefund(uid, refundID); err != nil {
		respondRefundError(c, err)
		return
	}
	response.Success(c, gin.H{"cancelled": true})
}
