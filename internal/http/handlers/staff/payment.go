package staff

import (
	"errors"
	"strconv"
	"strings"

	"github.com/vendora-next/internal/http/response"
	"github.com/vendora-next/internal/repository"
	"github.com/vendora-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ListPayments 获取支付列表（员工视角，可跨用户）
func (h *Handler) ListPayments(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.PaymentListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   strings.TrimSpace(c.Query("status")),
	}
	if userID, err := strconv.ParseUint(c.Query("user_id"), 10, 64); err == nil {
		filter.UserID = uint(userID)
	}
	if orderID, err := strconv.ParseUint(c.Query("order_id"), 10, 64); err == nil {
		filter.OrderID = uint(orderID)
	}

	payments, total, err := h.PaymentService.ListPayments(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "payment list failed", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, payments, pagination)
}

// ListRefunds 获取退款列表（员工视角，可跨用户）
func (h *Handler) ListRefunds(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.RefundListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   strings.TrimSpace(c.Query("status")),
	}
	if userID, err := strconv.ParseUint(c.Query("user_id"), 10, 64); err == nil {
		filter.UserID = uint(userID)
	}
	if orderID, err := strconv.ParseUint(c.Query("order_id"), 10, 64); err == nil {
		filter.OrderID = uint(orderID)
	}

	refunds, total, err := h.PaymentService.ListRefunds(filter)
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

// ProcessRefund 员工审批并向网关提交退款
func (h *Handler) ProcessRefund(c *gin.Context) {
	refundID := strings.TrimSpace(c.Param("refund_id"))
	if refundID == "" {
		respondError(c, response.CodeBadRequest, "invalid refund id", nil)
		return
	}

	refund, err := h.PaymentService.ProcessRefund(c.Request.Context(), refundID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			respondError(c, response.CodeBadRequest, "invalid request", nil)
		case errors.Is(err, service.ErrRefundNotFound):
			respondError(c, response.CodeNotFound, "refund not found", nil)
		case errors.Is(err, service.ErrRefundNotPending):
			respondError(c, response.CodeConflict, "refund is not pending", nil)
		case errors.Is(err, service.ErrGatewayUnavailable):
			respondError(c, response.CodeBadGateway, "payment gateway unavailable", nil)
		default:
			requestLog(c).Errorw("refund_process_failed", "refund_id", refundID, "error", err)
			respondError(c, response.CodeInternal, "refund processing failed", nil)
		}
		return
	}
	response.Success(c, refund)
}

// FailRefundRequest 退款失败标记请求
type FailRefundRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// FailRefund 员工将退款标记为失败（网关外渠道拒绝时的人工落账）
func (h *Handler) FailRefund(c *gin.Context) {
	refundID := strings.TrimSpace(c.Param("refund_id"))
	if refundID == "" {
		respondError(c, response.CodeBadRequest, "invalid refund id", nil)
		return
	}
	var req FailRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", err)
		return
	}

	if err := h.PaymentService.FailRefund(refundID, req.Reason); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			respondError(c, response.CodeBadRequest, "invalid request", nil)
		case errors.Is(err, service.ErrRefundNotFound):
			respondError(c, response.CodeNotFound, "refund not found", nil)
		case errors.Is(err, service.ErrRefundNotPending):
			respondError(c, response.CodeConflict, "refund is not pending", nil)
		default:
			requestLog(c).Errorw("refund_fail_mark_failed", "refund_id", refundID, "error", err)
			respondError(c, response.CodeInternal, "refund update failed", nil)
		}
		return
	}
	response.Success(c, gin.H{"failed": true})
}
