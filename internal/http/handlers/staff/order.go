package staff

import (
	"errors"
	"strconv"

	"github.com/vendora-next/internal/http/response"
	"github.com/vendora-next/internal/service"

	"github.com/gin-gonic/gin"
)

// AdvanceOrderStatusRequest 推进订单状态请求
type AdvanceOrderStatusRequest struct {
	Status         string `json:"status" binding:"required"`
	TrackingNumber string `json:"tracking_number"`
}

// AdvanceOrderStatus 员工推进订单履约状态
func (h *Handler) AdvanceOrderStatus(c *gin.Context) {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "invalid order id", nil)
		return
	}
	var req AdvanceOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	order, err := h.OrderService.AdvanceStatus(uint(orderID), req.Status, req.TrackingNumber)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			respondError(c, response.CodeBadRequest, "invalid request", nil)
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, response.CodeNotFound, "order not found", nil)
		case errors.Is(err, service.ErrInvalidTransition):
			respondError(c, response.CodeConflict, "invalid order status transition", nil)
		default:
			respondError(c, response.CodeInternal, "order status update failed", err)
		}
		return
	}
	response.Success(c, order)
}
