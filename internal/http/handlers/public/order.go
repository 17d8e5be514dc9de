package public

import (
	"strconv"
	"strings"

	"github.com/vendora-next/internal/http/response"
	"github.com/vendora-next/internal/repository"
	"github.com/vendora-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CheckoutRequest 结账请求
type CheckoutRequest struct {
	ShippingAddressID uint   `json:"shipping_address_id" binding:"required"`
	BillingAddressID  *uint  `json:"billing_address_id"`
	Notes             string `json:"notes"`
}

// Checkout 购物车结账生成订单
func (h *Handler) Checkout(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	order, err := h.CheckoutService.Checkout(c.Request.Context(), service.CheckoutInput{
		UserID:            uid,
		ShippingAddressID: req.ShippingAddressID,
		BillingAddressID:  req.BillingAddressID,
		Notes:             req.Notes,
	})
	if err != nil {
		respondCheckoutError(c, err)
		return
	}
	response.Success(c, order)
}

// ListOrders 获取当前用户订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	status := strings.TrimSpace(c.Query("status"))

	orders, total, err := h.OrderService.List(repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   uid,
		Status:   status,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "order list failed", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, orders, pagination)
}

// GetOrder 获取订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "invalid order id", nil)
		return
	}

	order, err := h.OrderService.GetByID(uid, uint(orderID))
	if err != nil {
		respondOrderError(c, err)
		return
	}
	response.Success(c, order)
}

// GetOrderByNumber 按订单号获取订单详情
func (h *Handler) GetOrderByNumber(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderNumber := strings.TrimSpace(c.Param("order_number"))
	if orderNumber == "" {
		respondError(c, response.CodeBadRequest, "invalid order number", nil)
		return
	}

	order, err := h.OrderService.GetByNumber(uid, orderNumber)
	if err != nil {
		respondOrderError(c, err)
		return
	}
	response.Success(c, order)
}

// CancelOrder 用户取消订单
func (h *Handler) CancelOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "invalid order id", nil)
		return
	}

	order, err := h.OrderService.Cancel(uid, uint(orderID))
	if err != nil {
		respondOrderError(c, err)
		return
	}
	response.Success(c, order)
}
