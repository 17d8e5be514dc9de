package public

import (
	"strconv"

	"github.com/vendora-next/internal/http/response"
	"github.com/vendora-next/internal/service"

	"github.com/gin-gonic/gin"
)

// AddCartItemRequest 添加购物车条目请求
type AddCartItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	VariantID uint `json:"variant_id"`
	Quantity  int  `json:"quantity" binding:"required"`
}

// UpdateCartItemRequest 修改购物车条目数量请求。
// quantity 不设 required：0 与负数是合法输入，表示移除该条目
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// ApplyCartCouponRequest 购物车挂券请求
type ApplyCartCouponRequest struct {
	Code string `json:"code" binding:"required"`
}

// GetCart 获取购物车
func (h *Handler) GetCart(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	cart, err := h.CartService.GetCart(uid)
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, cart)
}

// AddCartItem 添加购物车条目
func (h *Handler) AddCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	cart, err := h.CartService.AddItem(service.AddCartItemInput{
		UserID:    uid,
		ProductID: req.ProductID,
		VariantID: req.VariantID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, cart)
}

// UpdateCartItem 修改购物车条目数量
func (h *Handler) UpdateCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	itemID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || itemID == 0 {
		respondError(c, response.CodeBadRequest, "invalid cart item id", nil)
		return
	}
	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	cart, err := h.CartService.UpdateItem(uid, uint(itemID), req.Quantity)
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, cart)
}

// RemoveCartItem 删除购物车条目
func (h *Handler) RemoveCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	itemID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || itemID == 0 {
		respondError(c, response.CodeBadRequest, "invalid cart item id", nil)
		return
	}

	cart, err := h.CartService.RemoveItem(uid, uint(itemID))
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, cart)
}

// ClearCart 清空购物车
func (h *Handler) ClearCart(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	cart, err := h.CartService.Clear(uid)
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, cart)
}

// ApplyCartCoupon 购物车挂券
func (h *Handler) ApplyCartCoupon(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req ApplyCartCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	cart, err := h.CartService.ApplyCoupon(uid, req.Code)
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, cart)
}

// RemoveCartCoupon 购物车摘券
func (h *Handler) RemoveCartCoupon(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	cart, err := h.CartService.RemoveCoupon(uid)
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, cart)
}
