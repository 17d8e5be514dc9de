package staff

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/vendora-next/internal/http/response"
	"github.com/vendora-next/internal/models"
	"github.com/vendora-next/internal/repository"
	"github.com/vendora-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateCouponRequest 创建优惠券请求
type CreateCouponRequest struct {
	Code          string     `json:"code" binding:"required"`
	CouponType    string     `json:"coupon_type" binding:"required"`
	Value         string     `json:"value" binding:"required"`
	MinimumAmount string     `json:"minimum_amount"`
	UsageLimit    int        `json:"usage_limit"`
	PerUserLimit  int        `json:"per_user_limit"`
	ValidFrom     *time.Time `json:"valid_from"`
	ValidUntil    *time.Time `json:"valid_until"`
	IsActive      *bool      `json:"is_active"`
}

// UpdateCouponRequest 更新优惠券请求
type UpdateCouponRequest struct {
	MinimumAmount *string    `json:"minimum_amount"`
	UsageLimit    *int       `json:"usage_limit"`
	PerUserLimit  *int       `json:"per_user_limit"`
	ValidFrom     *time.Time `json:"valid_from"`
	ValidUntil    *time.Time `json:"valid_until"`
	IsActive      *bool      `json:"is_active"`
}

// CreateCoupon 创建优惠券
func (h *Handler) CreateCoupon(c *gin.Context) {
	var req CreateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	value, err := models.NewMoneyFromString(req.Value)
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid coupon value", nil)
		return
	}
	minimum := models.Money{}
	if strings.TrimSpace(req.MinimumAmount) != "" {
		minimum, err = models.NewMoneyFromString(req.MinimumAmount)
		if err != nil {
			respondError(c, response.CodeBadRequest, "invalid minimum amount", nil)
			return
		}
	}

	coupon, err := h.CouponAdminService.Create(service.CreateCouponInput{
		Code:          req.Code,
		CouponType:    req.CouponType,
		Value:         value,
		MinimumAmount: minimum,
		UsageLimit:    req.UsageLimit,
		PerUserLimit:  req.PerUserLimit,
		ValidFrom:     req.ValidFrom,
		ValidUntil:    req.ValidUntil,
		IsActive:      req.IsActive,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCouponCodeTaken):
			respondError(c, response.CodeConflict, "coupon code already exists", nil)
		case errors.Is(err, service.ErrInvalidInput):
			respondError(c, response.CodeBadRequest, "invalid coupon definition", nil)
		default:
			respondError(c, response.CodeInternal, "coupon create failed", err)
		}
		return
	}
	response.Success(c, coupon)
}

// ListCoupons 获取优惠券列表
func (h *Handler) ListCoupons(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.CouponListFilter{
		Page:     page,
		PageSize: pageSize,
		Code:     strings.TrimSpace(c.Query("code")),
	}
	if raw := strings.TrimSpace(c.Query("is_active")); raw != "" {
		if active, err := strconv.ParseBool(raw); err == nil {
			filter.IsActive = &active
		}
	}

	coupons, total, err := h.CouponAdminService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "coupon list failed", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, coupons, pagination)
}

// GetCoupon 获取优惠券详情
func (h *Handler) GetCoupon(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "invalid coupon id", nil)
		return
	}

	coupon, err := h.CouponAdminService.Get(uint(id))
	if err != nil {
		if errors.Is(err, service.ErrCouponNotFound) {
			respondError(c, response.CodeNotFound, "coupon not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "coupon fetch failed", err)
		return
	}
	response.Success(c, coupon)
}

// UpdateCoupon 更新优惠券。码和类型一经创建不可修改
func (h *Handler) UpdateCoupon(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "invalid coupon id", nil)
		return
	}
	var req UpdateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	input := service.UpdateCouponInput{
		UsageLimit:   req.UsageLimit,
		PerUserLimit: req.PerUserLimit,
		ValidFrom:    req.ValidFrom,
		ValidUntil:   req.ValidUntil,
		IsActive:     req.IsActive,
	}
	if req.MinimumAmount != nil {
		minimum, err := models.NewMoneyFromString(*req.MinimumAmount)
		if err != nil {
			respondError(c, response.CodeBadRequest, "invalid minimum amount", nil)
			return
		}
		input.MinimumAmount = &minimum
	}

	coupon, err := h.CouponAdminService.Update(uint(id), input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCouponNotFound):
			respondError(c, response.CodeNotFound, "coupon not found", nil)
		case errors.Is(err, service.ErrInvalidInput):
			respondError(c, response.CodeBadRequest, "invalid coupon definition", nil)
		default:
			respondError(c, response.CodeInternal, "coupon update failed", err)
		}
		return
	}
	response.Success(c, coupon)
}
