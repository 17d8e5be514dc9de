package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 统一响应结构。HTTP 层始终 200，业务结果看 status_code
type Response struct {
	StatusCode int         `json:"status_code"` // 业务状态码
	Msg        string      `json:"msg"`         // 提示消息
	Data       interface{} `json:"data"`        // 数据内容
}

// PageResponse 分页响应结构
type PageResponse struct {
	StatusCode int         `json:"status_code"`
	Msg        string      `json:"msg"`
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

// Pagination 分页信息
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"page_size"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"total_page"`
}

func write(c *gin.Context, statusCode int, msg string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		StatusCode: statusCode,
		Msg:        msg,
		Data:       data,
	})
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	write(c, CodeOK, "success", data)
}

// SuccessWithMsg 成功响应（自定义消息）
func SuccessWithMsg(c *gin.Context, msg string, data interface{}) {
	write(c, CodeOK, msg, data)
}

// SuccessWithPage 分页成功响应
func SuccessWithPage(c *gin.Context, data interface{}, pagination Pagination) {
	c.JSON(http.StatusOK, PageResponse{
		StatusCode: CodeOK,
		Msg:        "success",
		Data:       data,
		Pagination: pagination,
	})
}

// Error 错误响应，附带 request_id 便于排查
func Error(c *gin.Context, statusCode int, msg string) {
	write(c, statusCode, msg, attachRequestID(c, nil))
}

// ErrorWithData 错误响应（带数据）
func ErrorWithData(c *gin.Context, statusCode int, msg string, data interface{}) {
	write(c, statusCode, msg, attachRequestID(c, data))
}

// NotFound 404响应
func NotFound(c *gin.Context, msg string) {
	Error(c, CodeNotFound, msg)
}

// Unauthorized 401响应
func Unauthorized(c *gin.Context, msg string) {
	Error(c, CodeUnauthorized, msg)
}

// Forbidden 403响应
func Forbidden(c *gin.Context, msg string) {
	Error(c, CodeForbidden, msg)
}

// BadRequest 400响应
func BadRequest(c *gin.Context, msg string) {
	Error(c, CodeBadRequest, msg)
}

func attachRequestID(c *gin.Context, data interface{}) interface{} {
	var requestID string
	if c != nil {
		if value, ok := c.Get("request_id"); ok {
			requestID, _ = value.(string)
		}
	}
	if requestID == "" {
		return data
	}
	switch v := data.(type) {
	case nil:
		return gin.H{"request_id": requestID}
	case gin.H:
		if _, ok := v["request_id"]; !ok {
			v["request_id"] = requestID
		}
		return v
	case map[string]interface{}:
		if _, ok := v["request_id"]; !ok {
			v["request_id"] = requestID
		}
		return v
	default:
		return gin.H{
			"request_id": requestID,
			"data":       data,
		}
	}
}
