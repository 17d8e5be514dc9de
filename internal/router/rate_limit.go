package router

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vendora-next/internal/http/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimitKeyFunc 生成限流 key 的函数
type RateLimitKeyFunc func(*gin.Context) string

// RateLimitRule 限流规则。
// BlockSeconds > 0 时，触发限流后把窗口拉长为封禁时长
type RateLimitRule struct {
	Prefix        string
	WindowSeconds int
	MaxRequests   int
	BlockSeconds  int
	Message       string
}

var rateLimitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
if tonumber(ARGV[2]) > 0 and current == tonumber(ARGV[3]) + 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[2])
end
local ttl = redis.call("TTL", KEYS[1])
return {current, ttl}
`)

// RateLimitMiddleware Redis 频率限制中间件
func RateLimitMiddleware(client *redis.Client, rule RateLimitRule, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil || rule.WindowSeconds <= 0 || rule.MaxRequests <= 0 {
			c.Next()
			return
		}

		key := ""
		if keyFunc != nil {
			key = strings.TrimSpace(keyFunc(c))
		}
		if key == "" {
			key = c.ClientIP()
		}
		if rule.Prefix != "" {
			key = fmt.Sprintf("%s:%s", rule.Prefix, key)
		}

		result, err := rateLimitScript.Run(c.Request.Context(), client, []string{key},
			rule.WindowSeconds, rule.BlockSeconds, rule.MaxRequests).Result()
		if err != nil {
			response.Error(c, response.CodeInternal, "rate limiter unavailable")
			c.Abort()
			return
		}

		values, ok := result.([]interface{})
		if !ok || len(values) < 2 {
			response.Error(c, response.CodeInternal, "rate limiter unavailable")
			c.Abort()
			return
		}
		count, ok := toInt64(values[0])
		if !ok {
			response.Error(c, response.CodeInternal, "rate limiter unavailable")
			c.Abort()
			return
		}
		ttlSeconds, _ := toInt64(values[1])
		if count > int64(rule.MaxRequests) {
			waitSeconds := int(ttlSeconds)
			if waitSeconds < 1 {
				waitSeconds = rule.WindowSeconds
			}
			if waitSeconds < 1 {
				waitSeconds = 1
			}
			msg := strings.TrimSpace(rule.Message)
			if msg == "" {
				msg = "too many requests"
			}
			msg = fmt.Sprintf("%s, retry in %ds", msg, waitSeconds)
			response.Error(c, response.CodeTooManyRequests, msg)
			c.Abort()
			return
		}

		c.Next()
	}
}

// KeyByIP 使用 IP 作为限流 key
func KeyByIP(c *gin.Context) string {
	return c.ClientIP()
}

// KeyByUserID 使用登录用户作为限流 key，未登录退回 IP
func KeyByUserID(c *gin.Context) string {
	value, ok := c.Get("user_id")
	if !ok {
		return c.ClientIP()
	}
	if userID, ok := value.(uint); ok && userID > 0 {
		return strconv.FormatUint(uint64(userID), 10)
	}
	return c.ClientIP()
}

func toInt64(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int16:
		return int64(v), true
	case int8:
		return int64(v), true
	case uint64:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint8:
		return int64(v), true
	case float64:
		return int64(v), true
	case float32:
		return int64(v), true
	default:
		return 0, false
	}
}
