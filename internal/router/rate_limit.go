package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shoplite/shoplite/internal/http/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimitKeyFunc 生成限流 key 的函数
type RateLimitKeyFunc func(*gin.Context) string

// RateLimitRule 固定窗口限流规则。
// BlockSeconds 大于窗口时, 首次超限会把剩余封禁时间拉长到 BlockSeconds。
type RateLimitRule struct {
	Prefix        string
	WindowSeconds int
	MaxRequests   int
	BlockSeconds  int
	Message       string
}

var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("TTL", KEYS[1])
return {current, ttl}
`)

type fixedWindowLimiter struct {
	client *redis.Client
	rule   RateLimitRule
}

// allow 返回是否放行以及超限时建议等待的秒数
func (l *fixedWindowLimiter) allow(ctx context.Context, key string) (bool, int, error) {
	values, err := fixedWindowScript.Run(ctx, l.client, []string{key}, l.rule.WindowSeconds).Int64Slice()
	if err != nil {
		return false, 0, err
	}
	if len(values) < 2 {
		return false, 0, errors.New("unexpected rate limit script reply")
	}
	count, ttl := values[0], values[1]
	if count <= int64(l.rule.MaxRequests) {
		return true, 0, nil
	}

	if l.rule.BlockSeconds > l.rule.WindowSeconds && count == int64(l.rule.MaxRequests)+1 {
		block := time.Duration(l.rule.BlockSeconds) * time.Second
		if err := l.client.Expire(ctx, key, block).Err(); err == nil {
			ttl = int64(l.rule.BlockSeconds)
		}
	}
	wait := int(ttl)
	if wait < 1 {
		wait = l.rule.WindowSeconds
	}
	if wait < 1 {
		wait = 1
	}
	return false, wait, nil
}

func (l *fixedWindowLimiter) buildKey(c *gin.Context, keyFunc RateLimitKeyFunc) string {
	key := ""
	if keyFunc != nil {
		key = strings.TrimSpace(keyFunc(c))
	}
	if key == "" {
		key = c.ClientIP()
	}
	if l.rule.Prefix != "" {
		return l.rule.Prefix + ":" + key
	}
	return key
}

// RateLimitMiddleware Redis 频率限制中间件。
// redis 缺失或规则为零值时直接放行。
func RateLimitMiddleware(client *redis.Client, rule RateLimitRule, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	limiter := &fixedWindowLimiter{client: client, rule: rule}

	return func(c *gin.Context) {
		if client == nil || rule.WindowSeconds <= 0 || rule.MaxRequests <= 0 {
			c.Next()
			return
		}

		allowed, wait, err := limiter.allow(c.Request.Context(), limiter.buildKey(c, keyFunc))
		if err != nil {
			response.Internal(c, "rate limit unavailable")
			c.Abort()
			return
		}
		if !allowed {
			msg := strings.TrimSpace(rule.Message)
			if msg == "" {
				msg = fmt.Sprintf("too many requests, retry in %d seconds", wait)
			}
			response.TooManyRequests(c, msg)
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

// KeyByIPAndJSONField 使用 IP + JSON 字段作为限流 key, 请求体读取后回填
func KeyByIPAndJSONField(field string) RateLimitKeyFunc {
	return func(c *gin.Context) string {
		value := strings.ToLower(strings.TrimSpace(peekJSONField(c, field)))
		if value == "" {
			return c.ClientIP()
		}
		return value + "|" + c.ClientIP()
	}
}

func peekJSONField(c *gin.Context, field string) string {
	if c == nil || c.Request == nil || c.Request.Body == nil {
		return ""
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return ""
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
	if len(body) == 0 {
		return ""
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if text, ok := payload[field].(string); ok {
		return strings.TrimSpace(text)
	}
	return ""
}
