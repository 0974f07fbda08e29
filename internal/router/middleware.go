package router

import (
	"strconv"
	"strings"
	"time"

	"github.com/shoplite/shoplite/internal/config"
	"github.com/shoplite/shoplite/internal/constants"
	"github.com/shoplite/shoplite/internal/http/response"
	"github.com/shoplite/shoplite/internal/repository"
	"github.com/shoplite/shoplite/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDKey = "request_id"
const requestIDHeader = "X-Request-ID"

// corsPolicy 预先拼好的跨域响应头
type corsPolicy struct {
	origins          []string
	methodsHeader    string
	headersHeader    string
	allowCredentials bool
	maxAgeHeader     string
}

func newCORSPolicy(cfg config.CORSConfig) corsPolicy {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	methods := cfg.AllowedMethods
	if len(methods) == 0 {
		methods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	headers := cfg.AllowedHeaders
	if len(headers) == 0 {
		headers = []string{
			"Content-Type",
			"Content-Length",
			"Accept-Encoding",
			"Authorization",
			"Cache-Control",
			"X-Requested-With",
		}
	}
	policy := corsPolicy{
		origins:          origins,
		methodsHeader:    strings.Join(methods, ", "),
		headersHeader:    strings.Join(headers, ", "),
		allowCredentials: cfg.AllowCredentials,
	}
	if cfg.MaxAge > 0 {
		policy.maxAgeHeader = strconv.Itoa(cfg.MaxAge)
	}
	return policy
}

// matchOrigin 选出允许回写的 Origin。带凭据时通配符必须回写具体来源。
func (p corsPolicy) matchOrigin(origin string) string {
	for _, allowed := range p.origins {
		if allowed == "*" {
			if p.allowCredentials && origin != "" {
				return origin
			}
			return "*"
		}
	}
	if origin == "" {
		return ""
	}
	for _, allowed := range p.origins {
		if strings.EqualFold(allowed, origin) {
			return origin
		}
	}
	return ""
}

// CORSMiddleware 跨域中间件
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	policy := newCORSPolicy(cfg)

	return func(c *gin.Context) {
		header := c.Writer.Header()
		if origin := policy.matchOrigin(c.GetHeader("Origin")); origin != "" {
			header.Set("Access-Control-Allow-Origin", origin)
			if origin != "*" {
				header.Add("Vary", "Origin")
			}
		}
		if policy.allowCredentials {
			header.Set("Access-Control-Allow-Credentials", "true")
		}
		header.Set("Access-Control-Allow-Headers", policy.headersHeader)
		header.Set("Access-Control-Allow-Methods", policy.methodsHeader)
		if policy.maxAgeHeader != "" {
			header.Set("Access-Control-Max-Age", policy.maxAgeHeader)
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}

// RequestIDMiddleware 请求 ID 中间件
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

func getRequestID(c *gin.Context) string {
	if value, ok := c.Get(requestIDKey); ok {
		if id, ok := value.(string); ok {
			return id
		}
	}
	return ""
}

// LoggerMiddleware 结构化请求日志中间件
func LoggerMiddleware(log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.L()
	}
	sugar := log.Sugar()

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := sugar.With(
			"request_id", getRequestID(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
		if len(c.Errors) > 0 {
			entry.Errorw("request", "errors", c.Errors.String())
			return
		}
		entry.Infow("request")
	}
}

func rejectUnauthorized(c *gin.Context, msg string) {
	response.Unauthorized(c, msg)
	c.Abort()
}

func bearerToken(c *gin.Context) (string, string) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", "authorization header missing"
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", "authorization header invalid"
	}
	return parts[1], ""
}

// UserJWTAuthMiddleware 用户 JWT 鉴权中间件。
// 令牌有效后仍回表核对用户存在且未禁用, 并检查吊销名单。
func UserJWTAuthMiddleware(secretKey string, userRepo repository.UserRepository) gin.HandlerFunc {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	return func(c *gin.Context) {
		if secretKey == "" || userRepo == nil {
			rejectUnauthorized(c, "unauthorized")
			return
		}
		tokenString, reason := bearerToken(c)
		if reason != "" {
			rejectUnauthorized(c, reason)
			return
		}

		claims := &service.UserJWTClaims{}
		token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(secretKey), nil
		})
		if err != nil || !token.Valid || claims.UserID == 0 {
			rejectUnauthorized(c, "token invalid")
			return
		}
		if service.IsUserTokenRevoked(c.Request.Context(), tokenString) {
			rejectUnauthorized(c, "token revoked")
			return
		}

		user, err := userRepo.GetByID(claims.UserID)
		if err != nil || user == nil {
			rejectUnauthorized(c, "token invalid")
			return
		}
		if !strings.EqualFold(strings.TrimSpace(user.Status), constants.UserStatusActive) {
			rejectUnauthorized(c, "account disabled")
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("user_email", claims.Email)
		c.Next()
	}
}
