package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/catalog_api/internal/utils"
)

// VendorIDKey is the gin context key holding the authenticated vendor.
const VendorIDKey = "vendor_id"

// JWTMiddleware authenticates vendors with HS256 bearer tokens.
type JWTMiddleware struct {
	secret      string
	rateLimiter *InvalidAuthRateLimiter
}

// NewJWTMiddleware constructs a new JWTMiddleware. limiter may be nil.
func NewJWTMiddleware(secret string, limiter *InvalidAuthRateLimiter) *JWTMiddleware {
	return &JWTMiddleware{secret: secret, rateLimiter: limiter}
}

func (m *JWTMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if m.rateLimiter != nil && m.rateLimiter.Blocked(ip) {
			utils.Error(c, http.StatusTooManyRequests, utils.CodeTooManyRequests, "Too many invalid authentication attempts")
			c.Abort()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			m.reject(c, ip, utils.CodeUnauthorized, "Missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			m.reject(c, ip, utils.CodeUnauthorized, "Invalid authorization header")
			return
		}

		claims, err := utils.ValidateJWT(m.secret, parts[1])
		if err != nil {
			msg := "Invalid or expired token"
			if errors.Is(err, utils.ErrExpiredToken) {
				msg = "Token expired"
			}
			m.reject(c, ip, utils.ErrInvalidToken.Error(), msg)
			return
		}

		c.Set(VendorIDKey, claims.VendorID)
		c.Set("email", claims.Email)
		c.Next()
	}
}

func (m *JWTMiddleware) reject(c *gin.Context, ip, code, message string) {
	if m.rateLimiter != nil {
		m.rateLimiter.Record(ip)
	}
	utils.Error(c, http.StatusUnauthorized, code, message)
	c.Abort()
}
