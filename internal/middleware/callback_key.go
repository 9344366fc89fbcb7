package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

const CallbackKeyHeader = "X-Callback-Key"

// CallbackKey guards gateway callbacks with a shared key. With no key
// configured every callback is refused, so settlement cannot be forged.
func CallbackKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "payment callbacks are not configured"})
			return
		}
		got := c.GetHeader(CallbackKeyHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
