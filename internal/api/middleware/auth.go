package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/leozw/uptime-guardian/internal/api/apperr"
)

// AdminRequired guards the admin surface with a single static bearer
// token comparison rather than a per-tenant JWT check: there is no
// tenant model here, just one operator token.
func AdminRequired(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if authHeader == "" || tokenString == authHeader {
			apperr.RespondError(c, apperr.New(apperr.Unauthorized, "bearer token required"))
			c.Abort()
			return
		}

		if subtle.ConstantTimeCompare([]byte(tokenString), []byte(token)) != 1 {
			apperr.RespondError(c, apperr.New(apperr.Unauthorized, "invalid token"))
			c.Abort()
			return
		}

		c.Next()
	}
}

func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
