package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type OperatorMiddlewareConfig struct {
	Token string
}

// OperatorMiddleware guards the human-decision endpoints. The approving
// front-end authenticates with a static bearer token; real end-user session
// handling lives in front of this service.
type OperatorMiddleware struct {
	config OperatorMiddlewareConfig
}

func NewOperatorMiddleware(config OperatorMiddlewareConfig) *OperatorMiddleware {
	return &OperatorMiddleware{
		config: config,
	}
}

func (m *OperatorMiddleware) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")

		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "unauthorized",
			})
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")

		if subtle.ConstantTimeCompare([]byte(token), []byte(m.config.Token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "unauthorized",
			})
			return
		}

		c.Next()
	}
}
