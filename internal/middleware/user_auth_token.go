package middleware

import (
	"strings"

	"github.com/haierkeys/note-keeper-service/pkg/app"
	"github.com/haierkeys/note-keeper-service/pkg/code"

	"github.com/gin-gonic/gin"
)

const bearerPrefix = "Bearer "

// UserAuthTokenWithConfig 用户 Token 认证中间件（使用注入的密钥）
// 只接受 Authorization: Bearer <token>
func UserAuthTokenWithConfig(secretKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		response := app.NewResponse(c)

		header := c.GetHeader("Authorization")
		if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
			response.ToResponse(code.ErrorNotUserAuthToken)
			c.Abort()
			return
		}

		token := strings.TrimSpace(header[len(bearerPrefix):])
		if token == "" {
			response.ToResponse(code.ErrorNotUserAuthToken)
			c.Abort()
			return
		}

		if err := app.SetTokenToContextWithKey(c, token, secretKey); err != nil {
			response.ToResponse(code.ErrorInvalidUserAuthToken)
			c.Abort()
			return
		}

		c.Next()
	}
}
