package middleware

import (
	"context"

	"github.com/haierkeys/note-keeper-service/pkg/app"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DefaultTraceIDHeader 默认的 Trace ID 请求头名称
const DefaultTraceIDHeader = "X-Trace-ID"

type traceIDCtxKey struct{}

// TraceMiddlewareWithConfig 创建请求追踪中间件
// 从请求头获取或生成 Trace ID，写入 gin.Context、request.Context 和响应头
func TraceMiddlewareWithConfig(enabled bool, headerName string) gin.HandlerFunc {
	if headerName == "" {
		headerName = DefaultTraceIDHeader
	}
	return func(c *gin.Context) {
		if !enabled {
			c.Next()
			return
		}

		traceID := c.GetHeader(headerName)
		if traceID == "" || len(traceID) > 128 {
			traceID = uuid.NewString()
		}

		c.Set(app.TraceIDKey, traceID)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), traceIDCtxKey{}, traceID))
		c.Header(headerName, traceID)

		c.Next()
	}
}

// GetTraceID 从 context.Context 获取 Trace ID
func GetTraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(traceIDCtxKey{}).(string); ok {
		return id
	}
	return ""
}
