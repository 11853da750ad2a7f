// Package limiter provides token bucket rate limiting keyed by request route
// Package limiter 提供按请求路由区分的令牌桶限流
package limiter

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/juju/ratelimit"
)

// Face limiter interface
// Face 限流器接口
type Face interface {
	Key(c *gin.Context) string
	GetBucket(key string) (*ratelimit.Bucket, bool)
	AddBuckets(rules ...BucketRule) Face
}

// Limiter holds one bucket per key
// Limiter 每个键持有一个令牌桶
type Limiter struct {
	limiterBuckets map[string]*ratelimit.Bucket
}

// BucketRule token bucket rule
// BucketRule 令牌桶规则
type BucketRule struct {
	Key          string        // Route key // 路由键
	FillInterval time.Duration // Interval between refills // 填充间隔
	Capacity     int64         // Bucket capacity // 桶容量
	Quantum      int64         // Tokens added per interval // 每次填充的令牌数
}
