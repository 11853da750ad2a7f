package limiter

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/juju/ratelimit"
)

// MethodLimiter limits by route prefix, e.g. "/api/auth" covers /api/auth/login
// MethodLimiter 按路由前缀限流，例如 "/api/auth" 覆盖 /api/auth/login
type MethodLimiter struct {
	*Limiter
	prefixes []string
}

func NewMethodLimiter() Face {
	return &MethodLimiter{
		Limiter: &Limiter{limiterBuckets: make(map[string]*ratelimit.Bucket)},
	}
}

// Key returns the longest registered prefix of the request path, or the path itself
// Key 返回请求路径匹配的最长已注册前缀，没有时返回路径本身
func (l *MethodLimiter) Key(c *gin.Context) string {
	path := c.Request.URL.Path
	best := ""
	for _, prefix := range l.prefixes {
		if strings.HasPrefix(path, prefix) && len(prefix) > len(best) {
			best = prefix
		}
	}
	if best != "" {
		return best
	}
	return path
}

func (l *MethodLimiter) GetBucket(key string) (*ratelimit.Bucket, bool) {
	bucket, ok := l.limiterBuckets[key]
	return bucket, ok
}

func (l *MethodLimiter) AddBuckets(rules ...BucketRule) Face {
	for _, rule := range rules {
		if _, ok := l.limiterBuckets[rule.Key]; !ok {
			l.limiterBuckets[rule.Key] = ratelimit.NewBucketWithQuantum(rule.FillInterval, rule.Capacity, rule.Quantum)
			l.prefixes = append(l.prefixes, rule.Key)
		}
	}
	return l
}
