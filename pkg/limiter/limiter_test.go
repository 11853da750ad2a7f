package limiter

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMethodLimiter_KeyAndBucket(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l := NewMethodLimiter().AddBuckets(
		BucketRule{Key: "/api/auth", FillInterval: time.Hour, Capacity: 2, Quantum: 2},
		BucketRule{Key: "/api/auth/login", FillInterval: time.Hour, Capacity: 1, Quantum: 1},
	)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("POST", "/api/auth/login", nil)
	assert.Equal(t, "/api/auth/login", l.Key(c))

	c.Request = httptest.NewRequest("POST", "/api/auth/register", nil)
	assert.Equal(t, "/api/auth", l.Key(c))

	c.Request = httptest.NewRequest("GET", "/api/notes", nil)
	key := l.Key(c)
	assert.Equal(t, "/api/notes", key)
	_, ok := l.GetBucket(key)
	assert.False(t, ok)

	bucket, ok := l.GetBucket("/api/auth")
	require.True(t, ok)
	assert.Equal(t, int64(1), bucket.TakeAvailable(1))
	assert.Equal(t, int64(1), bucket.TakeAvailable(1))
	assert.Equal(t, int64(0), bucket.TakeAvailable(1))
}
