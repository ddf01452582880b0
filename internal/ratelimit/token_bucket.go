package ratelimit

import (
	"time"

	"golang.org/x/time/rate"
)

// TokenBucket 令牌桶限流器，用于限制文档解码这类开销较大的请求
type TokenBucket struct {
	limiter *rate.Limiter

	now func() time.Time
}

// NewTokenBucket 按每分钟请求数创建限流器，capacity<=0 时取 qpm 的一半(至少为1)
func NewTokenBucket(qpm int, capacity int) *TokenBucket {
	if capacity <= 0 {
		capacity = qpm / 2
		if capacity <= 0 {
			capacity = 1
		}
	}

	return &TokenBucket{
		limiter: rate.NewLimiter(rate.Limit(float64(qpm)/60.0), capacity), // 初始填满
		now:     time.Now,
	}
}

// Allow 尝试消耗一个令牌，不等待
func (tb *TokenBucket) Allow() bool {
	return tb.limiter.AllowN(tb.now(), 1)
}

// RetryAfter 距离下一个令牌可用的时间，不消耗令牌
func (tb *TokenBucket) RetryAfter() time.Duration {
	now := tb.now()
	r := tb.limiter.ReserveN(now, 1)
	if !r.OK() {
		return 0
	}
	defer r.CancelAt(now)
	return r.DelayFrom(now)
}

// Burst 桶容量
func (tb *TokenBucket) Burst() int {
	return tb.limiter.Burst()
}
