package http

import (
	"time"

	"golang.org/x/time/rate"
)

const maxRateBurst = 10

// rateLimiter throttles inbound frames of one connection. A nil limiter
// allows everything.
type rateLimiter struct {
	lim *rate.Limiter
}

func newRateLimiter(perMinute int) *rateLimiter {
	if perMinute <= 0 {
		return nil
	}
	burst := min(perMinute, maxRateBurst)
	return &rateLimiter{
		lim: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst),
	}
}

func (r *rateLimiter) allow() bool {
	if r == nil {
		return true
	}
	return r.lim.Allow()
}
