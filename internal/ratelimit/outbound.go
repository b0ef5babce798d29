package ratelimit

import (
	"math"

	"golang.org/x/time/rate"
)

// NewOutbound returns the token bucket throttling calls to the chat platform
// API: rps calls per second with bursts of up to one second's worth.
// A non-positive rps disables throttling.
//
// Example:
//
//	// LINE allows 2,000 API calls per second; stay well below it.
//	limiter := ratelimit.NewOutbound(80)
func NewOutbound(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(rps), max(1, int(math.Ceil(rps))))
}
