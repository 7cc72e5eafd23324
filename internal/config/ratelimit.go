package config

import "time"

// Bucket is one token-bucket policy: Capacity requests in a burst, then
// one more every RefillEvery.
type Bucket struct {
    Capacity    int
    RefillEvery time.Duration
}

// TTL is how long an idle bucket is kept: the time it takes to refill
// from empty, never less than a second.
func (b Bucket) TTL() time.Duration {
    ttl := time.Duration(b.Capacity) * b.RefillEvery
    if ttl < time.Second {
        return time.Second
    }
    return ttl
}

// RateLimitConfig holds the limits of the routes that take them.  The
// gateway IPN is not limited: it is authenticated by its signature and
// arrives from the gateway's shared addresses.
type RateLimitConfig struct {
    Enabled bool
    Prefix  string
    Booking Bucket // POST /v1/bookings, per authenticated user
    Return  Bucket // GET /v1/bookings/vnpay_return, per client IP
}

// LoadRateLimitConfig reads RATE_LIMIT_ENABLED, RATE_LIMIT_PREFIX and, for
// each policy, RATE_LIMIT_{BOOKING,RETURN}_BURST and _REFILL_EVERY.
func LoadRateLimitConfig() RateLimitConfig {
    return RateLimitConfig{
        Enabled: envBool("RATE_LIMIT_ENABLED", true),
        Prefix:  envStr("RATE_LIMIT_PREFIX", "rl"),
        Booking: loadBucket("RATE_LIMIT_BOOKING", Bucket{Capacity: 5, RefillEvery: 12 * time.Second}),
        Return:  loadBucket("RATE_LIMIT_RETURN", Bucket{Capacity: 20, RefillEvery: time.Second}),
    }
}

func loadBucket(prefix string, def Bucket) Bucket {
    return Bucket{
        Capacity:    envInt(prefix+"_BURST", def.Capacity),
        RefillEvery: envPositiveDur(prefix+"_REFILL_EVERY", def.RefillEvery),
    }.Normalized()
}

// Normalized raises Capacity to at least 1 and RefillEvery to at least a
// millisecond, the resolution the limiter works in.
func (b Bucket) Normalized() Bucket {
    if b.Capacity < 1 {
        b.Capacity = 1
    }
    if b.RefillEvery < time.Millisecond {
        b.RefillEvery = time.Millisecond
    }
    return b
}
