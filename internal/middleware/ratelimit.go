package middleware

import (
    "context"
    "fmt"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "go.uber.org/zap"

    "github.com/iliyamo/hotel-booking/internal/config"
)

// tokenBucketScript refills the bucket for the elapsed whole intervals,
// takes one token and returns {allowed, remaining, retry_after_ms}.
//
// KEYS[1] bucket key; ARGV: now_ms, capacity, interval_ms, ttl_ms.
var tokenBucketScript = redis.NewScript(`
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local interval_ms = tonumber(ARGV[3])
local ttl_ms = tonumber(ARGV[4])

local state = redis.call('HMGET', KEYS[1], 'tokens', 'refilled_at')
local tokens = tonumber(state[1]) or capacity
local refilled_at = tonumber(state[2]) or now_ms

local steps = math.floor(math.max(0, now_ms - refilled_at) / interval_ms)
if steps > 0 then
    tokens = math.min(capacity, tokens + steps)
    refilled_at = refilled_at + steps * interval_ms
end

local allowed, retry_ms = 0, 0
if tokens > 0 then
    allowed = 1
    tokens = tokens - 1
else
    retry_ms = math.max(0, interval_ms - (now_ms - refilled_at))
end

redis.call('HSET', KEYS[1], 'tokens', tokens, 'refilled_at', refilled_at)
redis.call('PEXPIRE', KEYS[1], ttl_ms)
return {allowed, tokens, retry_ms}
`)

// Decision is the result of taking one token from a bucket.
type Decision struct {
    Allowed    bool
    Remaining  int64
    RetryAfter time.Duration
}

// bucketStore takes tokens from named buckets.
type bucketStore interface {
    Take(ctx context.Context, key string, b config.Bucket, now time.Time) (Decision, error)
}

// redisStore keeps buckets in Redis hashes updated by tokenBucketScript.
type redisStore struct {
    rdb *redis.Client
}

func (s redisStore) Take(ctx context.Context, key string, b config.Bucket, now time.Time) (Decision, error) {
    vals, err := tokenBucketScript.Run(ctx, s.rdb, []string{key},
        now.UnixMilli(), b.Capacity, b.RefillEvery.Milliseconds(), b.TTL().Milliseconds(),
    ).Int64Slice()
    if err != nil {
        return Decision{}, err
    }
    if len(vals) != 3 {
        return Decision{}, fmt.Errorf("token bucket: unexpected reply %v", vals)
    }
    return Decision{
        Allowed:    vals[0] == 1,
        Remaining:  vals[1],
        RetryAfter: time.Duration(vals[2]) * time.Millisecond,
    }, nil
}

// RateLimiter builds per-route limiting middleware.  When limiting is
// disabled or Redis is unavailable every policy is a pass-through, and a
// Redis error lets the request through.
type RateLimiter struct {
    prefix string
    store  bucketStore
    log    *zap.Logger
    now    func() time.Time
}

// NewRateLimiter returns a limiter backed by rdb.  rdb may be nil.
func NewRateLimiter(cfg config.RateLimitConfig, rdb *redis.Client, log *zap.Logger) *RateLimiter {
    l := &RateLimiter{prefix: cfg.Prefix, log: log, now: time.Now}
    if cfg.Enabled && rdb != nil {
        l.store = redisStore{rdb: rdb}
    }
    return l
}

// PerUser limits an authenticated route by the user id JWTAuth put on the
// context, so it must run after JWTAuth.  Refusals answer 429.
func (l *RateLimiter) PerUser(route string, b config.Bucket) echo.MiddlewareFunc {
    return l.limit(route, b, func(c echo.Context) string {
        if uid := currentUserID(c); uid != "" {
            return "user:" + uid
        }
        return "ip:" + c.RealIP()
    }, nil)
}

// PerIP limits a public route by client address.  deny renders a refused
// request; nil means the default 429.
func (l *RateLimiter) PerIP(route string, b config.Bucket, deny echo.HandlerFunc) echo.MiddlewareFunc {
    return l.limit(route, b, func(c echo.Context) string { return "ip:" + c.RealIP() }, deny)
}

func (l *RateLimiter) limit(route string, b config.Bucket, subject func(echo.Context) string, deny echo.HandlerFunc) echo.MiddlewareFunc {
    if l.store == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    if deny == nil {
        deny = tooManyRequests
    }
    b = b.Normalized()
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := l.prefix + ":" + route + ":" + subject(c)
            d, err := l.store.Take(c.Request().Context(), key, b, l.now())
            if err != nil {
                l.log.Warn("rate limit check failed", zap.String("key", key), zap.Error(err))
                return next(c)
            }

            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", strconv.Itoa(b.Capacity))
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(d.Remaining, 10))
            if d.Allowed {
                return next(c)
            }

            h.Set("Retry-After", strconv.FormatInt(retrySeconds(d.RetryAfter), 10))
            l.log.Info("rate limited", zap.String("key", key), zap.Duration("retry_after", d.RetryAfter))
            return deny(c)
        }
    }
}

func tooManyRequests(c echo.Context) error {
    return c.JSON(http.StatusTooManyRequests, map[string]any{
        "status":  "error",
        "code":    "TOO_MANY_REQUESTS",
        "message": "rate limit exceeded",
    })
}

// retrySeconds rounds up, so a client never retries early.
func retrySeconds(d time.Duration) int64 {
    if d <= 0 {
        return 0
    }
    return int64((d + time.Second - 1) / time.Second)
}

// currentUserID renders the user_id set by JWTAuth, or "" when absent.
func currentUserID(c echo.Context) string {
    switch v := c.Get("user_id").(type) {
    case string:
        return v
    case float64:
        return strconv.FormatFloat(v, 'f', 0, 64)
    case uint64:
        return strconv.FormatUint(v, 10)
    }
    return ""
}
