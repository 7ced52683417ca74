package middleware

import (
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/duongtruongbinh/life-os/internal/request"
)

// DefaultRateLimit is used when no rate is configured.
const DefaultRateLimit = "10-S"

// RateLimit limits requests per user, or per client IP before Auth has run,
// with counters kept in Redis. rate uses the limiter format, e.g. "10-S".
func RateLimit(redisClient *redis.Client, rate string) (func(http.Handler) http.Handler, error) {
	store, err := redisstore.NewStoreWithOptions(redisClient, limiter.StoreOptions{Prefix: "life_os_limiter"})
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit store: %w", err)
	}
	return RateLimitWithStore(store, rate)
}

// RateLimitWithStore is RateLimit over any limiter store.
func RateLimitWithStore(store limiter.Store, rate string) (func(http.Handler) http.Handler, error) {
	if rate == "" {
		rate = DefaultRateLimit
	}
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit %q: %w", rate, err)
	}

	mw := stdlibmw.NewMiddleware(limiter.New(store, parsed),
		stdlibmw.WithKeyGetter(rateLimitKey),
		stdlibmw.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusTooManyRequests, "Too Many Requests", "Rate limit exceeded")
		}),
	)
	return mw.Handler, nil
}

func rateLimitKey(r *http.Request) string {
	if u := request.UserFromContext(r); u != nil {
		return "user:" + u.ID.String()
	}
	return "ip:" + request.ClientIP(r)
}
