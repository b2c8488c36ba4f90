package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"contacts-server/internal/schemas"
	"contacts-server/internal/utils"
)

// RateLimit enforces a fixed window request budget per client, tracked in
// redis with INCR + EXPIRE. The client is identified by the authenticated
// user's email when available, otherwise by IP. When redis is unavailable the
// limiter fails open so it never takes the API down with it. A nil client
// disables the limiter, for deployments without redis.
func RateLimit(client *redis.Client, limit int, window time.Duration, keyPrefix string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil {
			c.Next()
			return
		}

		var clientID string
		if user, ok := utils.GetCurrentUser(c); ok {
			clientID = "user:" + user.Email
		} else {
			clientID = "ip:" + c.ClientIP()
		}
		key := "rate:" + keyPrefix + ":" + clientID

		count, err := client.Incr(c, key).Result()
		if err != nil {
			utils.LogMessageWithFieldsAndError(c, "warn", "Rate limiter unavailable, failing open", err)
			c.Next()
			return
		}

		// First request in the window sets its expiry.
		if count == 1 {
			_ = client.Expire(c, key, window).Err()
		}

		ttl, _ := client.TTL(c, key).Result()

		if count > int64(limit) {
			c.Header("Retry-After", strconv.Itoa(int(ttl.Seconds())))
			utils.WriteAndLogError(c, schemas.RateLimitExceeded, http.StatusTooManyRequests,
				errors.New("request budget exceeded for "+keyPrefix))
			return
		}

		remaining := limit - int(count)
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.Itoa(int(ttl.Seconds())))

		c.Next()
	}
}
