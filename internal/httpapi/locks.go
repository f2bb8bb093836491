package httpapi

import (
	"net/http"
	"time"

	"reservation-caller/pkg/logger"
	"reservation-caller/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	callLockTTL      = 15 * time.Second
	callLockAttempts = 3
	callLockBackoff  = 200 * time.Millisecond
)

// CallLock serializes webhook handling per call id. Twilio retries and
// overlapping gather/status deliveries for one call must not interleave their
// read-modify-write sequences; different calls proceed in parallel.
//
// With a nil client (no Redis configured) the middleware is a no-op: a single
// process is then the only writer and the repo's own mutex suffices.
func CallLock(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		callID := lockCallID(c)
		if rdb == nil || callID == "" {
			c.Next()
			return
		}

		key := "call:lock:" + callID
		token := uuid.NewString()

		acquired := false
		var lockErr error
		for i := 0; i < callLockAttempts; i++ {
			acquired, lockErr = utils.AcquireCallLock(c.Request.Context(), rdb, key, token, callLockTTL)
			if acquired || lockErr != nil {
				break
			}
			time.Sleep(callLockBackoff)
		}
		if lockErr != nil {
			// Redis trouble degrades to unserialized handling rather than
			// dropping the webhook.
			logger.FromGin(c).Warn("call lock acquire failed", "call_id", callID, "err", lockErr)
			c.Next()
			return
		}
		if !acquired {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "call busy, retry"})
			return
		}

		defer func() {
			if err := utils.ReleaseCallLock(c.Request.Context(), rdb, key, token); err != nil {
				logger.FromGin(c).Warn("call lock release failed", "call_id", callID, "err", err)
			}
		}()
		c.Next()
	}
}

// lockCallID resolves the call id the same way the status webhook does:
// query string first, form body as fallback.
func lockCallID(c *gin.Context) string {
	if id := c.Query("callId"); id != "" {
		return id
	}
	return c.PostForm("callId")
}
