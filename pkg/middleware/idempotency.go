package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const idempotencyKeyHeader = "Idempotency-Key"
const idempotencyTTL = 24 * time.Hour

// idempotencyStore is the slice of redis the middleware needs.
type idempotencyStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// IdempotencyMiddleware replays cached responses for repeated
// Idempotency-Key headers on mutating requests. Successful responses
// are cached for 24h; without redis the middleware is a passthrough.
func IdempotencyMiddleware(redisClient *redis.Client) gin.HandlerFunc {
	var store idempotencyStore
	if redisClient != nil {
		store = redisClient
	}
	return idempotencyHandler(store)
}

func idempotencyHandler(store idempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil {
			c.Next()
			return
		}

		// Only apply to POST, PUT, PATCH
		if c.Request.Method != http.MethodPost &&
			c.Request.Method != http.MethodPut &&
			c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}

		key := c.GetHeader(idempotencyKeyHeader)
		if key == "" {
			c.Next()
			return
		}

		cacheKey := "idempotency:" + hashIdempotencyKey(key)

		ctx := c.Request.Context()
		val, err := store.Get(ctx, cacheKey).Result()
		if err == nil && val != "" {
			c.Header("X-Idempotency-Key-Used", "true")
			c.Data(http.StatusOK, "application/json", []byte(val))
			c.Abort()
			return
		}

		// Miss: run the handler with the body captured, then cache
		// successful responses under the key.
		capture := &bodyCaptureWriter{ResponseWriter: c.Writer}
		c.Writer = capture
		c.Next()

		status := capture.Status()
		if status >= 200 && status < 300 && capture.body.Len() > 0 {
			store.Set(c.Request.Context(), cacheKey, capture.body.String(), idempotencyTTL)
		}
	}
}

// bodyCaptureWriter tees the response body so it can be cached.
type bodyCaptureWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyCaptureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyCaptureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

func hashIdempotencyKey(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:])
}
