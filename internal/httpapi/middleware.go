package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rdwj/vectorgateway/internal/logging"
)

// searchLogFields is the per-request context a handler attaches for the
// logging middleware to emit after the handler runs. Grounded on
// app.py's /search handler, which logs a single structured line per
// request with query/collection/top_k/hit-count/latency.
type searchLogFields struct {
	collection string
	topK       int
	hasFilters bool
	reranked   bool
	hitCount   int
}

const logFieldsKey = "httpapi.logFields"

func setLogFields(c *gin.Context, f searchLogFields) {
	c.Set(logFieldsKey, f)
}

// requestLogger emits one structured line per request: method, path,
// status, latency, plus whatever searchLogFields the handler attached
// via setLogFields.
func requestLogger(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		kv := []interface{}{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
		}
		if raw, ok := c.Get(logFieldsKey); ok {
			if f, ok := raw.(searchLogFields); ok {
				kv = append(kv,
					"collection", f.collection,
					"top_k", f.topK,
					"has_filters", f.hasFilters,
					"reranked", f.reranked,
					"hit_count", f.hitCount,
				)
			}
		}
		log.Info("request", kv...)
	}
}

// recovery converts a panic in a handler into a 500 instead of crashing
// the process, grounded on gin.Recovery's role in the teacher/pack's
// standard middleware chain.
func recovery(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic recovered", "error", r, "path", c.FullPath())
				respondError(c, 500, "internal error")
				c.Abort()
			}
		}()
		c.Next()
	}
}
