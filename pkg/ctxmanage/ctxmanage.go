package ctxmanage

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TraceIDKey is the gin context key under which the request trace id is stored.
const TraceIDKey = "trace_id"

// GetTraceIdOfRequest returns the trace id set by the logging middleware,
// generating a fresh one if the middleware did not run for this request.
func GetTraceIdOfRequest(c *gin.Context) string {
	v, ok := c.Get(TraceIDKey)
	if !ok {
		return uuid.NewString()
	}
	traceId, ok := v.(string)
	if !ok || traceId == "" {
		return uuid.NewString()
	}
	return traceId
}
