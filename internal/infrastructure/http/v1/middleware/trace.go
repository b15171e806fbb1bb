package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appctx "fletero/internal/core/context"
)

// HeaderRequestID is the correlation id header, echoed back on responses.
const HeaderRequestID = "X-Request-ID"

// Trace middleware attaches a request id to the request context so every
// log line of the request carries it.
func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx := appctx.WithTrace(c.Request.Context(), &appctx.Trace{
			RequestID: requestID,
		})
		c.Request = c.Request.WithContext(ctx)

		c.Set("request_id", requestID)
		c.Header(HeaderRequestID, requestID)

		c.Next()
	}
}
