package webserver

import (
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
)

const requestIDHeader = "X-Request-ID"

var diagnosticPolicy = bluemonday.StrictPolicy()

// diagnostic strips markup from internal error text before it is shown to a
// development client; panic values and provider errors may carry upstream HTML.
func diagnostic(s string) string {
	return diagnosticPolicy.Sanitize(s)
}

// requestContext tags every request with an id and puts a child logger in the request context.
func requestContext(base zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)

		logger := base.With().Str("request_id", id).Logger()
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context()))

		start := time.Now()
		c.Next()

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request handled")
	}
}

// recovery turns a panic into a 500; the stack is only returned outside production.
func recovery(production bool) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		stack := string(debug.Stack())
		zerolog.Ctx(c.Request.Context()).Error().
			Str("panic", fmt.Sprint(recovered)).
			Str("stack", stack).
			Msg("handler panicked")

		body := gin.H{"error": internalErrorMessage}
		if !production {
			body["error"] = diagnostic(fmt.Sprint(recovered))
			body["stack"] = diagnostic(stack)
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, body)
	})
}
