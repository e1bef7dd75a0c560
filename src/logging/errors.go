package logging

import (
	"errors"
	"strings"
)

// IsRateLimit reports whether err looks like an upstream 429 / rate_limit rejection.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	var rl interface{ RateLimited() bool }
	if errors.As(err, &rl) {
		return rl.RateLimited()
	}
	msg := err.Error()
	return strings.Contains(msg, "rate_limit") || strings.Contains(msg, "429")
}
