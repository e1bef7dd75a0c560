package webclient

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Reply is what a single attempt observed.
type Reply struct {
	Status int
	Body   []byte
	Header http.Header
}

type AttemptFunc func() (Reply, error)

// Backoff bounds the retry loop. Max caps both the exponential delay and any
// wait the server asks for.
type Backoff struct {
	Attempts int
	Initial  time.Duration
	Max      time.Duration
}

func (b Backoff) normalized() Backoff {
	if b.Attempts <= 0 {
		b.Attempts = 1
	}
	if b.Initial <= 0 {
		b.Initial = 500 * time.Millisecond
	}
	if b.Max < b.Initial {
		b.Max = b.Initial
	}
	return b
}

// DoWithRetry retries fn on transport errors and transient statuses. A server
// that names its own wait (Retry-After, x-rate-limit-reset) is honoured, unless
// that wait is longer than Max or outlives ctx; then the reply is returned as-is.
func DoWithRetry(ctx context.Context, b Backoff, fn AttemptFunc) (Reply, error) {
	b = b.normalized()
	delay := b.Initial
	var (
		reply Reply
		err   error
	)
	for i := 0; i < b.Attempts; i++ {
		reply, err = fn()
		if err == nil && !Transient(reply.Status) {
			return reply, nil
		}
		if i == b.Attempts-1 {
			break
		}

		wait := delay
		if err == nil {
			if asked, ok := ServerWait(reply.Header, time.Now()); ok {
				if asked > b.Max {
					return reply, nil
				}
				wait = asked
			}
		}
		if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < wait {
			return reply, err
		}

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return reply, ctx.Err()
		case <-t.C:
		}
		delay = min(delay*2, b.Max)
	}
	return reply, err
}

// Transient reports whether an HTTP status is worth retrying.
func Transient(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// ServerWait reads how long the server asked the client to back off: Retry-After
// as seconds or an HTTP date, else Twitter's x-rate-limit-reset epoch seconds.
func ServerWait(h http.Header, now time.Time) (time.Duration, bool) {
	if ra := strings.TrimSpace(h.Get("Retry-After")); ra != "" {
		if secs, err := strconv.Atoi(ra); err == nil {
			return max(time.Duration(secs)*time.Second, 0), true
		}
		if at, err := http.ParseTime(ra); err == nil {
			return max(at.Sub(now), 0), true
		}
	}
	if reset := strings.TrimSpace(h.Get("x-rate-limit-reset")); reset != "" {
		if epoch, err := strconv.ParseInt(reset, 10, 64); err == nil {
			return max(time.Unix(epoch, 0).Sub(now), 0), true
		}
	}
	return 0, false
}
