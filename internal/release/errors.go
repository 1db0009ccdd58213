package release

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ErrNoReleaseFound is returned when the requested version is absent from
// the release history.
var ErrNoReleaseFound = errors.New("no release found")

// StatusError is returned for a non-200 response from the release API.
type StatusError struct {
	URL        string
	StatusCode int
	// RateLimited is set when the API reports an exhausted quota.
	RateLimited bool
	// ResetIn is how long until the quota resets, when known.
	ResetIn time.Duration
}

func (e *StatusError) Error() string {
	if e.RateLimited {
		if e.ResetIn > 0 {
			return fmt.Sprintf("rate limit exceeded for %s, try again in %s", e.URL, e.ResetIn.Round(time.Second))
		}
		return fmt.Sprintf("rate limit exceeded for %s", e.URL)
	}
	return fmt.Sprintf("unexpected status code %d from %s", e.StatusCode, e.URL)
}

// newStatusError inspects the rate-limit headers of a failed response.
func newStatusError(url string, resp *http.Response, now time.Time) *StatusError {
	e := &StatusError{URL: url, StatusCode: resp.StatusCode}

	if resp.StatusCode != http.StatusForbidden && resp.StatusCode != http.StatusTooManyRequests {
		return e
	}
	if resp.Header.Get("X-RateLimit-Remaining") != "0" && resp.StatusCode != http.StatusTooManyRequests {
		return e
	}

	e.RateLimited = true
	if until, ok := parseRateLimitReset(resp.Header, now); ok {
		e.ResetIn = until
	}
	return e
}

// parseRateLimitReset reads the X-RateLimit-Reset epoch header.
func parseRateLimitReset(h http.Header, now time.Time) (time.Duration, bool) {
	raw := h.Get("X-RateLimit-Reset")
	if raw == "" {
		return 0, false
	}

	reset, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}

	return time.Unix(reset, 0).Sub(now.UTC()), true
}
