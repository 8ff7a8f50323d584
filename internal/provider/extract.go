package provider

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ExtractRetryAfter normalizes a server-suggested wait from the response
// headers of a 429.
//
// Retry-After may be delta-seconds ("30") or an HTTP-date. football-data.org
// also sends X-RequestCounter-Reset with the seconds until the per-minute
// counter resets. Returns ok=false when no usable value is present.
func ExtractRetryAfter(h http.Header, now time.Time) (int, bool) {
	if v := strings.TrimSpace(h.Get("Retry-After")); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			return secs, true
		}
		if at, err := http.ParseTime(v); err == nil {
			secs := int(at.Sub(now).Round(time.Second) / time.Second)
			if secs < 0 {
				secs = 0
			}
			return secs, true
		}
	}
	if v := strings.TrimSpace(h.Get("X-RequestCounter-Reset")); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			return secs, true
		}
	}
	return 0, false
}
