package auth

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseExpiry parses a token lifetime. It accepts Go durations ("720h"),
// a day count with a "d" suffix ("30d") and bare seconds ("3600").
func ParseExpiry(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("empty token expiry")
	}

	var d time.Duration
	if days, ok := strings.CutSuffix(raw, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid token expiry %q", raw)
		}
		d = time.Duration(n) * 24 * time.Hour
	} else if secs, err := strconv.Atoi(raw); err == nil {
		d = time.Duration(secs) * time.Second
	} else {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return 0, fmt.Errorf("invalid token expiry %q: %w", raw, err)
		}
		d = parsed
	}

	if d <= 0 {
		return 0, fmt.Errorf("token expiry must be positive, got %q", raw)
	}
	return d, nil
}
