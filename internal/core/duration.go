package core

import (
	"fmt"
	"strings"
	"time"
)

// parseDurationOrDefault parses a Go duration string from config,
// falling back to def when the field is empty.
func parseDurationOrDefault(name, raw string, def time.Duration) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", name, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", name)
	}
	return d, nil
}
