package duration

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// ErrInvalidDuration is returned for any lifetime string that does not
// match <digits><unit>. Callers translate it to a bad request at the
// boundary, it should never surface raw.
var ErrInvalidDuration = errors.New("invalid duration format")

var lifetimeRe = regexp.MustCompile(`^(\d+)([hd])$`)

// Parse converts a human readable lifetime string to a duration.
// Supported units: 'h' (hours) and 'd' (days). The value must be a
// positive integer: "1h", "7d". Everything else fails with
// ErrInvalidDuration, including zero values and trailing garbage.
func Parse(spec string) (time.Duration, error) {
	match := lifetimeRe.FindStringSubmatch(spec)
	if match == nil {
		return 0, fmt.Errorf("%w: expected <number><unit> like 1h or 7d, got %q", ErrInvalidDuration, spec)
	}

	value, err := strconv.Atoi(match[1])
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("%w: value must be a positive integer, got %q", ErrInvalidDuration, spec)
	}

	switch match[2] {
	case "h":
		return time.Duration(value) * time.Hour, nil
	case "d":
		return time.Duration(value) * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("%w: unknown unit in %q", ErrInvalidDuration, spec)
	}
}
