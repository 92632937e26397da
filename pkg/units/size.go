package units

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	dockerunits "github.com/docker/go-units"
)

// ErrUnitParse is returned when a size string has an unknown suffix or a
// non-numeric magnitude.
var ErrUnitParse = errors.New("invalid size")

// bytesPerGB is the decimal gigabyte used by every GB figure in reports.
const bytesPerGB = 1_000_000_000

// ParseSize converts a human readable size such as "1.2 GB", "500 MB",
// "12 kB" or "3 GiB" into an exact byte count. Decimal suffixes (kB, MB, GB,
// ...) use powers of 1000, binary suffixes (KiB, MiB, GiB, ...) use powers of
// 1024. A bare number is interpreted as bytes. Fractional magnitudes are
// rounded to the nearest byte, so "8.2 MB" is 8200000.
func ParseSize(text string) (int64, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrUnitParse)
	}

	parse := dockerunits.FromHumanSize
	if strings.HasSuffix(strings.ToLower(s), "ib") {
		parse = dockerunits.RAMInBytes
	}

	if _, err := parse(s); err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrUnitParse, text, err)
	}

	// The parsers scale a float64 and truncate. Scale the magnitude here and
	// round instead.
	split := strings.IndexFunc(s, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.'
	})
	if split < 0 {
		split = len(s)
	}

	magnitude, err := strconv.ParseFloat(s[:split], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrUnitParse, text, err)
	}

	multiplier, err := parse("1" + strings.TrimSpace(s[split:]))
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrUnitParse, text, err)
	}

	return int64(math.Round(magnitude * float64(multiplier))), nil
}

// BytesToGB converts a byte count to decimal gigabytes.
func BytesToGB(n int64) float64 {
	return float64(n) / bytesPerGB
}
