package panel

import (
	"math"
	"strconv"
	"strings"
)

// DefaultCount is the room-count selector value at start and the substitute
// for any invalid entry.
const DefaultCount = 1

// ParseCount turns raw selector input into a room count. Empty, non-numeric
// and non-positive input becomes DefaultCount; fractions are truncated. There
// is no upper clamp: the booking service validates the range.
func ParseCount(raw string) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || f < 1 {
		return DefaultCount
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(f)
}
