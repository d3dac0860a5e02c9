package ktime

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrOverflow is returned when a time conversion would not fit in a signed
// 64-bit kronos-time value. It corresponds to spec error kind OverflowError.
var ErrOverflow = errors.New("ktime: value overflows 64-bit kronos time")

// ticksPerSecond is the number of 100ns intervals in one second.
const ticksPerSecond = 1e7

// KronosTime is the number of 100ns intervals since 1970-01-01T00:00:00Z UTC.
// It is never mutated once produced.
type KronosTime int64

// SecondsToKronosTime converts a Unix timestamp, in seconds (may be
// fractional), to a KronosTime. It fails with ErrOverflow if the scaled
// value does not fit in an int64.
func SecondsToKronosTime(seconds float64) (KronosTime, error) {
	scaled := math.Floor(seconds * ticksPerSecond)
	if scaled > math.MaxInt64 || scaled < math.MinInt64 || math.IsNaN(scaled) {
		return 0, fmt.Errorf("%w: %g seconds", ErrOverflow, seconds)
	}
	return KronosTime(scaled), nil
}

// TimeToKronosTime converts a calendar time to a KronosTime.
func TimeToKronosTime(t time.Time) (KronosTime, error) {
	return SecondsToKronosTime(float64(t.UTC().UnixNano()) / 1e9)
}

// Seconds returns the KronosTime as fractional Unix seconds. The conversion
// is lossy below 100ns resolution, which kronos time itself does not carry.
func (k KronosTime) Seconds() float64 {
	return float64(k) / ticksPerSecond
}

// Time returns the KronosTime as a calendar time in UTC.
func (k KronosTime) Time() time.Time {
	whole := int64(k) / ticksPerSecond
	frac := int64(k) % ticksPerSecond
	if frac < 0 {
		frac += ticksPerSecond
		whole--
	}
	return time.Unix(whole, frac*100).UTC()
}

// RoundDown rounds v down to the nearest multiple of base. Both v and base
// are expected to be non-negative, as is true of every bucket-start
// computation in this package.
func RoundDown(v, base KronosTime) KronosTime {
	if base <= 0 {
		return v
	}
	return v - v%base
}
