package cassandra

import "github.com/dreamware/kronos/internal/ktime"

// bucketsOverlapping returns every bucket start time in [from, to], in
// ascending order, for a stream of the given width. Retrieve and Delete
// fan out over exactly these buckets (§4.4): the one containing from,
// the one containing to, and every whole bucket between them.
func bucketsOverlapping(from, to, width ktime.KronosTime) []ktime.KronosTime {
	start := ktime.RoundDown(from, width)
	end := ktime.RoundDown(to, width)

	var buckets []ktime.KronosTime
	for b := start; b <= end; b += width {
		buckets = append(buckets, b)
	}
	return buckets
}
