package stats

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// bucketWidth groups scores into 100-point histogram buckets labeled
// "0-99", "100-199", and so on.
const bucketWidth = 100

// Histogram maps bucket labels to observation counts. The zero value of
// the map type is not usable; construct with NewHistogram or ParseHistogram.
type Histogram map[string]int

// NewHistogram returns an empty histogram.
func NewHistogram() Histogram {
	return make(Histogram)
}

// ParseHistogram rebuilds a histogram from its flat storage form, e.g.
// "0-99:3,100-199:1". Malformed segments are dropped rather than failing
// the whole record.
func ParseHistogram(s string) Histogram {
	h := NewHistogram()
	for _, segment := range strings.Split(s, ",") {
		if segment == "" {
			continue
		}
		label, countStr, ok := strings.Cut(segment, ":")
		if !ok {
			continue
		}
		count, err := strconv.Atoi(countStr)
		if err != nil || count < 0 {
			continue
		}
		h[label] = count
	}
	return h
}

// Record increments the bucket containing score.
func (h Histogram) Record(score int) {
	h[BucketLabel(score)]++
}

// String serializes the histogram for storage, buckets ordered by their
// lower bound.
func (h Histogram) String() string {
	labels := make([]string, 0, len(h))
	for label := range h {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		return bucketLowerBound(labels[i]) < bucketLowerBound(labels[j])
	})

	segments := make([]string, 0, len(labels))
	for _, label := range labels {
		segments = append(segments, fmt.Sprintf("%s:%d", label, h[label]))
	}
	return strings.Join(segments, ",")
}

// BucketLabel returns the histogram bucket containing score.
func BucketLabel(score int) string {
	lower := (score / bucketWidth) * bucketWidth
	return fmt.Sprintf("%d-%d", lower, lower+bucketWidth-1)
}

func bucketLowerBound(label string) int {
	lowerStr, _, ok := strings.Cut(label, "-")
	if !ok {
		return 0
	}
	lower, err := strconv.Atoi(lowerStr)
	if err != nil {
		return 0
	}
	return lower
}
