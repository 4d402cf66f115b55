// Package sortkey derives lexicographically sortable row keys for
// leaderboard entries. Keys are built so that a plain ascending scan over
// a partition returns entries ordered by score descending, then by
// earliest submission, then by a uniqueness token.
package sortkey

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxScore is the highest encodable score. The inverted score field is
// zero-padded to the digit width of this constant.
const MaxScore = 999_999_999

const (
	scoreWidth       = 9 // digits in MaxScore
	secondLayout     = "20060102150405"
	keyPartSeparator = "_"
	keyParts         = 3
)

type encoder struct {
	milliseconds bool
}

// Option applies a configuration option to the key encoder.
type Option func(*encoder)

// WithMillisecondPrecision widens the timestamp field to millisecond
// resolution. Used on the collision-retry path to guarantee a distinct key.
func WithMillisecondPrecision() Option {
	return func(e *encoder) {
		e.milliseconds = true
	}
}

// Encode builds the row key for a score achieved at the given time.
// An empty token is replaced with a freshly generated one.
func Encode(score int, at time.Time, token string, opts ...Option) (string, error) {
	if score < 0 || score > MaxScore {
		return "", fmt.Errorf("%w: %d", ErrScoreOutOfRange, score)
	}

	e := &encoder{}
	for _, opt := range opts {
		opt(e)
	}

	if token == "" {
		token = Token()
	}

	at = at.UTC()
	ts := at.Format(secondLayout)
	if e.milliseconds {
		ts += fmt.Sprintf("%03d", at.Nanosecond()/int(time.Millisecond))
	}

	inverted := MaxScore - score
	return fmt.Sprintf("%0*d%s%s%s%s", scoreWidth, inverted, keyPartSeparator, ts, keyPartSeparator, token), nil
}

// Score recovers the score embedded in a row key.
func Score(key string) (int, error) {
	parts := strings.SplitN(key, keyPartSeparator, keyParts)
	if len(parts) != keyParts || len(parts[0]) != scoreWidth {
		return 0, fmt.Errorf("%w: %q", ErrMalformedKey, key)
	}
	// Encode emits digits only; reject sign characters Atoi would accept.
	for _, c := range parts[0] {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%w: %q", ErrMalformedKey, key)
		}
	}
	inverted, err := strconv.Atoi(parts[0])
	if err != nil || inverted > MaxScore {
		return 0, fmt.Errorf("%w: %q", ErrMalformedKey, key)
	}
	return MaxScore - inverted, nil
}

// Token returns a random uniqueness suffix for key disambiguation.
func Token() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}
