package sortkey

import "errors"

// Sentinel kinds for key encoding errors.
var (
	ErrScoreOutOfRange = errors.New("score out of encodable range")
	ErrMalformedKey    = errors.New("malformed sort key")
)
