package fan

import "errors"

// Terminal dispatch errors. Retries are exhausted internally before any
// of these surface; errors.Is distinguishes the failure class.
var (
	// ErrSendExhausted means the transport rejected every send attempt.
	ErrSendExhausted = errors.New("send attempts exhausted")

	// ErrTimeout means no reply arrived within the deadline on any
	// attempt.
	ErrTimeout = errors.New("no reply before deadline")

	// ErrInvalidResponse means a reply arrived but was not parseable.
	// Not retried: retries address connectivity, not payload
	// corruption.
	ErrInvalidResponse = errors.New("invalid status reply")
)
