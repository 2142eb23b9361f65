// Package protocol encodes and decodes the fan's plain-text UDP messages.
// This package is pure: no sockets, no time, no logging.
package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// QueryStatus is the status query message: a bare "s" with no arguments.
// The device answers with its current speed level.
const QueryStatus = "s"

// ErrMalformed is returned when a status reply cannot be parsed.
var ErrMalformed = errors.New("malformed status reply")

// EncodeSetSpeed returns the wire message that sets the fan to the given
// speed level. Levels outside [0,3] are the caller's bug; the message is
// encoded as given.
func EncodeSetSpeed(level int) string {
	return fmt.Sprintf("s,%d", level)
}

// EncodeSetPower returns the wire message that powers the fan on or off.
func EncodeSetPower(on bool) string {
	if on {
		return "f,1"
	}
	return "f,0"
}

// ParseStatus decodes a status reply datagram. The reply is text, comma
// delimited; the first field is the speed level. Trailing fields are
// ignored. Range checking is the caller's concern.
func ParseStatus(data []byte) (int, error) {
	text := strings.TrimSpace(string(data))
	field, _, _ := strings.Cut(text, ",")
	level, err := strconv.Atoi(field)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformed, text)
	}
	return level, nil
}
