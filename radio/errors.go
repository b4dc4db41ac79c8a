package radio

import (
	"errors"

	"github.com/Southclaws/fault/ftag"
)

// The different radio command error types.
var (
	ErrToolMissing   = errors.New("radio control utility not found")
	ErrCommandFailed = errors.New("radio control command failed")
	ErrTimeout       = errors.New("radio control command timed out")
	ErrUnexpected    = errors.New("unexpected radio control output")
)

// The error kinds attached to wrapped radio errors.
const (
	KindToolMissing   ftag.Kind = "TOOL_MISSING"
	KindCommandFailed ftag.Kind = "COMMAND_FAILED"
	KindTimeout       ftag.Kind = "TIMEOUT"
)

// Kind returns the error kind of a radio error.
// Timeouts are reported as command failures by the adapters,
// but can be distinguished here for logging.
func Kind(err error) ftag.Kind {
	if err == nil {
		return ""
	}

	return ftag.Get(err)
}
