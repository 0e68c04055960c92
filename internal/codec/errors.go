package codec

import (
	"fmt"
	"strings"
)

// CodecProcessError reports an encoder or decoder process that failed to
// start or exited abnormally.
type CodecProcessError struct {
	Stage  string // "encode", "decode" or "stream"
	Err    error
	Stderr string
}

func (e *CodecProcessError) Error() string {
	msg := fmt.Sprintf("codec %s process failed: %v", e.Stage, e.Err)
	if diag := strings.TrimSpace(e.Stderr); diag != "" {
		msg += ": " + diag
	}
	return msg
}

func (e *CodecProcessError) Unwrap() error {
	return e.Err
}

// ReshapeError reports decoded output whose size does not match a
// height x width x 3 frame. The decoded bytes are never truncated or padded.
type ReshapeError struct {
	Width    int
	Height   int
	Expected int
	Got      int
	Stderr   string
}

func (e *ReshapeError) Error() string {
	msg := fmt.Sprintf("cannot reshape decoded frame to %dx%dx3: expected %d bytes, got %d",
		e.Width, e.Height, e.Expected, e.Got)
	if diag := strings.TrimSpace(e.Stderr); diag != "" {
		msg += " (decoder: " + diag + ")"
	}
	return msg
}
