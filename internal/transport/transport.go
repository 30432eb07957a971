package transport

import (
	"context"
	"errors"
)

// ErrClosed is the sentinel for a closed transport. Neither
// HidrawTransport nor SocketTransport returns it: after Close, their
// ReadFrame and WriteFrame return the wrapped error of the underlying
// file or connection.
var ErrClosed = errors.New("transport: closed")

// FrameTransport reads and writes single HID frames. One Read returns
// exactly one frame's worth of bytes; one Write sends exactly one
// frame. Implementations do not interpret frame contents.
type FrameTransport interface {
	// ReadFrame checks ctx before the read starts, then blocks until a
	// frame arrives or the transport is closed; cancelling ctx does not
	// interrupt a read already in progress.
	ReadFrame(ctx context.Context) ([]byte, error)

	// WriteFrame sends a single frame. len(frame) must equal FrameSize.
	WriteFrame(ctx context.Context, frame []byte) error

	// FrameSize returns the fixed frame size this transport reads and
	// writes.
	FrameSize() int

	Close() error
}
