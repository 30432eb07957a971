//go:build linux

package transport

import (
	"context"
	"fmt"
	"os"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// hidraw ioctl request numbers, per linux/hidraw.h. x/sys/unix does not
// export these (they are device-class specific, not generic socket
// options), so they are computed here with the same _IOR encoding the
// kernel header uses: dir<<30 | size<<16 | type<<8 | nr.
const (
	hidIOCType = 'H'

	hidIOCGRDescSize = (2 << 30) | (4 << 16) | (hidIOCType << 8) | 0x01
	hidIOCGRawInfo   = (2 << 30) | (8 << 16) | (hidIOCType << 8) | 0x03
)

// hidrawDevInfo mirrors struct hidraw_devinfo from linux/hidraw.h.
type hidrawDevInfo struct {
	BusType uint32
	Vendor  int16
	Product int16
}

// HidrawTransport implements FrameTransport over a Linux hidraw device
// node. Frames are read and written as fixed-size blocking reads/writes;
// the kernel hidraw driver already delivers and accepts whole reports.
type HidrawTransport struct {
	f         *os.File
	frameSize int

	mu     sync.Mutex
	closed bool
}

// OpenHidraw opens path (e.g. "/dev/hidraw0") and verifies it really is
// a HID device by querying its report descriptor size and device info
// before handing back a transport.
func OpenHidraw(path string, frameSize int) (*HidrawTransport, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open hidraw device %s: %w", path, err)
	}

	if err := verifyHidDevice(f); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("verify hidraw device %s: %w", path, err)
	}

	return &HidrawTransport{f: f, frameSize: frameSize}, nil
}

// verifyHidDevice queries HIDIOCGRDESCSIZE and HIDIOCGRAWINFO to confirm
// the opened file descriptor is actually bound to a HID device before
// the transport starts framing reads and writes against it.
func verifyHidDevice(f *os.File) error {
	fd := int(f.Fd())

	var descSize int32
	if err := ioctl(fd, hidIOCGRDescSize, uintptr(unsafe.Pointer(&descSize))); err != nil {
		return fmt.Errorf("HIDIOCGRDESCSIZE: %w", err)
	}
	if descSize <= 0 {
		return fmt.Errorf("hidraw device reports empty descriptor (size=%d)", descSize)
	}

	var info hidrawDevInfo
	if err := ioctl(fd, hidIOCGRawInfo, uintptr(unsafe.Pointer(&info))); err != nil {
		return fmt.Errorf("HIDIOCGRAWINFO: %w", err)
	}

	return nil
}

func ioctl(fd int, req uintptr, arg uintptr) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, arg)
	if errno != 0 {
		return errno
	}
	return nil
}

func (t *HidrawTransport) FrameSize() int { return t.frameSize }

// ReadFrame blocks on a single read sized to FrameSize; the hidraw
// driver delivers exactly one report per read, so no reassembly loop is
// needed here (unlike SocketTransport, which is a raw byte stream).
func (t *HidrawTransport) ReadFrame(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	buf := make([]byte, t.frameSize)
	n, err := t.f.Read(buf)
	if err != nil {
		return nil, fmt.Errorf("hidraw read: %w", err)
	}
	if n != t.frameSize {
		return nil, fmt.Errorf("hidraw read: got %d bytes, want %d", n, t.frameSize)
	}
	return buf, nil
}

func (t *HidrawTransport) WriteFrame(ctx context.Context, frame []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(frame) != t.frameSize {
		return fmt.Errorf("hidraw write: frame length %d, want %d", len(frame), t.frameSize)
	}

	if _, err := t.f.Write(frame); err != nil {
		return fmt.Errorf("hidraw write: %w", err)
	}
	return nil
}

func (t *HidrawTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true

	if err := t.f.Close(); err != nil {
		return fmt.Errorf("hidraw close: %w", err)
	}
	return nil
}
