package transport_test

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-ctap/ctapd/internal/transport"
)

func dialedPair(t *testing.T) (client, server net.Conn) {
	t.Helper()

	dir := t.TempDir()
	sockPath := filepath.Join(dir, "ctapd.sock")

	ln, err := transport.ListenUnix(sockPath)
	if err != nil {
		t.Fatalf("ListenUnix: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	accepted := make(chan net.Conn, 1)
	acceptErr := make(chan error, 1)
	go func() {
		c, err := ln.Accept()
		if err != nil {
			acceptErr <- err
			return
		}
		accepted <- c
	}()

	c, err := net.DialTimeout("unix", sockPath, time.Second)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	select {
	case server = <-accepted:
	case err := <-acceptErr:
		t.Fatalf("Accept: %v", err)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for accept")
	}
	t.Cleanup(func() { _ = server.Close() })

	return c, server
}

func TestSocketTransportRoundTrip(t *testing.T) {
	t.Parallel()

	client, server := dialedPair(t)
	const frameSize = 64

	ct := transport.NewSocketTransport(client, frameSize)
	st := transport.NewSocketTransport(server, frameSize)

	ctx := context.Background()
	frame := make([]byte, frameSize)
	frame[0] = 0xAA
	frame[frameSize-1] = 0xBB

	errCh := make(chan error, 1)
	go func() { errCh <- ct.WriteFrame(ctx, frame) }()

	got, err := st.ReadFrame(ctx)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	if string(got) != string(frame) {
		t.Errorf("got %x, want %x", got, frame)
	}
}

func TestSocketTransportRejectsWrongSizedFrame(t *testing.T) {
	t.Parallel()

	client, _ := dialedPair(t)
	st := transport.NewSocketTransport(client, 64)

	if err := st.WriteFrame(context.Background(), make([]byte, 10)); err == nil {
		t.Error("expected error writing undersized frame")
	}
}

func TestSocketTransportReadCancelledByClosedContext(t *testing.T) {
	t.Parallel()

	client, _ := dialedPair(t)
	st := transport.NewSocketTransport(client, 64)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := st.ReadFrame(ctx); err == nil {
		t.Error("expected error reading with a cancelled context")
	}
}
