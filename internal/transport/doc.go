// Package transport implements the frame-level adapters that feed raw
// HID frames into a ctaphid.Engine and write its responses back out.
// FrameTransport is the narrow interface the rest of the package is
// built against; HidrawTransport and SocketTransport are its two
// concrete implementations.
package transport
