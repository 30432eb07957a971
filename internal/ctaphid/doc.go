// Package ctaphid implements the CTAPHID transaction layer: reassembly of
// multi-packet requests and fragmentation of responses over a HID-style
// fixed-size-frame transport (FIDO Alliance CTAP2, Section 8.1.4).
//
// The engine owns a single in-flight transaction, a bounded table of
// allocated logical channels, and the framing/timeout/error-signaling
// state machine described in that section. It delegates CBOR-level CTAP2
// command semantics to an injected Authenticator and raw frame I/O to the
// caller.
package ctaphid
