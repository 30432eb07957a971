// Package attestation implements the binary encoder for WebAuthn Attested
// Credential Data, Authenticator Data, and the Attestation Object envelope
// (W3C WebAuthn Level 2, Section 6.1, Section 6.5.4). It is pure and
// stateless: every function maps a typed structure to bytes with no I/O
// and no hidden state, so relying parties can verify signatures computed
// over its output byte-for-byte.
package attestation
