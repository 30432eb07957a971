package attestation

import "errors"

// Sentinel errors returned by the encoders. These are returned to the
// caller one level up (an attestation-producer, e.g. internal/authcore);
// they never reach the CTAPHID wire directly (spec.md §7).
var (
	// ErrInvalidLength indicates a byte string is too long for the 16-bit
	// wire field that carries its length (a credential ID over 0xFFFF
	// bytes).
	ErrInvalidLength = errors.New("attestation: invalid length")

	// ErrInvalidState indicates a flag and its section disagree: a flag
	// implies a section that was not supplied (AT=1 without
	// AttestedCredentialData, or ED=1 without extension bytes), or a
	// section was supplied while its flag is clear.
	ErrInvalidState = errors.New("attestation: invalid state")
)
