package authcore

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/go-ctap/ctapd/internal/attestation"
)

// CTAP2 command bytes this core recognizes. Any other byte is rejected
// with statusUnsupportedAlgorithm.
const (
	cmdMakeCredential = 0x01
	cmdGetInfo        = 0x04
)

// CTAP2-style status bytes. statusSuccess is not a CTAP2 status code in
// the strict sense; it is the leading byte every successful response
// carries ahead of its CBOR body, per the convention ctaphid.Engine
// itself does not enforce.
const (
	statusSuccess              = 0x00
	statusUnsupportedAlgorithm = 0x26
	statusInvalidCBOR          = 0x12
)

var demoAAGUID = [16]byte{'c', 't', 'a', 'p', 'd', '-', 'd', 'e', 'm', 'o', '-', 'a', 'a', 'g', 'u', 'i'}

// Core is a demo ctaphid.Authenticator. It is safe for concurrent use;
// it holds no mutable state of its own.
type Core struct {
	rpID string
}

// New builds a Core that binds generated credentials to rpID.
func New(rpID string) *Core {
	return &Core{rpID: rpID}
}

// Handle implements ctaphid.Authenticator. req is the full CBOR command
// body, with the CTAP2 command byte as its first byte.
func (c *Core) Handle(req []byte) (resp []byte, status byte, ok bool) {
	if len(req) == 0 {
		return nil, statusInvalidCBOR, false
	}

	switch req[0] {
	case cmdGetInfo:
		return c.handleGetInfo()
	case cmdMakeCredential:
		return c.handleMakeCredential()
	default:
		return nil, statusUnsupportedAlgorithm, false
	}
}

// handleGetInfo returns a fixed CBOR map naming one supported version,
// CTAP2's minimal authenticatorGetInfo response shape (map key 1 is the
// versions array).
func (c *Core) handleGetInfo() ([]byte, byte, bool) {
	body, err := cbor.Marshal(map[int]interface{}{
		1: []string{"FIDO_2_0"},
	})
	if err != nil {
		return nil, statusInvalidCBOR, false
	}

	return append([]byte{statusSuccess}, body...), statusSuccess, true
}

// handleMakeCredential builds a fresh credential ID, wraps it with a
// placeholder demo COSE public key in an AttestedCredentialData, and
// serializes a fmt="none" Attestation Object over it. No private key is
// produced or retained; this core never signs anything.
func (c *Core) handleMakeCredential() ([]byte, byte, bool) {
	credentialID := make([]byte, 16)
	if _, err := rand.Read(credentialID); err != nil {
		return nil, statusInvalidCBOR, false
	}

	acd := attestation.AttestedCredentialData{
		AAGUID:              demoAAGUID,
		CredentialID:        credentialID,
		CredentialPublicKey: demoCOSEKey(),
	}

	authData, err := attestation.EncodeAuthData(attestation.AuthenticatorData{
		RPIDHash:               sha256.Sum256([]byte(c.rpID)),
		Flags:                  attestation.AuthenticatorFlags{UP: true, AT: true},
		SignCount:              0,
		AttestedCredentialData: &acd,
	})
	if err != nil {
		return nil, statusInvalidCBOR, false
	}

	obj, err := attestation.EncodeAttestationObject(attestation.AttestationObject{
		Fmt:      "none",
		AuthData: authData,
	})
	if err != nil {
		return nil, statusInvalidCBOR, false
	}

	return append([]byte{statusSuccess}, obj...), statusSuccess, true
}

// demoCOSEKey returns a placeholder COSE_Key byte string shaped like a
// P-256 EC2 key (kty=2, alg=ES256, crv=P-256) with a freshly random,
// cryptographically meaningless point. It exists only to give
// EncodeACD's credential_public_key field something COSE-shaped to
// carry; no corresponding private key exists anywhere.
func demoCOSEKey() []byte {
	x := make([]byte, 32)
	y := make([]byte, 32)
	_, _ = rand.Read(x)
	_, _ = rand.Read(y)

	key, err := cbor.Marshal(map[int]interface{}{
		1:  2,        // kty: EC2
		3:  -7,       // alg: ES256
		-1: 1,        // crv: P-256
		-2: x,
		-3: y,
	})
	if err != nil {
		// Marshaling a map of primitive values cannot fail; this
		// would only trip if cbor's map encoder itself were broken.
		panic(fmt.Sprintf("authcore: encode demo COSE key: %v", err))
	}
	return key
}
