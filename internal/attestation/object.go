package attestation

import (
	"github.com/fxamacker/cbor/v2"
)

// AttestationObject is the top-level structure returned from a credential
// creation, CBOR-encoded as the fixed three-entry map {1: fmt, 2: authData,
// 3: attStmt} (spec.md §4.1 "encode_attestation_object", WebAuthn §6.5.4).
//
// AttStmt carries whatever fields the named format requires. A nil AttStmt
// is encoded as an empty map, which is the entire attestation statement
// for fmt "none".
type AttestationObject struct {
	Fmt      string
	AuthData []byte
	AttStmt  map[string]interface{}
}

// attestationObjectHeader is the CBOR header for a fixed 3-entry map
// followed by the integer key for each entry. Integers 0-23 encode as a
// single byte in CBOR major type 0, so these are literal, not computed;
// writing them by hand keeps the envelope's key order and map-length byte
// fixed regardless of how the underlying library would order a Go map.
var (
	mapHeader3 = []byte{0xA3}
	keyFmt     = []byte{0x01}
	keyAuth    = []byte{0x02}
	keyAttStmt = []byte{0x03}
)

// EncodeAttestationObject emits the CBOR bytes for obj. Every value is
// encoded independently and concatenated behind the hand-written map
// header, so the output is byte-for-byte deterministic and does not
// depend on the CBOR library's internal map key ordering.
func EncodeAttestationObject(obj AttestationObject) ([]byte, error) {
	fmtBytes, err := cbor.Marshal(obj.Fmt)
	if err != nil {
		return nil, err
	}

	authDataBytes, err := cbor.Marshal(obj.AuthData)
	if err != nil {
		return nil, err
	}

	attStmt := obj.AttStmt
	if attStmt == nil {
		attStmt = map[string]interface{}{}
	}
	attStmtBytes, err := cbor.Marshal(attStmt)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(mapHeader3)+len(keyFmt)+len(fmtBytes)+len(keyAuth)+len(authDataBytes)+len(keyAttStmt)+len(attStmtBytes))
	out = append(out, mapHeader3...)
	out = append(out, keyFmt...)
	out = append(out, fmtBytes...)
	out = append(out, keyAuth...)
	out = append(out, authDataBytes...)
	out = append(out, keyAttStmt...)
	out = append(out, attStmtBytes...)

	return out, nil
}
