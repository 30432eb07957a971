package attestation

import "encoding/binary"

// aaguidLen is the fixed AAGUID length (spec.md §3, "aaguid: 16 bytes").
const aaguidLen = 16

// AttestedCredentialData is the credential-bearing substructure inside
// AuthenticatorData (spec.md §3). CredentialPublicKey is opaque,
// COSE-encoded bytes produced by the external key-encoder; this package
// never interprets or re-encodes them, only places them verbatim.
type AttestedCredentialData struct {
	AAGUID              [16]byte
	CredentialID        []byte
	CredentialPublicKey []byte
}

// EncodeACD emits aaguid || be16(credential_length) || credential_id ||
// credential_public_key (spec.md §4.1 "encode_acd").
//
// Returns ErrInvalidLength if len(CredentialID) exceeds the 16-bit wire
// field that carries it.
func EncodeACD(acd AttestedCredentialData) ([]byte, error) {
	if len(acd.CredentialID) > 0xFFFF {
		return nil, ErrInvalidLength
	}

	out := make([]byte, 0, aaguidLen+2+len(acd.CredentialID)+len(acd.CredentialPublicKey))
	out = append(out, acd.AAGUID[:]...)

	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(acd.CredentialID)))
	out = append(out, lenBuf[:]...)

	out = append(out, acd.CredentialID...)
	out = append(out, acd.CredentialPublicKey...)

	return out, nil
}
