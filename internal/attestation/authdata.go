package attestation

import "encoding/binary"

// AuthenticatorFlags is the single flags byte of AuthenticatorData
// (spec.md §3, WebAuthn §6.1). Only bits UP, UV, AT, and ED are defined;
// the remaining bits are reserved for future use and always written zero.
type AuthenticatorFlags struct {
	UP bool // user present
	UV bool // user verified
	AT bool // attested credential data included
	ED bool // extension data included
}

const (
	flagUP = 1 << 0
	flagUV = 1 << 2
	flagAT = 1 << 6
	flagED = 1 << 7
)

func (f AuthenticatorFlags) byteValue() byte {
	var b byte
	if f.UP {
		b |= flagUP
	}
	if f.UV {
		b |= flagUV
	}
	if f.AT {
		b |= flagAT
	}
	if f.ED {
		b |= flagED
	}
	return b
}

// AuthenticatorData is the authenticator-signed payload embedded in every
// attestation and assertion response (spec.md §3, WebAuthn §6.1).
//
// AttestedCredentialData is only encoded when Flags.AT is set, and
// ExtensionData only when Flags.ED is set; a flag set without its matching
// payload is an encoding error, not a zero-length section.
type AuthenticatorData struct {
	RPIDHash               [32]byte
	Flags                  AuthenticatorFlags
	SignCount              uint32
	AttestedCredentialData *AttestedCredentialData
	ExtensionData          []byte
}

// EncodeAuthData emits rp_id_hash || flags || be32(sign_count) followed by
// encode_acd(AttestedCredentialData) when Flags.AT is set and
// ExtensionData when Flags.ED is set (spec.md §4.1 "encode_auth_data").
//
// Returns ErrInvalidState if a flag is set without its corresponding
// payload or a payload is supplied with its flag clear, and propagates
// ErrInvalidLength from the nested ACD encode.
func EncodeAuthData(data AuthenticatorData) ([]byte, error) {
	if data.Flags.AT && data.AttestedCredentialData == nil {
		return nil, ErrInvalidState
	}
	if !data.Flags.AT && data.AttestedCredentialData != nil {
		return nil, ErrInvalidState
	}
	if data.Flags.ED && len(data.ExtensionData) == 0 {
		return nil, ErrInvalidState
	}
	if !data.Flags.ED && len(data.ExtensionData) != 0 {
		return nil, ErrInvalidState
	}

	out := make([]byte, 0, 32+1+4)
	out = append(out, data.RPIDHash[:]...)
	out = append(out, data.Flags.byteValue())

	var signCountBuf [4]byte
	binary.BigEndian.PutUint32(signCountBuf[:], data.SignCount)
	out = append(out, signCountBuf[:]...)

	if data.Flags.AT {
		acdBytes, err := EncodeACD(*data.AttestedCredentialData)
		if err != nil {
			return nil, err
		}
		out = append(out, acdBytes...)
	}

	if data.Flags.ED {
		out = append(out, data.ExtensionData...)
	}

	return out, nil
}
