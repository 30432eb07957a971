package attestation_test

import (
	"bytes"
	"testing"

	"github.com/go-ctap/ctapd/internal/attestation"
)

func rpIDHash() [32]byte {
	var h [32]byte
	for i := range h {
		h[i] = byte(i + 1)
	}
	return h
}

func TestEncodeAuthDataNoAttestedData(t *testing.T) {
	t.Parallel()

	hash := rpIDHash()
	got, err := attestation.EncodeAuthData(attestation.AuthenticatorData{
		RPIDHash:  hash,
		Flags:     attestation.AuthenticatorFlags{UP: true},
		SignCount: 0,
	})
	if err != nil {
		t.Fatalf("EncodeAuthData: %v", err)
	}

	want := append([]byte{}, hash[:]...)
	want = append(want, 0x01, 0x00, 0x00, 0x00, 0x00) // flags=UP, sign_count=0

	if !bytes.Equal(got, want) {
		t.Errorf("EncodeAuthData =\n%x\nwant\n%x", got, want)
	}
}

func TestEncodeAuthDataWithAttestedCredential(t *testing.T) {
	t.Parallel()

	hash := rpIDHash()
	var aaguid [16]byte
	acd := attestation.AttestedCredentialData{
		AAGUID:              aaguid,
		CredentialID:        []byte{0x01, 0x02, 0x03, 0x04},
		CredentialPublicKey: []byte{0xA1, 0x01, 0x02},
	}

	got, err := attestation.EncodeAuthData(attestation.AuthenticatorData{
		RPIDHash:               hash,
		Flags:                  attestation.AuthenticatorFlags{UP: true, AT: true},
		SignCount:              0,
		AttestedCredentialData: &acd,
	})
	if err != nil {
		t.Fatalf("EncodeAuthData: %v", err)
	}

	// flags = UP(0x01) | AT(0x40) = 0x41
	if got[32] != 0x41 {
		t.Errorf("flags byte = %#x, want 0x41", got[32])
	}

	acdBytes, err := attestation.EncodeACD(acd)
	if err != nil {
		t.Fatalf("EncodeACD: %v", err)
	}
	wantTail := acdBytes
	gotTail := got[37:]
	if !bytes.Equal(gotTail, wantTail) {
		t.Errorf("attested credential data suffix =\n%x\nwant\n%x", gotTail, wantTail)
	}
}

func TestEncodeAuthDataRejectsATFlagWithoutData(t *testing.T) {
	t.Parallel()

	_, err := attestation.EncodeAuthData(attestation.AuthenticatorData{
		Flags: attestation.AuthenticatorFlags{AT: true},
	})
	if err != attestation.ErrInvalidState {
		t.Errorf("err = %v, want ErrInvalidState", err)
	}
}

func TestEncodeAuthDataRejectsDataWithoutATFlag(t *testing.T) {
	t.Parallel()

	acd := attestation.AttestedCredentialData{}
	_, err := attestation.EncodeAuthData(attestation.AuthenticatorData{
		AttestedCredentialData: &acd,
	})
	if err != attestation.ErrInvalidState {
		t.Errorf("err = %v, want ErrInvalidState", err)
	}
}

func TestEncodeAuthDataRejectsEDFlagWithoutExtensions(t *testing.T) {
	t.Parallel()

	_, err := attestation.EncodeAuthData(attestation.AuthenticatorData{
		Flags: attestation.AuthenticatorFlags{ED: true},
	})
	if err != attestation.ErrInvalidState {
		t.Errorf("err = %v, want ErrInvalidState", err)
	}
}

func TestEncodeAuthDataEmitsExtensions(t *testing.T) {
	t.Parallel()

	hash := rpIDHash()
	ext := []byte{0xA1, 0x01, 0x02} // minimal CBOR map, opaque to this package
	got, err := attestation.EncodeAuthData(attestation.AuthenticatorData{
		RPIDHash:      hash,
		Flags:         attestation.AuthenticatorFlags{ED: true},
		ExtensionData: ext,
	})
	if err != nil {
		t.Fatalf("EncodeAuthData: %v", err)
	}

	if got[32] != 0x80 { // ED flag alone
		t.Errorf("flags byte = %#x, want 0x80", got[32])
	}
	if !bytes.Equal(got[37:], ext) {
		t.Errorf("extension suffix = %x, want %x", got[37:], ext)
	}
}
