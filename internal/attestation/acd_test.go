package attestation_test

import (
	"bytes"
	"testing"

	"github.com/go-ctap/ctapd/internal/attestation"
)

func TestEncodeACDLayout(t *testing.T) {
	t.Parallel()

	var aaguid [16]byte // zero AAGUID, as used by the demo authenticator
	credID := bytes.Repeat([]byte{0xAB}, 64)
	pubKey := []byte{
		0xA5, 0x01, 0x02, 0x03, 0x26, 0x20, 0x01, 0x21, 0x58, 0x20,
	}

	got, err := attestation.EncodeACD(attestation.AttestedCredentialData{
		AAGUID:              aaguid,
		CredentialID:        credID,
		CredentialPublicKey: pubKey,
	})
	if err != nil {
		t.Fatalf("EncodeACD: %v", err)
	}

	want := append([]byte{}, aaguid[:]...)
	want = append(want, 0x00, 0x40) // be16(64)
	want = append(want, credID...)
	want = append(want, pubKey...)

	if !bytes.Equal(got, want) {
		t.Errorf("EncodeACD =\n%x\nwant\n%x", got, want)
	}
}

func TestEncodeACDRejectsOversizedCredentialID(t *testing.T) {
	t.Parallel()

	_, err := attestation.EncodeACD(attestation.AttestedCredentialData{
		CredentialID: make([]byte, 0x10000),
	})
	if err != attestation.ErrInvalidLength {
		t.Errorf("err = %v, want ErrInvalidLength", err)
	}
}

func TestEncodeACDEmptyCredential(t *testing.T) {
	t.Parallel()

	got, err := attestation.EncodeACD(attestation.AttestedCredentialData{})
	if err != nil {
		t.Fatalf("EncodeACD: %v", err)
	}
	want := make([]byte, 18) // 16-byte aaguid + be16(0)
	if !bytes.Equal(got, want) {
		t.Errorf("EncodeACD =\n%x\nwant\n%x", got, want)
	}
}
