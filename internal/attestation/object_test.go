package attestation_test

import (
	"testing"

	"github.com/fxamacker/cbor/v2"

	"github.com/go-ctap/ctapd/internal/attestation"
)

func TestEncodeAttestationObjectNoneFormat(t *testing.T) {
	t.Parallel()

	hash := rpIDHash()
	authData, err := attestation.EncodeAuthData(attestation.AuthenticatorData{
		RPIDHash: hash,
		Flags:    attestation.AuthenticatorFlags{UP: true},
	})
	if err != nil {
		t.Fatalf("EncodeAuthData: %v", err)
	}

	got, err := attestation.EncodeAttestationObject(attestation.AttestationObject{
		Fmt:      "none",
		AuthData: authData,
	})
	if err != nil {
		t.Fatalf("EncodeAttestationObject: %v", err)
	}

	var decoded map[int]interface{}
	if err := cbor.Unmarshal(got, &decoded); err != nil {
		t.Fatalf("decode round-trip: %v", err)
	}

	if decoded[1] != "none" {
		t.Errorf("decoded[1] (fmt) = %v, want %q", decoded[1], "none")
	}
	gotAuthData, ok := decoded[2].([]byte)
	if !ok {
		t.Fatalf("decoded[2] is %T, want []byte", decoded[2])
	}
	if string(gotAuthData) != string(authData) {
		t.Errorf("decoded authData mismatch")
	}
	attStmt, ok := decoded[3].(map[interface{}]interface{})
	if !ok {
		t.Fatalf("decoded[3] is %T, want map", decoded[3])
	}
	if len(attStmt) != 0 {
		t.Errorf("attStmt for fmt none = %v, want empty", attStmt)
	}
}

func TestEncodeAttestationObjectDeterministic(t *testing.T) {
	t.Parallel()

	obj := attestation.AttestationObject{
		Fmt:      "none",
		AuthData: []byte{0x01, 0x02, 0x03},
	}

	first, err := attestation.EncodeAttestationObject(obj)
	if err != nil {
		t.Fatalf("EncodeAttestationObject: %v", err)
	}
	for i := 0; i < 10; i++ {
		got, err := attestation.EncodeAttestationObject(obj)
		if err != nil {
			t.Fatalf("EncodeAttestationObject: %v", err)
		}
		if string(got) != string(first) {
			t.Fatalf("iteration %d: output changed across calls:\n%x\nvs\n%x", i, got, first)
		}
	}
}
