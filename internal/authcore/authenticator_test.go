package authcore_test

import (
	"testing"

	"github.com/fxamacker/cbor/v2"

	"github.com/go-ctap/ctapd/internal/authcore"
)

func TestHandleGetInfo(t *testing.T) {
	t.Parallel()

	core := authcore.New("ctapd-demo.example")
	resp, status, ok := core.Handle([]byte{0x04})
	if !ok {
		t.Fatalf("Handle: ok=false status=%#x", status)
	}
	if status != 0x00 {
		t.Errorf("status = %#x, want 0x00", status)
	}
	if len(resp) == 0 || resp[0] != 0x00 {
		t.Fatalf("response missing leading success byte: %x", resp)
	}

	var decoded map[int]interface{}
	if err := cbor.Unmarshal(resp[1:], &decoded); err != nil {
		t.Fatalf("decode getInfo body: %v", err)
	}
	versions, ok := decoded[1].([]interface{})
	if !ok || len(versions) == 0 {
		t.Fatalf("decoded[1] = %v, want non-empty versions array", decoded[1])
	}
}

func TestHandleMakeCredentialProducesAttestationObject(t *testing.T) {
	t.Parallel()

	core := authcore.New("ctapd-demo.example")
	resp, status, ok := core.Handle([]byte{0x01})
	if !ok {
		t.Fatalf("Handle: ok=false status=%#x", status)
	}
	if resp[0] != 0x00 {
		t.Fatalf("missing leading success byte: %x", resp)
	}

	var decoded map[int]interface{}
	if err := cbor.Unmarshal(resp[1:], &decoded); err != nil {
		t.Fatalf("decode attestation object: %v", err)
	}
	if decoded[1] != "none" {
		t.Errorf("fmt = %v, want \"none\"", decoded[1])
	}
	authData, ok := decoded[2].([]byte)
	if !ok || len(authData) < 37 {
		t.Fatalf("authData = %v, want >= 37 bytes", decoded[2])
	}
	if authData[32]&0x40 == 0 {
		t.Error("AT flag not set in authData")
	}
}

func TestHandleUnknownCommandRejected(t *testing.T) {
	t.Parallel()

	core := authcore.New("ctapd-demo.example")
	_, status, ok := core.Handle([]byte{0xFF})
	if ok {
		t.Fatal("expected Handle to reject unknown command")
	}
	if status == 0x00 {
		t.Error("status should not be success for an unknown command")
	}
}

func TestHandleEmptyRequestRejected(t *testing.T) {
	t.Parallel()

	core := authcore.New("ctapd-demo.example")
	_, _, ok := core.Handle(nil)
	if ok {
		t.Fatal("expected Handle to reject an empty request")
	}
}

func TestMakeCredentialCredentialIDsAreDistinct(t *testing.T) {
	t.Parallel()

	core := authcore.New("ctapd-demo.example")
	resp1, _, _ := core.Handle([]byte{0x01})
	resp2, _, _ := core.Handle([]byte{0x01})
	if string(resp1) == string(resp2) {
		t.Error("two MakeCredential calls produced identical attestation objects")
	}
}
