package webhook

import (
	"strings"
	"testing"
)

func TestComputeHMAC_Format(t *testing.T) {
	for _, payload := range []string{"", "hello", `{"event":"ruleset.created"}`} {
		sig := ComputeHMAC([]byte(payload), "s3cret")
		hexPart, ok := strings.CutPrefix(sig, "sha256=")
		if !ok {
			t.Errorf("signature %q lacks sha256= prefix", sig)
		}
		if len(hexPart) != 64 {
			t.Errorf("hex length = %d, want 64", len(hexPart))
		}
	}
}

func TestComputeHMAC_KnownVector(t *testing.T) {
	// RFC 4231 test case 2
	got := ComputeHMAC([]byte("what do ya want for nothing?"), "Jefe")
	want := "sha256=5bdcc146bf60754e6a042426089575c75a003f089d2739839dec58b964ec3843"
	if got != want {
		t.Errorf("ComputeHMAC() = %s, want %s", got, want)
	}
}

func TestVerifySignature(t *testing.T) {
	payload := []byte(`{"event":"ruleset.deleted"}`)
	good := ComputeHMAC(payload, "secret")

	tests := []struct {
		name      string
		payload   []byte
		signature string
		secret    string
		want      bool
	}{
		{"valid", payload, good, "secret", true},
		{"wrong secret", payload, good, "other", false},
		{"tampered payload", []byte(`{"event":"ruleset.created"}`), good, "secret", false},
		{"garbage", payload, "sha256=zz", "secret", false},
		{"empty", payload, "", "secret", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VerifySignature(tt.payload, tt.signature, tt.secret); got != tt.want {
				t.Errorf("VerifySignature() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGenerateSecret(t *testing.T) {
	a, err := GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret() error = %v", err)
	}
	b, _ := GenerateSecret()

	if !strings.HasPrefix(a, SecretPrefix) {
		t.Errorf("secret %q lacks %s prefix", a, SecretPrefix)
	}
	if len(a) != len(SecretPrefix)+43 {
		t.Errorf("secret length = %d, want %d", len(a), len(SecretPrefix)+43)
	}
	if a == b {
		t.Error("two generated secrets are identical")
	}
}
