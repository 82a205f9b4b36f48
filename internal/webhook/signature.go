package webhook

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// SecretPrefix marks generated signing secrets.
const SecretPrefix = "whsec_"

// ComputeHMAC returns "sha256=<hex>" over payload keyed by secret.
func ComputeHMAC(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether signature is the HMAC of payload. Receivers
// use it on the X-Interceptor-Signature header.
func VerifySignature(payload []byte, signature string, secret string) bool {
	return hmac.Equal([]byte(signature), []byte(ComputeHMAC(payload, secret)))
}

// GenerateSecret returns a random signing secret for WEBHOOK_SECRET.
func GenerateSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random secret: %w", err)
	}
	return SecretPrefix + base64.RawURLEncoding.EncodeToString(b), nil
}
