package hook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SignaturePrefix is the scheme prefix GitHub puts in the
// X-Hub-Signature-256 header.
const SignaturePrefix = "sha256="

// ValidateSignature checks a hex HMAC-SHA256 digest from a signature
// header against the raw request body. A missing body, header, or secret
// is a validation failure, not an error; the caller must reject the
// delivery whenever this returns false, before any normalization happens.
//
// The comparison is constant-time so the check cannot be used as a timing
// oracle against the secret.
func ValidateSignature(body []byte, header, secret string) bool {
	if len(body) == 0 || header == "" || secret == "" {
		return false
	}
	if !strings.HasPrefix(header, SignaturePrefix) {
		return false
	}
	provided := header[len(SignaturePrefix):]

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(provided))
}

// Sign computes the signature header value for a body, prefix included.
// Used by tests and by callers that need to forward deliveries.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return SignaturePrefix + hex.EncodeToString(mac.Sum(nil))
}
