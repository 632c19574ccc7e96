package pms

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// VerifySignature checks an HMAC-SHA256 hex digest of body keyed by secret
// against the provided signature, in constant time.
//
// An empty secret skips verification entirely and reports valid. This is a
// deliberate trust-on-first-use policy for providers that have not been
// issued a webhook secret yet, not a fallback on bad input.
func VerifySignature(body []byte, signature, secret string) bool {
	if secret == "" {
		return true
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Sign computes the hex HMAC-SHA256 digest of body keyed by secret. Exposed
// for tests and for registering outbound webhooks with providers that echo
// our secret back.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
