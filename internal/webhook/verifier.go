// Package webhook authenticates inbound asynchronous events: it proves
// that an event body was produced by a holder of the shared secret
// before anything downstream parses it.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// SignaturePrefix is the literal wire prefix of a valid signature
// header. The full value is "sha256=" followed by lowercase hex.
const SignaturePrefix = "sha256="

// Verify reports whether signature is exactly
// "sha256=" + hex(HMAC-SHA256(secret, body)).
//
// The comparison is constant time: an equal-length check, then a full
// compare with no early exit, so timing does not leak where the inputs
// first differ. Any deviation from the canonical form (uppercase hex,
// missing prefix, a different digest) compares unequal; there is no
// separate format-error path that could bypass the comparison.
//
// body must be the exact raw request bytes. Re-serializing a parsed
// payload before verification breaks the signature by design.
func Verify(body []byte, signature, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}

	expected := Sign(body, secret)
	if len(signature) != len(expected) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(signature), []byte(expected)) == 1
}

// Sign computes the canonical signature header value for body.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return SignaturePrefix + hex.EncodeToString(mac.Sum(nil))
}
