// Package cryptox implements the client side of SSE-C key handling: key
// generation, validation of user-supplied key material, and fingerprint
// derivation for the transfer headers.
package cryptox

import (
	"crypto/md5"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/argon2"

	"github.com/dmitrijs2005/eventexport/internal/common"
)

// KeySize is the required raw key length for SSE-C (256 bits).
const KeySize = 32

// SSECKey holds the raw customer-provided encryption key together with its
// algorithm tag. The raw key lives only in process memory; the server never
// stores it, so the same key must be presented on both the trigger and the
// retrieve call.
type SSECKey struct {
	raw       []byte
	Algorithm string
}

// Generate creates a fresh random SSE-C key using a cryptographically secure
// random source.
//
// Example:
//
//	key, err := cryptox.Generate()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(key.Encoded()) // base64, safe to hand to the user
func Generate() (*SSECKey, error) {
	raw := make([]byte, KeySize)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}
	return &SSECKey{raw: raw, Algorithm: common.DefaultSSECAlgorithm}, nil
}

// Parse decodes base64-encoded key material and validates its length.
// It fails with common.ErrInvalidKeyLength (wrapped) when the decoded key is
// not exactly KeySize bytes, and with a decode error when the input is not
// valid base64.
//
// The client can only validate format here; whether the key matches the one
// the export was encrypted with is detectable by the server alone.
func Parse(encoded string) (*SSECKey, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("encryption key is not valid base64: %w", err)
	}
	if len(raw) != KeySize {
		return nil, fmt.Errorf("%w: got %d bytes after base64 decoding (generate a valid key with: openssl rand -base64 32)",
			common.ErrInvalidKeyLength, len(raw))
	}
	return &SSECKey{raw: raw, Algorithm: common.DefaultSSECAlgorithm}, nil
}

// DeriveFromPassphrase deterministically derives a key from a passphrase
// using Argon2id. The same passphrase always yields the same key, which lets
// a user re-derive the key on the retrieve side without storing it.
func DeriveFromPassphrase(passphrase []byte) *SSECKey {
	raw := argon2.IDKey(passphrase, []byte("eventexport-sse-c-v1"), 1, 64*1024, 4, KeySize)
	return &SSECKey{raw: raw, Algorithm: common.DefaultSSECAlgorithm}
}

// Encoded returns the raw key in the transport encoding (standard base64),
// the form sent in the x-amz-...-customer-key header and shown to the user.
func (k *SSECKey) Encoded() string {
	return base64.StdEncoding.EncodeToString(k.raw)
}

// Fingerprint returns base64(MD5(raw key)), the value of the
// x-amz-...-customer-key-MD5 header. It is a pure function of the raw key:
// two identical keys always produce identical fingerprints, and the raw key
// cannot be reconstructed from it. The server uses it to confirm the client
// is presenting consistent key material without the key itself appearing in
// logs.
func (k *SSECKey) Fingerprint() string {
	sum := md5.Sum(k.raw)
	return base64.StdEncoding.EncodeToString(sum[:])
}

// Wipe overwrites the raw key material with zeros. The key must not be used
// afterwards.
func (k *SSECKey) Wipe() {
	for i := range k.raw {
		k.raw[i] = 0
	}
}
