package common

// SSE-C headers attached to result downloads. All three must be derived from
// the same key instance.
const (
	HeaderSSECAlgorithm = "x-amz-server-side-encryption-customer-algorithm"
	HeaderSSECKey       = "x-amz-server-side-encryption-customer-key"
	HeaderSSECKeyMD5    = "x-amz-server-side-encryption-customer-key-MD5"
)

// DefaultSSECAlgorithm is the algorithm tag sent when a key is present and no
// override is configured.
const DefaultSSECAlgorithm = "AES256"
