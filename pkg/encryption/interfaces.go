package encryption

// SealOpener is the AEAD surface the vault pipeline needs. Packages that
// encrypt under a derived key depend on this instead of *Engine.
type SealOpener interface {
	// Seal encrypts plaintext under the given nonce and returns
	// ciphertext with the authentication tag appended.
	Seal(plaintext, nonce []byte) ([]byte, error)
	// Open decrypts ciphertext produced by Seal.
	// Returns an AuthenticationFailed error if the data has been tampered with.
	Open(ciphertext, nonce []byte) ([]byte, error)
}

var _ SealOpener = (*Engine)(nil)
