package encryption

import "fmt"

const (
	// Encryption constants
	KeySize   = 32 // AES-256
	NonceSize = 12 // GCM standard nonce size
	TagSize   = 16 // GCM authentication tag size

	// Method is the encryption_method label written into integrity metadata.
	Method = "AES-256-GCM"
)

var (
	ErrInvalidKey        = fmt.Errorf("invalid encryption key")
	ErrInvalidNonce      = fmt.Errorf("invalid nonce")
	ErrInvalidCiphertext = fmt.Errorf("ciphertext shorter than authentication tag")
	ErrTagMismatch       = fmt.Errorf("tag mismatch - wrong secret or data tampered")
)
