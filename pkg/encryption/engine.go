package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"github.com/dd0wney/seedvault/pkg/cryptoerr"
)

// Engine provides AES-256-GCM encryption and decryption under one key.
// The nonce is supplied by the caller and is not prepended to the output;
// the container codec stores it alongside the ciphertext.
type Engine struct {
	aead cipher.AEAD
}

// NewEngine creates an engine for a 32-byte key. The key schedule is copied
// into the cipher, so the caller may wipe key afterwards.
func NewEngine(key []byte) (*Engine, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidKey, len(key), KeySize)
	}

	// Create AES cipher
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	// Create GCM mode
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &Engine{aead: gcm}, nil
}

// Seal encrypts and authenticates plaintext. The result is ciphertext with
// the 16-byte tag appended. Identical inputs give identical output.
func (e *Engine) Seal(plaintext, nonce []byte) ([]byte, error) {
	if len(nonce) != NonceSize {
		return nil, cryptoerr.Wrapf(cryptoerr.EncryptionFailed, cryptoerr.StageCipher, ErrInvalidNonce,
			"got %d bytes, want %d", len(nonce), NonceSize)
	}
	return e.aead.Seal(nil, nonce, plaintext, nil), nil
}

// Open verifies the tag and decrypts. Any mismatch is AuthenticationFailed;
// no plaintext is ever returned for a ciphertext that fails to verify.
func (e *Engine) Open(ciphertext, nonce []byte) ([]byte, error) {
	if len(nonce) != NonceSize {
		return nil, cryptoerr.Wrapf(cryptoerr.DecryptionFailed, cryptoerr.StageCipher, ErrInvalidNonce,
			"got %d bytes, want %d", len(nonce), NonceSize)
	}
	if len(ciphertext) < TagSize {
		return nil, cryptoerr.Wrap(cryptoerr.AuthenticationFailed, cryptoerr.StageCipher, ErrInvalidCiphertext, "")
	}

	// Decrypt and verify
	plaintext, err := e.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, cryptoerr.Wrap(cryptoerr.AuthenticationFailed, cryptoerr.StageCipher, ErrTagMismatch, "")
	}

	return plaintext, nil
}

// Encrypt seals plaintext under key and nonce.
func Encrypt(plaintext, key, nonce []byte) ([]byte, error) {
	e, err := NewEngine(key)
	if err != nil {
		return nil, cryptoerr.Wrap(cryptoerr.EncryptionFailed, cryptoerr.StageCipher, err, "")
	}
	return e.Seal(plaintext, nonce)
}

// Decrypt opens ciphertext under key and nonce.
func Decrypt(ciphertext, key, nonce []byte) ([]byte, error) {
	e, err := NewEngine(key)
	if err != nil {
		return nil, cryptoerr.Wrap(cryptoerr.DecryptionFailed, cryptoerr.StageCipher, err, "")
	}
	return e.Open(ciphertext, nonce)
}
