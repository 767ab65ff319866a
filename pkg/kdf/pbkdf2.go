package kdf

import (
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"
)

// PBKDF2 derives keys with PBKDF2-HMAC-SHA256. It is deterministic for the
// same secret, salt and iteration count.
type PBKDF2 struct{}

// NewPBKDF2 creates a PBKDF2 deriver.
func NewPBKDF2() *PBKDF2 {
	return &PBKDF2{}
}

func (p *PBKDF2) Derive(secret, salt []byte, iterations int) ([]byte, error) {
	if iterations < 1 {
		return nil, derivationError(AlgorithmPBKDF2, "iteration count must be at least 1, got %d", iterations)
	}
	if len(salt) == 0 {
		return nil, derivationError(AlgorithmPBKDF2, "salt is empty")
	}
	return pbkdf2.Key(secret, salt, iterations, KeySize, sha256.New), nil
}

func (p *PBKDF2) Name() Algorithm {
	return AlgorithmPBKDF2
}
