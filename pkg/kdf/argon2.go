package kdf

import (
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Argon2SaltSize is the exact salt length fed to Argon2.
const Argon2SaltSize = 16

// Argon2 derives keys with Argon2id. The iteration count passed to Derive is
// accepted for interface symmetry only; the cost knobs are the fields below.
type Argon2 struct {
	Time    uint32 // passes over memory
	Memory  uint32 // KiB
	Threads uint8
}

// NewArgon2 creates an Argon2id deriver with the common library defaults
// (m=19456 KiB, t=2, p=1).
func NewArgon2() *Argon2 {
	return &Argon2{
		Time:    2,
		Memory:  19 * 1024,
		Threads: 1,
	}
}

func (a *Argon2) Derive(secret, salt []byte, _ int) ([]byte, error) {
	if a.Time < 1 {
		return nil, derivationError(AlgorithmArgon2, "time cost must be at least 1")
	}
	if a.Threads < 1 {
		return nil, derivationError(AlgorithmArgon2, "parallelism must be at least 1")
	}
	if a.Memory < 8*uint32(a.Threads) {
		return nil, derivationError(AlgorithmArgon2, "memory cost %d KiB is below 8*parallelism", a.Memory)
	}

	s := NormalizeArgon2Salt(salt)
	return argon2.IDKey(secret, s[:], a.Time, a.Memory, a.Threads, KeySize), nil
}

func (a *Argon2) Name() Algorithm {
	return AlgorithmArgon2
}

// String reports the cost parameters.
func (a *Argon2) String() string {
	return fmt.Sprintf("argon2id(t=%d,m=%d,p=%d)", a.Time, a.Memory, a.Threads)
}

// NormalizeArgon2Salt truncates salt to its first 16 bytes, or pads a
// shorter salt with zero bytes.
func NormalizeArgon2Salt(salt []byte) [Argon2SaltSize]byte {
	var s [Argon2SaltSize]byte
	copy(s[:], salt)
	return s
}
