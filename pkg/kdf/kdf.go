// Package kdf turns a combined secret and a salt into a 32-byte symmetric key
// using one of two interchangeable algorithms: PBKDF2-HMAC-SHA256 and Argon2id.
package kdf

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dd0wney/seedvault/pkg/cryptoerr"
)

// Algorithm is the derivation tag stored in container metadata.
type Algorithm string

const (
	AlgorithmPBKDF2 Algorithm = "pbkdf2"
	AlgorithmArgon2 Algorithm = "argon2"
)

const (
	// KeySize is the length of every derived key (AES-256).
	KeySize = 32
	// DefaultIterations is the PBKDF2 iteration count used by the legacy
	// format and when the caller does not choose one.
	DefaultIterations = 100000
	// DefaultAlgorithm is used when the caller does not choose one.
	DefaultAlgorithm = AlgorithmPBKDF2
)

// ErrInvalidParameters is the cause carried by every KeyDerivationFailed
// raised for a bad iteration count, salt or cost setting.
var ErrInvalidParameters = errors.New("invalid key derivation parameters")

// Deriver derives a KeySize key from secret and salt.
type Deriver interface {
	// Derive returns a fresh key. The caller owns and must wipe it.
	Derive(secret, salt []byte, iterations int) ([]byte, error)
	// Name returns the algorithm tag.
	Name() Algorithm
}

// Params selects the algorithm and its iteration count.
type Params struct {
	Algorithm  Algorithm
	Iterations int
}

// DefaultParams returns pbkdf2 with 100000 iterations.
func DefaultParams() Params {
	return Params{Algorithm: DefaultAlgorithm, Iterations: DefaultIterations}
}

// Label formats params as "<algorithm>-<iterations>", the key_derivation
// field of the integrity metadata.
func (p Params) Label() string {
	return fmt.Sprintf("%s-%d", p.Algorithm, p.Iterations)
}

// Validate checks the iteration count fits the label ParseLabel can read
// back: 1 through math.MaxUint32.
func (p Params) Validate() error {
	if p.Iterations < 1 || uint64(p.Iterations) > math.MaxUint32 {
		return derivationError(p.Algorithm,
			"iteration count must be between 1 and %d, got %d", uint64(math.MaxUint32), p.Iterations)
	}
	return nil
}

// ParseLabel reverses Label. The method is everything before the first '-';
// a missing or non-numeric iteration part yields DefaultIterations and an
// empty method yields DefaultAlgorithm.
func ParseLabel(label string) Params {
	method, rest, _ := strings.Cut(label, "-")
	p := Params{Algorithm: Algorithm(method), Iterations: DefaultIterations}
	if p.Algorithm == "" {
		p.Algorithm = DefaultAlgorithm
	}
	count, _, _ := strings.Cut(rest, "-")
	if n, err := strconv.ParseUint(count, 10, 32); err == nil {
		p.Iterations = int(n)
	}
	return p
}

var (
	defaultPBKDF2 = NewPBKDF2()
	defaultArgon2 = NewArgon2()
)

// ForAlgorithm returns the deriver for tag. Matching is exact; any
// unrecognized tag falls back to PBKDF2 so containers written with unknown
// tags stay decryptable.
func ForAlgorithm(tag Algorithm) Deriver {
	if tag == AlgorithmArgon2 {
		return defaultArgon2
	}
	return defaultPBKDF2
}

// Derive derives a key with the deriver selected by p.Algorithm.
func Derive(secret, salt []byte, p Params) ([]byte, error) {
	return ForAlgorithm(p.Algorithm).Derive(secret, salt, p.Iterations)
}

func derivationError(alg Algorithm, format string, args ...any) error {
	return cryptoerr.Wrapf(cryptoerr.KeyDerivationFailed, cryptoerr.StageDerive, ErrInvalidParameters, "%s: "+format, append([]any{alg}, args...)...)
}
