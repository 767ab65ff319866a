package encryption

import (
	"crypto/rand"
	"io"

	"github.com/dd0wney/seedvault/pkg/cryptoerr"
)

// Random draws salts and nonces from a cryptographically secure source.
type Random struct {
	r io.Reader
}

// NewRandom wraps r. A nil reader means crypto/rand.
func NewRandom(r io.Reader) *Random {
	if r == nil {
		r = rand.Reader
	}
	return &Random{r: r}
}

// Bytes returns n fresh random bytes.
func (r *Random) Bytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(r.r, b); err != nil {
		return nil, cryptoerr.Wrapf(cryptoerr.EncryptionFailed, cryptoerr.StageRandom, err, "failed to read %d random bytes", n)
	}
	return b, nil
}

// Salt returns a fresh salt of the given size.
func (r *Random) Salt(size int) ([]byte, error) {
	return r.Bytes(size)
}

// Nonce returns a fresh 12-byte GCM nonce.
func (r *Random) Nonce() ([]byte, error) {
	return r.Bytes(NonceSize)
}
