// Package integrity computes, serializes and verifies the metadata record
// embedded in advanced containers: a SHA-256 digest of the ciphertext plus
// the labels needed to reproduce the key.
package integrity

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dd0wney/seedvault/pkg/cryptoerr"
)

const (
	MessageVerified = "File integrity verified successfully"
	MessageFailed   = "File integrity verification failed - file may be corrupted or tampered with"
)

// Info is the metadata record. Field names are part of the container format.
type Info struct {
	SHA256Hash       string    `json:"sha256_hash"`
	FileSize         uint64    `json:"file_size"`
	CreatedAt        time.Time `json:"created_at"`
	EncryptionMethod string    `json:"encryption_method"`
	KeyDerivation    string    `json:"key_derivation"`
}

// Result is the outcome of a non-destructive integrity check.
type Result struct {
	Valid        bool   `json:"valid"`
	ExpectedHash string `json:"expected_hash"`
	ActualHash   string `json:"actual_hash"`
	Message      string `json:"message"`
}

// Digest returns the lowercase hex SHA-256 of data.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Compute builds the record for ciphertext.
func Compute(ciphertext []byte, method, derivation string, now time.Time) Info {
	return Info{
		SHA256Hash:       Digest(ciphertext),
		FileSize:         uint64(len(ciphertext)),
		CreatedAt:        now.UTC(),
		EncryptionMethod: method,
		KeyDerivation:    derivation,
	}
}

// Matches reports whether the stored digest equals the digest of
// ciphertext. The comparison is on the decoded bytes and runs in constant
// time; an undecodable stored digest never matches.
func (i Info) Matches(ciphertext []byte) bool {
	stored, err := hex.DecodeString(i.SHA256Hash)
	if err != nil || len(stored) != sha256.Size {
		return false
	}
	actual := sha256.Sum256(ciphertext)
	return subtle.ConstantTimeCompare(stored, actual[:]) == 1
}

// Verify compares the stored digest with ciphertext without decrypting.
func Verify(info Info, ciphertext []byte) Result {
	r := Result{
		ExpectedHash: info.SHA256Hash,
		ActualHash:   Digest(ciphertext),
		Valid:        info.Matches(ciphertext),
	}
	if r.Valid {
		r.Message = MessageVerified
	} else {
		r.Message = MessageFailed
	}
	return r
}

// Check returns an IntegrityViolation error when the digest does not match.
func Check(info Info, ciphertext []byte) error {
	if info.Matches(ciphertext) {
		return nil
	}
	return cryptoerr.Wrapf(cryptoerr.IntegrityViolation, cryptoerr.StageIntegrity, nil,
		"expected %s, got %s", info.SHA256Hash, Digest(ciphertext))
}

// Marshal serializes info as compact JSON.
func Marshal(info Info) ([]byte, error) {
	b, err := json.Marshal(info)
	if err != nil {
		return nil, cryptoerr.Wrap(cryptoerr.EncryptionFailed, cryptoerr.StageEncode, err, "failed to serialize integrity metadata")
	}
	return b, nil
}

// Unmarshal parses serialized metadata.
func Unmarshal(data []byte) (Info, error) {
	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return Info{}, cryptoerr.Wrap(cryptoerr.MalformedContainer, cryptoerr.StageDecode, err, "invalid integrity metadata")
	}
	return info, nil
}

// Report renders info as the plain-text block exported next to a backup.
func Report(info Info) string {
	var b strings.Builder
	b.WriteString("File Integrity Information\n")
	b.WriteString("==========================\n")
	fmt.Fprintf(&b, "SHA256 Hash: %s\n", info.SHA256Hash)
	fmt.Fprintf(&b, "File Size: %d bytes\n", info.FileSize)
	fmt.Fprintf(&b, "Created: %s\n", info.CreatedAt.UTC().Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "Encryption: %s\n", info.EncryptionMethod)
	fmt.Fprintf(&b, "Key Derivation: %s\n", info.KeyDerivation)
	return b.String()
}
