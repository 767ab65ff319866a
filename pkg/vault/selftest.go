package vault

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/dd0wney/seedvault/pkg/encryption"
	"github.com/dd0wney/seedvault/pkg/kdf"
)

// Known answers: PBKDF2-HMAC-SHA256("password", "salt", 1) and the tag of
// AES-256-GCM with an all-zero key and nonce over the empty message.
var (
	selfTestPBKDF2 = mustHex("120fb6cffcf8b32c43e7225256c4f837a86548c92ccc35480805987cb70be17b")
	selfTestGCMTag = mustHex("530f8afbc74536b9a963b4f1c4cb738b")
)

const (
	selfTestContent    = "abandon ability able about above absent"
	selfTestPassphrase = "apple banana cherry"
	selfTestPassword   = "self-test"
)

var selfTestClock = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// Advanced derivations exercised by the self-test. Both algorithms run so a
// broken Argon2 build is caught as well as a broken codec.
var selfTestAdvanced = []kdf.Params{
	{Algorithm: kdf.AlgorithmPBKDF2, Iterations: 1000},
	{Algorithm: kdf.AlgorithmArgon2, Iterations: 1},
}

func mustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

// newSelfTestVault returns a vault with fixed randomness and clock, enough
// for one encryption of either format. It records no metrics and logs nothing.
func newSelfTestVault() *Vault {
	return New(
		WithRandom(bytes.NewReader(bytes.Repeat([]byte{0xA5}, 64))),
		WithClock(func() time.Time { return selfTestClock }),
	)
}

// SelfTest checks the primitives against fixed vectors, then round-trips a
// fixed content through the legacy container and through the advanced
// container under PBKDF2 and Argon2. It touches no user secrets. One run
// costs two full legacy derivations and two Argon2 derivations.
func SelfTest() error {
	if err := knownAnswers(); err != nil {
		return err
	}
	if err := selfTestLegacy(newSelfTestVault()); err != nil {
		return err
	}
	for _, p := range selfTestAdvanced {
		if err := selfTestRoundTrip(newSelfTestVault(), p); err != nil {
			return err
		}
	}
	return nil
}

func knownAnswers() error {
	key, err := kdf.NewPBKDF2().Derive([]byte("password"), []byte("salt"), 1)
	if err != nil {
		return fmt.Errorf("pbkdf2 self-test: %w", err)
	}
	if !bytes.Equal(key, selfTestPBKDF2) {
		return fmt.Errorf("pbkdf2 self-test: unexpected output")
	}

	zero := make([]byte, encryption.KeySize)
	nonce := make([]byte, encryption.NonceSize)
	tag, err := encryption.Encrypt(nil, zero, nonce)
	if err != nil {
		return fmt.Errorf("aes-gcm self-test: %w", err)
	}
	if !bytes.Equal(tag, selfTestGCMTag) {
		return fmt.Errorf("aes-gcm self-test: unexpected tag")
	}
	if _, err := encryption.Decrypt(tag, zero, nonce); err != nil {
		return fmt.Errorf("aes-gcm self-test: %w", err)
	}
	return nil
}

func selfTestLegacy(v *Vault) error {
	encoded, err := v.Encrypt(selfTestContent, selfTestPassphrase, selfTestPassword)
	if err != nil {
		return fmt.Errorf("legacy self-test: %w", err)
	}
	got, err := v.Decrypt(encoded, selfTestPassphrase, selfTestPassword)
	if err != nil {
		return fmt.Errorf("legacy self-test: %w", err)
	}
	if got != selfTestContent {
		return fmt.Errorf("legacy self-test: round trip mismatch")
	}
	return nil
}

func selfTestRoundTrip(v *Vault, p kdf.Params) error {
	label := p.Label()
	res, err := v.EncryptAdvanced(AdvancedRequest{
		Content:    selfTestContent,
		Passphrase: selfTestPassphrase,
		Password:   selfTestPassword,
		Derivation: p.Algorithm,
		Iterations: p.Iterations,
	})
	if err != nil {
		return fmt.Errorf("advanced self-test %s: %w", label, err)
	}

	info, err := v.GetIntegrityInfo(res.Container)
	if err != nil {
		return fmt.Errorf("advanced self-test %s: %w", label, err)
	}
	if info.KeyDerivation != label || !info.CreatedAt.Equal(selfTestClock) {
		return fmt.Errorf("advanced self-test %s: metadata mismatch", label)
	}

	verified, err := v.VerifyIntegrity(res.Container)
	if err != nil {
		return fmt.Errorf("advanced self-test %s: %w", label, err)
	}
	if !verified.Valid {
		return fmt.Errorf("advanced self-test %s: integrity check failed", label)
	}

	got, err := v.DecryptAdvanced(res.Container, selfTestPassphrase, selfTestPassword)
	if err != nil {
		return fmt.Errorf("advanced self-test %s: %w", label, err)
	}
	if got != selfTestContent {
		return fmt.Errorf("advanced self-test %s: round trip mismatch", label)
	}
	return nil
}
