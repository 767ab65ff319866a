package encryption

import (
	"bytes"
	"encoding/hex"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/dd0wney/seedvault/pkg/cryptoerr"
)

func testNonce(t testing.TB) []byte {
	t.Helper()
	nonce, err := NewRandom(nil).Nonce()
	if err != nil {
		t.Fatalf("Nonce() failed: %v", err)
	}
	return nonce
}

func testKey() []byte {
	key := make([]byte, KeySize)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}

func TestRandom_Salt(t *testing.T) {
	for _, size := range []int{16, 32} {
		salt1, err := NewRandom(nil).Salt(size)
		if err != nil {
			t.Fatalf("Salt(%d) failed: %v", size, err)
		}
		if len(salt1) != size {
			t.Errorf("Salt length = %d, want %d", len(salt1), size)
		}

		// Generate another salt and ensure they're different
		salt2, err := NewRandom(nil).Salt(size)
		if err != nil {
			t.Fatalf("Salt(%d) failed: %v", size, err)
		}
		if bytes.Equal(salt1, salt2) {
			t.Error("Generated salts are identical (should be random)")
		}
	}
}

func TestRandom_Nonce(t *testing.T) {
	r := NewRandom(nil)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		nonce, err := r.Nonce()
		if err != nil {
			t.Fatalf("Nonce() failed: %v", err)
		}
		if len(nonce) != NonceSize {
			t.Fatalf("Nonce length = %d, want %d", len(nonce), NonceSize)
		}
		if seen[string(nonce)] {
			t.Fatal("Nonce() repeated a nonce")
		}
		seen[string(nonce)] = true
	}
}

func TestRandom_ShortReader(t *testing.T) {
	r := NewRandom(strings.NewReader("short"))

	_, err := r.Nonce()
	if !errors.Is(err, cryptoerr.ErrEncryptionFailed) {
		t.Fatalf("Nonce() error = %v, want EncryptionFailed", err)
	}
	if got := cryptoerr.StageOf(err); got != cryptoerr.StageRandom {
		t.Errorf("stage = %q, want %q", got, cryptoerr.StageRandom)
	}
}

func TestRandom_Deterministic(t *testing.T) {
	r := NewRandom(bytes.NewReader(bytes.Repeat([]byte{0xAB}, 64)))

	salt, err := r.Salt(16)
	if err != nil {
		t.Fatalf("Salt() failed: %v", err)
	}
	if !bytes.Equal(salt, bytes.Repeat([]byte{0xAB}, 16)) {
		t.Errorf("Salt() = %x, want reader bytes", salt)
	}
}

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine(testKey())
	if err != nil {
		t.Fatalf("NewEngine() failed: %v", err)
	}
	if engine == nil {
		t.Fatal("NewEngine() returned nil")
	}

	// Test with invalid key size
	for _, n := range []int{0, 16, 24, 31, 33} {
		_, err = NewEngine(make([]byte, n))
		if !errors.Is(err, ErrInvalidKey) {
			t.Errorf("NewEngine(%d-byte key) error = %v, want %v", n, err, ErrInvalidKey)
		}
	}
}

func TestEncrypt_KnownAnswer(t *testing.T) {
	// AES-256-GCM with all-zero key and nonce.
	key := make([]byte, KeySize)
	nonce := make([]byte, NonceSize)

	tests := []struct {
		name      string
		plaintext []byte
		want      string
	}{
		{"Empty", nil, "530f8afbc74536b9a963b4f1c4cb738b"},
		{"OneBlock", make([]byte, 16), "cea7403d4d606b6e074ec5d3baf39d18d0d1c8a799996bf0265b98b5d48ab919"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct, err := Encrypt(tt.plaintext, key, nonce)
			if err != nil {
				t.Fatalf("Encrypt() failed: %v", err)
			}
			if got := hex.EncodeToString(ct); got != tt.want {
				t.Errorf("Encrypt() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEncryptDecrypt(t *testing.T) {
	engine, _ := NewEngine(testKey())
	nonce := testNonce(t)

	tests := []struct {
		name      string
		plaintext []byte
	}{
		{"Empty", []byte{}},
		{"SeedPhrase", []byte("abandon ability able about above absent absorb abstract absurd abuse access accident")},
		{"Medium", bytes.Repeat([]byte("A"), 1024)},
		{"Large", bytes.Repeat([]byte("B"), 65536)},
		{"Binary", []byte{0x00, 0x01, 0x02, 0xFF, 0xFE, 0xFD}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ciphertext, err := engine.Seal(tt.plaintext, nonce)
			if err != nil {
				t.Fatalf("Seal() failed: %v", err)
			}
			if len(ciphertext) != len(tt.plaintext)+TagSize {
				t.Errorf("Ciphertext length = %d, want %d", len(ciphertext), len(tt.plaintext)+TagSize)
			}

			decrypted, err := engine.Open(ciphertext, nonce)
			if err != nil {
				t.Fatalf("Open() failed: %v", err)
			}
			if !bytes.Equal(tt.plaintext, decrypted) {
				t.Error("Decrypted data doesn't match original")
			}
		})
	}
}

func TestSealDeterministic(t *testing.T) {
	engine, _ := NewEngine(testKey())
	nonce := bytes.Repeat([]byte{7}, NonceSize)
	plaintext := []byte("correct horse battery staple")

	ct1, _ := engine.Seal(plaintext, nonce)
	ct2, _ := engine.Seal(plaintext, nonce)
	if !bytes.Equal(ct1, ct2) {
		t.Error("Seal() with identical inputs produced different output")
	}

	other := bytes.Repeat([]byte{8}, NonceSize)
	ct3, _ := engine.Seal(plaintext, other)
	if bytes.Equal(ct1, ct3) {
		t.Error("Seal() with different nonces produced identical output")
	}
}

func TestDecryptWithWrongKey(t *testing.T) {
	nonce := testNonce(t)
	ciphertext, err := Encrypt([]byte("secret data"), testKey(), nonce)
	if err != nil {
		t.Fatalf("Encrypt() failed: %v", err)
	}

	wrong := testKey()
	wrong[0] ^= 0xFF
	_, err = Decrypt(ciphertext, wrong, nonce)
	if !errors.Is(err, cryptoerr.ErrAuthenticationFailed) {
		t.Errorf("Decrypt with wrong key error = %v, want %v", err, cryptoerr.ErrAuthenticationFailed)
	}
}

func TestDecryptTamperedCiphertext(t *testing.T) {
	nonce := testNonce(t)
	ciphertext, _ := Encrypt([]byte("secret data"), testKey(), nonce)

	for i := range ciphertext {
		tampered := append([]byte(nil), ciphertext...)
		tampered[i] ^= 0x01

		plaintext, err := Decrypt(tampered, testKey(), nonce)
		if !errors.Is(err, cryptoerr.ErrAuthenticationFailed) {
			t.Fatalf("byte %d: Decrypt tampered error = %v, want %v", i, err, cryptoerr.ErrAuthenticationFailed)
		}
		if plaintext != nil {
			t.Fatalf("byte %d: Decrypt returned plaintext for tampered data", i)
		}
	}
}

func TestDecryptInvalidInput(t *testing.T) {
	nonce := testNonce(t)

	_, err := Decrypt([]byte("short"), testKey(), nonce)
	if !errors.Is(err, cryptoerr.ErrAuthenticationFailed) || !errors.Is(err, ErrInvalidCiphertext) {
		t.Errorf("Decrypt(short) error = %v", err)
	}

	_, err = Decrypt(make([]byte, 32), testKey(), nonce[:8])
	if !errors.Is(err, cryptoerr.ErrDecryptionFailed) || !errors.Is(err, ErrInvalidNonce) {
		t.Errorf("Decrypt(bad nonce) error = %v", err)
	}

	_, err = Decrypt(make([]byte, 32), make([]byte, 16), nonce)
	if !errors.Is(err, cryptoerr.ErrDecryptionFailed) || !errors.Is(err, ErrInvalidKey) {
		t.Errorf("Decrypt(bad key) error = %v", err)
	}

	_, err = Encrypt([]byte("x"), make([]byte, 16), nonce)
	if !errors.Is(err, cryptoerr.ErrEncryptionFailed) {
		t.Errorf("Encrypt(bad key) error = %v", err)
	}
}

func TestConcurrentEncryption(t *testing.T) {
	engine, _ := NewEngine(testKey())

	r := NewRandom(nil)
	var wg sync.WaitGroup
	errs := make(chan error, 50)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			nonce, err := r.Nonce()
			if err != nil {
				errs <- err
				return
			}
			plaintext := []byte(strings.Repeat("x", i))
			ct, err := engine.Seal(plaintext, nonce)
			if err != nil {
				errs <- err
				return
			}
			pt, err := engine.Open(ct, nonce)
			if err != nil {
				errs <- err
				return
			}
			if !bytes.Equal(pt, plaintext) {
				errs <- errors.New("round trip mismatch")
			}
		}(i)
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent operation failed: %v", err)
	}
}

func BenchmarkSeal_Small(b *testing.B) {
	engine, _ := NewEngine(testKey())
	nonce := testNonce(b)
	plaintext := []byte("apple banana cherry")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = engine.Seal(plaintext, nonce)
	}
}

func BenchmarkOpen_Small(b *testing.B) {
	engine, _ := NewEngine(testKey())
	nonce := testNonce(b)
	ciphertext, _ := engine.Seal([]byte("apple banana cherry"), nonce)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = engine.Open(ciphertext, nonce)
	}
}
