package kdf

import (
	"bytes"
	"encoding/hex"
	"errors"
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/seedvault/pkg/cryptoerr"
)

func TestPBKDF2_KnownVectors(t *testing.T) {
	// RFC 7914 section 11 / common PBKDF2-HMAC-SHA256 vectors.
	tests := []struct {
		iterations int
		want       string
	}{
		{1, "120fb6cffcf8b32c43e7225256c4f837a86548c92ccc35480805987cb70be17b"},
		{4096, "c5e478d59288c841aa530db6845c4c8d962893a001ce4e11a4963873aa98134a"},
	}

	d := NewPBKDF2()
	for _, tt := range tests {
		key, err := d.Derive([]byte("password"), []byte("salt"), tt.iterations)
		require.NoError(t, err)
		assert.Equal(t, tt.want, hex.EncodeToString(key))
	}
}

func TestPBKDF2_RejectsBadParameters(t *testing.T) {
	d := NewPBKDF2()

	_, err := d.Derive([]byte("secret"), []byte("salt"), 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, cryptoerr.ErrKeyDerivationFailed))
	assert.True(t, errors.Is(err, ErrInvalidParameters))
	assert.Equal(t, cryptoerr.StageDerive, cryptoerr.StageOf(err))

	_, err = d.Derive([]byte("secret"), []byte("salt"), -5)
	assert.True(t, errors.Is(err, cryptoerr.ErrKeyDerivationFailed))

	_, err = d.Derive([]byte("secret"), nil, 1000)
	assert.True(t, errors.Is(err, cryptoerr.ErrKeyDerivationFailed))
}

func TestArgon2_Deterministic(t *testing.T) {
	d := NewArgon2()
	salt := bytes.Repeat([]byte{0x42}, 32)

	k1, err := d.Derive([]byte("apple banana cherry"), salt, 100000)
	require.NoError(t, err)
	k2, err := d.Derive([]byte("apple banana cherry"), salt, 1)
	require.NoError(t, err)

	assert.Len(t, k1, KeySize)
	// Iteration count is not an Argon2 parameter.
	assert.Equal(t, k1, k2)

	k3, err := d.Derive([]byte("apple banana cherry:pw"), salt, 100000)
	require.NoError(t, err)
	assert.NotEqual(t, k1, k3)
}

func TestArgon2_SaltNormalization(t *testing.T) {
	d := NewArgon2()
	secret := []byte("correct horse battery staple")

	full := []byte("0123456789abcdefTRAILING-BYTES-IGNORED")
	truncated := full[:16]

	kFull, err := d.Derive(secret, full, 0)
	require.NoError(t, err)
	kTrunc, err := d.Derive(secret, truncated, 0)
	require.NoError(t, err)
	assert.Equal(t, kTrunc, kFull, "bytes past 16 must be ignored")

	short := []byte("abc")
	padded := append([]byte("abc"), make([]byte, 13)...)
	kShort, err := d.Derive(secret, short, 0)
	require.NoError(t, err)
	kPadded, err := d.Derive(secret, padded, 0)
	require.NoError(t, err)
	assert.Equal(t, kPadded, kShort, "short salts are zero padded")

	kEmpty, err := d.Derive(secret, nil, 0)
	require.NoError(t, err)
	kZero, err := d.Derive(secret, make([]byte, 16), 0)
	require.NoError(t, err)
	assert.Equal(t, kZero, kEmpty)
}

func TestArgon2_InvalidCost(t *testing.T) {
	tests := []struct {
		name string
		a    *Argon2
	}{
		{"zero time", &Argon2{Time: 0, Memory: 1024, Threads: 1}},
		{"zero threads", &Argon2{Time: 1, Memory: 1024, Threads: 0}},
		{"memory too small", &Argon2{Time: 1, Memory: 7, Threads: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.a.Derive([]byte("s"), []byte("salt"), 0)
			assert.True(t, errors.Is(err, cryptoerr.ErrKeyDerivationFailed))
		})
	}
}

func TestNormalizeArgon2Salt(t *testing.T) {
	s := NormalizeArgon2Salt([]byte{1, 2, 3})
	assert.Equal(t, [16]byte{1, 2, 3}, s)

	long := bytes.Repeat([]byte{0xff}, 32)
	s = NormalizeArgon2Salt(long)
	for _, b := range s {
		assert.Equal(t, byte(0xff), b)
	}
}

func TestForAlgorithm(t *testing.T) {
	assert.Equal(t, AlgorithmArgon2, ForAlgorithm("argon2").Name())
	assert.Equal(t, AlgorithmPBKDF2, ForAlgorithm("pbkdf2").Name())

	// Unknown and differently-cased tags fall back to PBKDF2.
	for _, tag := range []Algorithm{"", "scrypt", "ARGON2", "Argon2", "bcrypt"} {
		assert.Equal(t, AlgorithmPBKDF2, ForAlgorithm(tag).Name(), "tag %q", tag)
	}
}

func TestDerive_UnknownTagMatchesPBKDF2(t *testing.T) {
	salt := []byte("0123456789abcdef0123456789abcdef")
	secret := []byte("able abroad absence")

	want, err := NewPBKDF2().Derive(secret, salt, 1000)
	require.NoError(t, err)

	got, err := Derive(secret, salt, Params{Algorithm: "scrypt", Iterations: 1000})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestParamsLabel(t *testing.T) {
	assert.Equal(t, "pbkdf2-100000", DefaultParams().Label())
	assert.Equal(t, "argon2-100000", Params{Algorithm: AlgorithmArgon2, Iterations: 100000}.Label())
	assert.Equal(t, "pbkdf2-1", Params{Algorithm: AlgorithmPBKDF2, Iterations: 1}.Label())
}

func TestParseLabel(t *testing.T) {
	tests := []struct {
		label string
		want  Params
	}{
		{"pbkdf2-100000", Params{AlgorithmPBKDF2, 100000}},
		{"argon2-100000", Params{AlgorithmArgon2, 100000}},
		{"pbkdf2-600000", Params{AlgorithmPBKDF2, 600000}},
		{"argon2", Params{AlgorithmArgon2, DefaultIterations}},
		{"pbkdf2-abc", Params{AlgorithmPBKDF2, DefaultIterations}},
		{"", Params{AlgorithmPBKDF2, DefaultIterations}},
		{"scrypt-2048-8", Params{"scrypt", 2048}},
		{"pbkdf2-0", Params{AlgorithmPBKDF2, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLabel(tt.label))
		})
	}
}

// TestDerivationProperties checks determinism and input sensitivity.
func TestDerivationProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 25

	properties := gopter.NewProperties(parameters)

	properties.Property("pbkdf2 is deterministic", prop.ForAll(
		func(secret string, salt []byte) bool {
			if len(salt) == 0 {
				return true
			}
			k1, err1 := Derive([]byte(secret), salt, Params{AlgorithmPBKDF2, 10})
			k2, err2 := Derive([]byte(secret), salt, Params{AlgorithmPBKDF2, 10})
			return err1 == nil && err2 == nil && len(k1) == KeySize && bytes.Equal(k1, k2)
		},
		gen.AlphaString(),
		gen.SliceOfN(32, gen.UInt8()),
	))

	properties.Property("label round-trips", prop.ForAll(
		func(iterations uint32, argon bool) bool {
			p := Params{Algorithm: AlgorithmPBKDF2, Iterations: int(iterations)}
			if argon {
				p.Algorithm = AlgorithmArgon2
			}
			return ParseLabel(p.Label()) == p
		},
		gen.UInt32(),
		gen.Bool(),
	))

	properties.Property("different salts give different keys", prop.ForAll(
		func(secret string, a, b []byte) bool {
			if bytes.Equal(a, b) {
				return true
			}
			k1, _ := Derive([]byte(secret), a, Params{AlgorithmPBKDF2, 10})
			k2, _ := Derive([]byte(secret), b, Params{AlgorithmPBKDF2, 10})
			return !bytes.Equal(k1, k2)
		},
		gen.AlphaString(),
		gen.SliceOfN(16, gen.UInt8()),
		gen.SliceOfN(16, gen.UInt8()),
	))

	properties.TestingRun(t)
}

func TestParams_Validate(t *testing.T) {
	largest := int(uint64(math.MaxUint32))

	for _, n := range []int{1, DefaultIterations, largest} {
		assert.NoError(t, Params{Algorithm: AlgorithmPBKDF2, Iterations: n}.Validate(), n)
	}
	for _, n := range []int{0, -1, largest + 1} {
		err := Params{Algorithm: AlgorithmArgon2, Iterations: n}.Validate()
		require.Error(t, err, n)
		assert.True(t, errors.Is(err, cryptoerr.ErrKeyDerivationFailed))
		assert.True(t, errors.Is(err, ErrInvalidParameters))
		assert.Equal(t, cryptoerr.StageDerive, cryptoerr.StageOf(err))
	}
}
