package container

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/seedvault/pkg/cryptoerr"
	"github.com/dd0wney/seedvault/pkg/integrity"
)

func sampleAdvanced() Advanced {
	ct := []byte("pretend this is ciphertext+tag")
	return Advanced{
		Salt:       bytes.Repeat([]byte{0x11}, AdvancedSaltSize),
		Nonce:      bytes.Repeat([]byte{0x22}, NonceSize),
		Metadata:   integrity.Compute(ct, "AES-256-GCM", "pbkdf2-100000", time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)),
		Ciphertext: ct,
	}
}

func TestLegacyRoundTrip(t *testing.T) {
	in := Legacy{
		Salt:       bytes.Repeat([]byte{0xAA}, LegacySaltSize),
		Nonce:      bytes.Repeat([]byte{0xBB}, NonceSize),
		Ciphertext: []byte{1, 2, 3, 4},
	}

	s, err := EncodeLegacy(in)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(s)
	require.NoError(t, err)
	assert.Len(t, raw, LegacyHeaderSize+4)
	assert.Equal(t, in.Salt, raw[:16])
	assert.Equal(t, in.Nonce, raw[16:28])

	out, err := DecodeLegacy(s)
	require.NoError(t, err)
	assert.Equal(t, in.Salt, out.Salt)
	assert.Equal(t, in.Nonce, out.Nonce)
	assert.Equal(t, in.Ciphertext, out.Ciphertext)
}

func TestDecodeLegacy_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not base64", "!!!not base64!!!"},
		{"empty", ""},
		{"one byte", base64.StdEncoding.EncodeToString([]byte{1})},
		{"27 bytes", base64.StdEncoding.EncodeToString(make([]byte, 27))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeLegacy(tt.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, cryptoerr.ErrMalformedContainer))
			assert.Equal(t, cryptoerr.StageDecode, cryptoerr.StageOf(err))
		})
	}

	// Exactly the header is a container with empty ciphertext.
	out, err := DecodeLegacy(base64.StdEncoding.EncodeToString(make([]byte, 28)))
	require.NoError(t, err)
	assert.Empty(t, out.Ciphertext)
}

func TestEncodeLegacy_BadSizes(t *testing.T) {
	_, err := EncodeLegacy(Legacy{Salt: make([]byte, 32), Nonce: make([]byte, 12)})
	assert.True(t, errors.Is(err, cryptoerr.ErrEncryptionFailed))

	_, err = EncodeLegacy(Legacy{Salt: make([]byte, 16), Nonce: make([]byte, 8)})
	assert.True(t, errors.Is(err, cryptoerr.ErrEncryptionFailed))
}

func TestAdvancedRoundTrip(t *testing.T) {
	in := sampleAdvanced()

	s, err := EncodeAdvanced(in)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(s)
	require.NoError(t, err)
	assert.Equal(t, Magic, string(raw[:8]))

	metaLen := binary.LittleEndian.Uint32(raw[8:12])
	meta, _ := integrity.Marshal(in.Metadata)
	assert.Equal(t, uint32(len(meta)), metaLen)
	assert.Equal(t, in.Salt, raw[12:44])
	assert.Equal(t, in.Nonce, raw[44:56])
	assert.Equal(t, meta, raw[56:56+metaLen])
	assert.Equal(t, in.Ciphertext, raw[56+metaLen:])

	out, err := DecodeAdvanced(s)
	require.NoError(t, err)
	assert.Equal(t, in.Salt, out.Salt)
	assert.Equal(t, in.Nonce, out.Nonce)
	assert.Equal(t, in.Ciphertext, out.Ciphertext)
	assert.Equal(t, in.Metadata.SHA256Hash, out.Metadata.SHA256Hash)
	assert.Equal(t, in.Metadata.KeyDerivation, out.Metadata.KeyDerivation)
	assert.True(t, in.Metadata.CreatedAt.Equal(out.Metadata.CreatedAt))
}

// buildAdvanced assembles raw advanced bytes without going through
// EncodeAdvanced so tests can forge headers.
func buildAdvanced(magic string, declaredLen uint32, meta, ct []byte) string {
	buf := []byte(magic)
	var l [4]byte
	binary.LittleEndian.PutUint32(l[:], declaredLen)
	buf = append(buf, l[:]...)
	buf = append(buf, make([]byte, AdvancedSaltSize+NonceSize)...)
	buf = append(buf, meta...)
	buf = append(buf, ct...)
	return base64.StdEncoding.EncodeToString(buf)
}

func TestDecodeAdvanced_Errors(t *testing.T) {
	goodMeta := []byte(`{"sha256_hash":"00","file_size":0,"created_at":"2025-01-01T00:00:00Z","encryption_method":"AES-256-GCM","key_derivation":"pbkdf2-100000"}`)

	tests := []struct {
		name    string
		input   string
		want    error
		wantNot error
	}{
		{"not base64", "@@@", cryptoerr.ErrMalformedContainer, cryptoerr.ErrUnrecognizedFormat},
		{"empty", "", cryptoerr.ErrMalformedContainer, cryptoerr.ErrUnrecognizedFormat},
		{"55 bytes", base64.StdEncoding.EncodeToString(make([]byte, 55)), cryptoerr.ErrMalformedContainer, cryptoerr.ErrUnrecognizedFormat},
		{"bad magic", buildAdvanced("AESADV02", 0, nil, nil), cryptoerr.ErrUnrecognizedFormat, nil},
		{"lowercase magic", buildAdvanced("aesadv01", 0, nil, nil), cryptoerr.ErrUnrecognizedFormat, nil},
		{"length past end", buildAdvanced(Magic, 10, []byte("{}"), nil), cryptoerr.ErrMalformedContainer, cryptoerr.ErrUnrecognizedFormat},
		{"max length", buildAdvanced(Magic, 0xFFFFFFFF, goodMeta, nil), cryptoerr.ErrMalformedContainer, cryptoerr.ErrUnrecognizedFormat},
		{"metadata not utf8", buildAdvanced(Magic, 2, []byte{0xff, 0xfe}, nil), cryptoerr.ErrMalformedContainer, cryptoerr.ErrUnrecognizedFormat},
		{"metadata not json", buildAdvanced(Magic, 5, []byte("hello"), nil), cryptoerr.ErrMalformedContainer, cryptoerr.ErrUnrecognizedFormat},
		{"empty metadata", buildAdvanced(Magic, 0, nil, []byte("ct")), cryptoerr.ErrMalformedContainer, cryptoerr.ErrUnrecognizedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := DecodeAdvanced(tt.input)
			require.Error(t, err)
			assert.Nil(t, out)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			if tt.wantNot != nil {
				assert.False(t, errors.Is(err, tt.wantNot), "got %v", err)
			}
		})
	}
}

func TestDecodeAdvanced_HeaderOnlyMetadata(t *testing.T) {
	meta := []byte(`{"sha256_hash":"","file_size":0,"created_at":"2025-01-01T00:00:00Z","encryption_method":"AES-256-GCM","key_derivation":"argon2-100000"}`)
	out, err := DecodeAdvanced(buildAdvanced(Magic, uint32(len(meta)), meta, nil))
	require.NoError(t, err)
	assert.Empty(t, out.Ciphertext)
	assert.Equal(t, "argon2-100000", out.Metadata.KeyDerivation)
}

func TestDecodedSlicesDoNotOverlap(t *testing.T) {
	s, err := EncodeAdvanced(sampleAdvanced())
	require.NoError(t, err)
	out, err := DecodeAdvanced(s)
	require.NoError(t, err)

	// Appending to the salt must not overwrite the nonce.
	nonce := append([]byte(nil), out.Nonce...)
	_ = append(out.Salt, 0xFF)
	assert.Equal(t, nonce, out.Nonce)
}

func TestSniff(t *testing.T) {
	adv, err := EncodeAdvanced(sampleAdvanced())
	require.NoError(t, err)
	legacy, err := EncodeLegacy(Legacy{Salt: make([]byte, 16), Nonce: make([]byte, 12), Ciphertext: []byte("x")})
	require.NoError(t, err)

	f, err := Sniff(adv)
	require.NoError(t, err)
	assert.Equal(t, FormatAdvanced, f)
	assert.Equal(t, "advanced", f.String())

	f, err = Sniff(legacy)
	require.NoError(t, err)
	assert.Equal(t, FormatLegacy, f)
	assert.Equal(t, "legacy", f.String())

	f, err = Sniff(base64.StdEncoding.EncodeToString([]byte("AES")))
	require.NoError(t, err)
	assert.Equal(t, FormatLegacy, f)

	_, err = Sniff("%%%")
	assert.True(t, errors.Is(err, cryptoerr.ErrMalformedContainer))
}
