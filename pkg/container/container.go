// Package container encodes and decodes the two self-describing envelopes
// that carry salt, nonce, metadata and ciphertext as base64 text.
//
// Legacy layout:
//
//	salt(16) || nonce(12) || ciphertext
//
// Advanced layout:
//
//	magic(8) || metadata_len(4, LE) || salt(32) || nonce(12) || metadata || ciphertext
package container

import (
	"encoding/base64"
	"encoding/binary"
	"unicode/utf8"

	"github.com/dd0wney/seedvault/pkg/cryptoerr"
	"github.com/dd0wney/seedvault/pkg/integrity"
)

const (
	LegacySaltSize   = 16
	AdvancedSaltSize = 32
	NonceSize        = 12

	// Magic identifies advanced containers.
	Magic      = "AESADV01"
	MagicSize  = len(Magic)
	lengthSize = 4

	// LegacyHeaderSize is the minimum decoded length of a legacy container.
	LegacyHeaderSize = LegacySaltSize + NonceSize
	// AdvancedHeaderSize is the fixed part of an advanced container.
	AdvancedHeaderSize = MagicSize + lengthSize + AdvancedSaltSize + NonceSize
)

// Format distinguishes the two container variants.
type Format int

const (
	FormatLegacy Format = iota
	FormatAdvanced
)

func (f Format) String() string {
	if f == FormatAdvanced {
		return "advanced"
	}
	return "legacy"
}

var encoding = base64.StdEncoding

// Legacy is a decoded legacy container.
type Legacy struct {
	Salt       []byte
	Nonce      []byte
	Ciphertext []byte
}

// Advanced is a decoded advanced container.
type Advanced struct {
	Salt       []byte
	Nonce      []byte
	Metadata   integrity.Info
	Ciphertext []byte
}

func decodeBase64(s string) ([]byte, error) {
	raw, err := encoding.DecodeString(s)
	if err != nil {
		return nil, cryptoerr.Wrap(cryptoerr.MalformedContainer, cryptoerr.StageDecode, err, "invalid base64 data")
	}
	return raw, nil
}

// EncodeLegacy concatenates salt, nonce and ciphertext and base64-encodes
// the result.
func EncodeLegacy(c Legacy) (string, error) {
	if len(c.Salt) != LegacySaltSize {
		return "", cryptoerr.New(cryptoerr.EncryptionFailed, cryptoerr.StageEncode, "legacy salt must be 16 bytes")
	}
	if len(c.Nonce) != NonceSize {
		return "", cryptoerr.New(cryptoerr.EncryptionFailed, cryptoerr.StageEncode, "nonce must be 12 bytes")
	}

	buf := make([]byte, 0, LegacyHeaderSize+len(c.Ciphertext))
	buf = append(buf, c.Salt...)
	buf = append(buf, c.Nonce...)
	buf = append(buf, c.Ciphertext...)
	return encoding.EncodeToString(buf), nil
}

// DecodeLegacy parses a legacy container. The returned slices share one
// freshly decoded buffer.
func DecodeLegacy(s string) (*Legacy, error) {
	raw, err := decodeBase64(s)
	if err != nil {
		return nil, err
	}
	if len(raw) < LegacyHeaderSize {
		return nil, cryptoerr.Wrapf(cryptoerr.MalformedContainer, cryptoerr.StageDecode, nil,
			"encrypted data too short: %d bytes, need at least %d", len(raw), LegacyHeaderSize)
	}

	return &Legacy{
		Salt:       raw[:LegacySaltSize:LegacySaltSize],
		Nonce:      raw[LegacySaltSize:LegacyHeaderSize:LegacyHeaderSize],
		Ciphertext: raw[LegacyHeaderSize:],
	}, nil
}

// EncodeAdvanced serializes the metadata and writes the advanced envelope.
func EncodeAdvanced(c Advanced) (string, error) {
	if len(c.Salt) != AdvancedSaltSize {
		return "", cryptoerr.New(cryptoerr.EncryptionFailed, cryptoerr.StageEncode, "advanced salt must be 32 bytes")
	}
	if len(c.Nonce) != NonceSize {
		return "", cryptoerr.New(cryptoerr.EncryptionFailed, cryptoerr.StageEncode, "nonce must be 12 bytes")
	}

	meta, err := integrity.Marshal(c.Metadata)
	if err != nil {
		return "", err
	}

	buf := make([]byte, AdvancedHeaderSize, AdvancedHeaderSize+len(meta)+len(c.Ciphertext))
	copy(buf[0:MagicSize], Magic)
	binary.LittleEndian.PutUint32(buf[MagicSize:MagicSize+lengthSize], uint32(len(meta)))
	copy(buf[MagicSize+lengthSize:], c.Salt)
	copy(buf[MagicSize+lengthSize+AdvancedSaltSize:], c.Nonce)
	buf = append(buf, meta...)
	buf = append(buf, c.Ciphertext...)

	return encoding.EncodeToString(buf), nil
}

// DecodeAdvanced parses an advanced container. Every length is checked
// before slicing; a short buffer is MalformedContainer and a wrong magic is
// UnrecognizedFormat.
func DecodeAdvanced(s string) (*Advanced, error) {
	raw, err := decodeBase64(s)
	if err != nil {
		return nil, err
	}
	if len(raw) < AdvancedHeaderSize {
		return nil, cryptoerr.Wrapf(cryptoerr.MalformedContainer, cryptoerr.StageDecode, nil,
			"file too small to be valid: %d bytes, need at least %d", len(raw), AdvancedHeaderSize)
	}
	if string(raw[:MagicSize]) != Magic {
		return nil, cryptoerr.New(cryptoerr.UnrecognizedFormat, cryptoerr.StageDecode, "invalid file format")
	}

	metaLen := uint64(binary.LittleEndian.Uint32(raw[MagicSize : MagicSize+lengthSize]))
	if uint64(len(raw)) < uint64(AdvancedHeaderSize)+metaLen {
		return nil, cryptoerr.Wrapf(cryptoerr.MalformedContainer, cryptoerr.StageDecode, nil,
			"invalid metadata length: %d bytes declared, %d available", metaLen, len(raw)-AdvancedHeaderSize)
	}

	off := MagicSize + lengthSize
	salt := raw[off : off+AdvancedSaltSize : off+AdvancedSaltSize]
	off += AdvancedSaltSize
	nonce := raw[off : off+NonceSize : off+NonceSize]
	off += NonceSize
	metaEnd := off + int(metaLen)
	meta := raw[off:metaEnd]

	if !utf8.Valid(meta) {
		return nil, cryptoerr.New(cryptoerr.MalformedContainer, cryptoerr.StageDecode, "metadata is not valid UTF-8")
	}
	info, err := integrity.Unmarshal(meta)
	if err != nil {
		return nil, err
	}

	return &Advanced{
		Salt:       salt,
		Nonce:      nonce,
		Metadata:   info,
		Ciphertext: raw[metaEnd:],
	}, nil
}

// Sniff reports FormatAdvanced when the decoded bytes begin with Magic and
// FormatLegacy otherwise. It does not validate the rest of the container.
func Sniff(s string) (Format, error) {
	raw, err := decodeBase64(s)
	if err != nil {
		return FormatLegacy, err
	}
	if len(raw) >= MagicSize && string(raw[:MagicSize]) == Magic {
		return FormatAdvanced, nil
	}
	return FormatLegacy, nil
}
