package vault

import (
	"encoding/base64"

	"github.com/dd0wney/seedvault/pkg/container"
	"github.com/dd0wney/seedvault/pkg/encryption"
	"github.com/dd0wney/seedvault/pkg/integrity"
	"github.com/dd0wney/seedvault/pkg/kdf"
	"github.com/dd0wney/seedvault/pkg/logging"
)

// legacyParams is fixed by the legacy container format.
var legacyParams = kdf.Params{Algorithm: kdf.AlgorithmPBKDF2, Iterations: kdf.DefaultIterations}

// AdvancedRequest is the input to EncryptAdvanced. Zero Derivation and
// Iterations select the vault defaults.
type AdvancedRequest struct {
	Content    string
	Passphrase string
	Password   string
	Derivation kdf.Algorithm
	Iterations int
}

// AdvancedResult is the output of EncryptAdvanced. Salt and IV repeat what is
// inside Container, base64-encoded, for display.
type AdvancedResult struct {
	Container string         `json:"container"`
	Integrity integrity.Info `json:"integrity"`
	Salt      string         `json:"salt"`
	IV        string         `json:"iv"`
}

// Encrypt seals plaintext in a legacy container using PBKDF2 with 100000
// iterations and a fresh 16-byte salt and 12-byte nonce.
func (v *Vault) Encrypt(plaintext, passphrase, password string) (_ string, err error) {
	t := v.begin(OpEncrypt, logging.Format(container.FormatLegacy.String()))
	defer func() { v.finish(OpEncrypt, t, err) }()

	salt, err := v.random.Salt(container.LegacySaltSize)
	if err != nil {
		return "", err
	}
	nonce, err := v.random.Nonce()
	if err != nil {
		return "", err
	}

	ciphertext, err := v.seal(plaintext, passphrase, password, salt, nonce, legacyParams)
	if err != nil {
		return "", asEncryptionFailed(err)
	}

	return container.EncodeLegacy(container.Legacy{Salt: salt, Nonce: nonce, Ciphertext: ciphertext})
}

// Decrypt opens a legacy container. Every failure, including malformed input
// and tag mismatch, is reported as DecryptionFailed wrapping the cause.
func (v *Vault) Decrypt(encoded, passphrase, password string) (_ string, err error) {
	t := v.begin(OpDecrypt, logging.Format(container.FormatLegacy.String()))
	defer func() { v.finish(OpDecrypt, t, err) }()

	c, err := container.DecodeLegacy(encoded)
	if err != nil {
		return "", asDecryptionFailed(err)
	}

	plaintext, err := v.open(c.Ciphertext, passphrase, password, c.Salt, c.Nonce, legacyParams)
	if err != nil {
		return "", asDecryptionFailed(err)
	}
	return plaintext, nil
}

// EncryptAdvanced seals content in an advanced container with a 32-byte salt
// and integrity metadata computed over the ciphertext.
func (v *Vault) EncryptAdvanced(req AdvancedRequest) (_ *AdvancedResult, err error) {
	params := kdf.Params{Algorithm: req.Derivation, Iterations: req.Iterations}
	if params.Algorithm == "" {
		params.Algorithm = v.defaults.Algorithm
	}
	if params.Iterations == 0 {
		params.Iterations = v.defaults.Iterations
	}
	label := params.Label()

	t := v.begin(OpEncryptAdvanced, logging.Format(container.FormatAdvanced.String()), logging.Derivation(label))
	defer func() { v.finish(OpEncryptAdvanced, t, err) }()

	// A count the label cannot carry would decrypt with a different one.
	if err := params.Validate(); err != nil {
		return nil, err
	}

	salt, err := v.random.Salt(container.AdvancedSaltSize)
	if err != nil {
		return nil, err
	}
	nonce, err := v.random.Nonce()
	if err != nil {
		return nil, err
	}

	ciphertext, err := v.seal(req.Content, req.Passphrase, req.Password, salt, nonce, params)
	if err != nil {
		return nil, asEncryptionFailed(err)
	}

	info := integrity.Compute(ciphertext, encryption.Method, label, v.now())
	encoded, err := container.EncodeAdvanced(container.Advanced{
		Salt:       salt,
		Nonce:      nonce,
		Metadata:   info,
		Ciphertext: ciphertext,
	})
	if err != nil {
		return nil, err
	}

	return &AdvancedResult{
		Container: encoded,
		Integrity: info,
		Salt:      base64.StdEncoding.EncodeToString(salt),
		IV:        base64.StdEncoding.EncodeToString(nonce),
	}, nil
}

// DecryptAdvanced opens an advanced container. The stored digest is checked
// before any key is derived; a mismatch is IntegrityViolation. Container
// errors keep their own kind and everything after the integrity check is
// reported as DecryptionFailed.
func (v *Vault) DecryptAdvanced(encoded, passphrase, password string) (_ string, err error) {
	t := v.begin(OpDecryptAdvanced, logging.Format(container.FormatAdvanced.String()))
	defer func() { v.finish(OpDecryptAdvanced, t, err) }()

	c, err := container.DecodeAdvanced(encoded)
	if err != nil {
		return "", err
	}
	if err := integrity.Check(c.Metadata, c.Ciphertext); err != nil {
		return "", err
	}

	params := kdf.ParseLabel(c.Metadata.KeyDerivation)
	plaintext, err := v.open(c.Ciphertext, passphrase, password, c.Salt, c.Nonce, params)
	if err != nil {
		return "", asDecryptionFailed(err)
	}
	return plaintext, nil
}

// VerifyIntegrity recomputes the digest of an advanced container without
// decrypting it. A mismatch is reported in the result, not as an error;
// errors mean the container could not be parsed.
func (v *Vault) VerifyIntegrity(encoded string) (_ *integrity.Result, err error) {
	t := v.begin(OpVerifyIntegrity)
	defer func() { v.finish(OpVerifyIntegrity, t, err) }()

	c, err := container.DecodeAdvanced(encoded)
	if err != nil {
		return nil, err
	}

	result := integrity.Verify(c.Metadata, c.Ciphertext)
	if !result.Valid {
		v.recorder.RecordIntegrityFailure()
	}
	return &result, nil
}

// GetIntegrityInfo returns the metadata stored in an advanced container.
func (v *Vault) GetIntegrityInfo(encoded string) (_ *integrity.Info, err error) {
	t := v.begin(OpGetIntegrityInfo)
	defer func() { v.finish(OpGetIntegrityInfo, t, err) }()

	c, err := container.DecodeAdvanced(encoded)
	if err != nil {
		return nil, err
	}
	info := c.Metadata
	return &info, nil
}

// ExportIntegrityReport renders the stored metadata as a plain-text report.
func (v *Vault) ExportIntegrityReport(encoded string) (_ string, err error) {
	t := v.begin(OpExportIntegrityReport)
	defer func() { v.finish(OpExportIntegrityReport, t, err) }()

	c, err := container.DecodeAdvanced(encoded)
	if err != nil {
		return "", err
	}
	return integrity.Report(c.Metadata), nil
}
