package vault

import (
	"errors"
	"time"
	"unicode/utf8"

	"github.com/dd0wney/seedvault/pkg/cryptoerr"
	"github.com/dd0wney/seedvault/pkg/kdf"
	"github.com/dd0wney/seedvault/pkg/logging"
	"github.com/dd0wney/seedvault/pkg/secret"
)

// deriveKey combines the secrets, derives the key and scrubs the combined
// secret. The caller must wipe the returned key.
func (v *Vault) deriveKey(passphrase, password string, salt []byte, p kdf.Params) ([]byte, error) {
	combined := secret.Combine(passphrase, password)
	defer combined.Wipe()

	d := kdf.ForAlgorithm(p.Algorithm)
	start := time.Now()
	key, err := d.Derive(combined.Bytes(), salt, p.Iterations)
	v.recorder.RecordKeyDerivation(string(d.Name()), time.Since(start))
	if err != nil {
		return nil, err
	}
	return key, nil
}

// seal derives a key and encrypts content. Content that is not valid UTF-8
// is refused before any key is derived. The plaintext copy and the key are
// wiped before returning.
func (v *Vault) seal(content, passphrase, password string, salt, nonce []byte, p kdf.Params) ([]byte, error) {
	if !utf8.ValidString(content) {
		return nil, cryptoerr.New(cryptoerr.EncryptionFailed, cryptoerr.StageUTF8, "plaintext is not valid UTF-8")
	}

	key, err := v.deriveKey(passphrase, password, salt, p)
	if err != nil {
		return nil, err
	}
	plaintext := []byte(content)
	defer secret.WipeAll(key, plaintext)

	c, err := v.newCipher(key)
	if err != nil {
		return nil, cryptoerr.Wrap(cryptoerr.EncryptionFailed, cryptoerr.StageCipher, err, "")
	}
	return c.Seal(plaintext, nonce)
}

// open derives a key, decrypts and checks the recovered bytes are text.
func (v *Vault) open(ciphertext []byte, passphrase, password string, salt, nonce []byte, p kdf.Params) (string, error) {
	key, err := v.deriveKey(passphrase, password, salt, p)
	if err != nil {
		return "", err
	}
	var plaintext []byte
	defer func() { secret.WipeAll(key, plaintext) }()

	c, err := v.newCipher(key)
	if err != nil {
		return "", cryptoerr.Wrap(cryptoerr.DecryptionFailed, cryptoerr.StageCipher, err, "")
	}
	if plaintext, err = c.Open(ciphertext, nonce); err != nil {
		return "", err
	}

	if !utf8.Valid(plaintext) {
		return "", cryptoerr.New(cryptoerr.DecryptionFailed, cryptoerr.StageUTF8, "decrypted data is not valid UTF-8")
	}
	return string(plaintext), nil
}

// asDecryptionFailed wraps err so the outer kind is DecryptionFailed while the
// original cause stays reachable through errors.Is.
func asDecryptionFailed(err error) error {
	if cryptoerr.KindOf(err) == cryptoerr.DecryptionFailed {
		return err
	}
	return cryptoerr.Wrap(cryptoerr.DecryptionFailed, "", err, "")
}

// asEncryptionFailed keeps KeyDerivationFailed and EncryptionFailed as they
// are and wraps anything else.
func asEncryptionFailed(err error) error {
	switch cryptoerr.KindOf(err) {
	case cryptoerr.EncryptionFailed, cryptoerr.KeyDerivationFailed:
		return err
	}
	return cryptoerr.Wrap(cryptoerr.EncryptionFailed, "", err, "")
}

// begin starts timing an operation.
func (v *Vault) begin(op string, fields ...logging.Field) *logging.TimedOperation {
	return logging.StartTimer(v.logger, op, append([]logging.Field{logging.Operation(op)}, fields...)...)
}

// finish records the outcome of op in logs and metrics.
func (v *Vault) finish(op string, t *logging.TimedOperation, err error, fields ...logging.Field) {
	if err == nil {
		v.recorder.RecordOperation(op, StatusSuccess, t.Elapsed())
		t.EndWithLevel(logging.DebugLevel, op+" completed", fields...)
		return
	}

	kind := cryptoerr.RootKind(err)
	status := kind.String()
	if kind == 0 {
		status = "error"
	}
	v.recorder.RecordOperation(op, status, t.Elapsed())

	if errors.Is(err, cryptoerr.ErrIntegrityViolation) {
		v.recorder.RecordIntegrityFailure()
	}
	if errors.Is(err, cryptoerr.ErrAuthenticationFailed) {
		v.recorder.RecordAuthenticationFailure()
	}

	fields = append(fields,
		logging.Kind(status),
		logging.Stage(cryptoerr.StageOf(err)),
		logging.Error(err),
	)
	t.EndWithLevel(logging.WarnLevel, op+" failed", fields...)
}
