// Package vault exposes the boundary operations of seedvault: legacy and
// advanced encryption of a text secret under a passphrase and optional
// password, plus the non-destructive integrity inspections of advanced
// containers.
//
// A Vault holds no per-call state. Every operation derives its own key, owns
// its own buffers and scrubs secret material before returning, so a single
// Vault may be shared by any number of goroutines.
package vault

import (
	"io"
	"time"

	"github.com/dd0wney/seedvault/pkg/encryption"
	"github.com/dd0wney/seedvault/pkg/kdf"
	"github.com/dd0wney/seedvault/pkg/logging"
)

// Operation names used in logs and metrics.
const (
	OpEncrypt               = "encrypt"
	OpDecrypt               = "decrypt"
	OpEncryptAdvanced       = "encrypt_advanced"
	OpDecryptAdvanced       = "decrypt_advanced"
	OpVerifyIntegrity       = "verify_integrity"
	OpGetIntegrityInfo      = "get_integrity_info"
	OpExportIntegrityReport = "export_integrity_report"
)

// StatusSuccess is the status reported to the Recorder for operations that
// completed. Failed operations report the name of the most specific error kind.
const StatusSuccess = "success"

// Recorder receives operation metrics. *metrics.Registry satisfies it.
type Recorder interface {
	RecordOperation(operation, status string, duration time.Duration)
	RecordKeyDerivation(algorithm string, duration time.Duration)
	RecordIntegrityFailure()
	RecordAuthenticationFailure()
}

type nopRecorder struct{}

func (nopRecorder) RecordOperation(string, string, time.Duration) {}
func (nopRecorder) RecordKeyDerivation(string, time.Duration)     {}
func (nopRecorder) RecordIntegrityFailure()                       {}
func (nopRecorder) RecordAuthenticationFailure()                  {}

// Vault runs the encrypt and decrypt pipelines.
type Vault struct {
	logger   logging.Logger
	recorder Recorder
	random   *encryption.Random
	now      func() time.Time
	defaults kdf.Params

	newCipher func(key []byte) (encryption.SealOpener, error)
}

func newEngine(key []byte) (encryption.SealOpener, error) {
	return encryption.NewEngine(key)
}

// Option configures a Vault.
type Option func(*Vault)

// WithLogger sets the logger. Only operation names, formats, labels, sizes
// and error kinds are ever logged.
func WithLogger(l logging.Logger) Option {
	return func(v *Vault) {
		if l != nil {
			v.logger = l
		}
	}
}

// WithRecorder sets the metrics sink.
func WithRecorder(r Recorder) Option {
	return func(v *Vault) {
		if r != nil {
			v.recorder = r
		}
	}
}

// WithRandom replaces the salt and nonce source. Tests only; production
// code must use the default crypto/rand source.
func WithRandom(r io.Reader) Option {
	return func(v *Vault) {
		v.random = encryption.NewRandom(r)
	}
}

// WithClock sets the clock used for integrity timestamps.
func WithClock(now func() time.Time) Option {
	return func(v *Vault) {
		if now != nil {
			v.now = now
		}
	}
}

// WithDefaults sets the derivation used by EncryptAdvanced when the request
// leaves it unset. The legacy format always uses PBKDF2 with 100000
// iterations regardless.
func WithDefaults(p kdf.Params) Option {
	return func(v *Vault) {
		if p.Algorithm != "" {
			v.defaults.Algorithm = p.Algorithm
		}
		if p.Iterations != 0 {
			v.defaults.Iterations = p.Iterations
		}
	}
}

// New creates a Vault.
func New(opts ...Option) *Vault {
	v := &Vault{
		logger:   logging.Nop(),
		recorder: nopRecorder{},
		random:   encryption.NewRandom(nil),
		now:      time.Now,
		defaults: kdf.DefaultParams(),

		newCipher: newEngine,
	}
	for _, opt := range opts {
		opt(v)
	}
	v.logger = v.logger.With(logging.Component("vault"))
	return v
}

// Defaults returns the derivation parameters used when a request omits them.
func (v *Vault) Defaults() kdf.Params {
	return v.defaults
}
