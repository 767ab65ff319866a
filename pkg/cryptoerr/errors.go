// Package cryptoerr defines the error taxonomy shared by the seedvault
// packages. Every failure is reported as an *Error carrying a Kind, the stage
// that failed and a human-readable detail, so callers can surface it directly
// while still matching on sentinels with errors.Is.
package cryptoerr

import (
	"errors"
	"fmt"
)

// Kind identifies the class of a failure.
type Kind int

const (
	// EncryptionFailed covers failures while producing a container.
	EncryptionFailed Kind = iota + 1
	// DecryptionFailed covers failures while recovering plaintext. It usually
	// wraps a more specific cause such as AuthenticationFailed.
	DecryptionFailed
	// MalformedContainer covers base64 errors, truncation and unparsable metadata.
	MalformedContainer
	// UnrecognizedFormat is returned when the advanced magic does not match.
	UnrecognizedFormat
	// IntegrityViolation is returned when the stored digest does not match
	// the ciphertext.
	IntegrityViolation
	// KeyDerivationFailed is returned when a KDF rejects its parameters.
	KeyDerivationFailed
	// AuthenticationFailed is returned when the AEAD tag does not verify.
	AuthenticationFailed
)

// InvalidData is the name the boundary layer historically used for
// MalformedContainer.
const InvalidData = MalformedContainer

// Stages at which an operation can fail.
const (
	StageDecode    = "decode"
	StageIntegrity = "integrity"
	StageDerive    = "derive"
	StageCipher    = "cipher"
	StageEncode    = "encode"
	StageRandom    = "random"
	StageUTF8      = "utf8"
)

// Sentinel errors for errors.Is() checks.
var (
	ErrEncryptionFailed     = errors.New("encryption failed")
	ErrDecryptionFailed     = errors.New("decryption failed")
	ErrMalformedContainer   = errors.New("invalid data")
	ErrUnrecognizedFormat   = errors.New("unrecognized container format")
	ErrIntegrityViolation   = errors.New("integrity verification failed")
	ErrKeyDerivationFailed  = errors.New("key derivation failed")
	ErrAuthenticationFailed = errors.New("authentication failed")
)

// String returns the stable name of the kind.
func (k Kind) String() string {
	switch k {
	case EncryptionFailed:
		return "EncryptionFailed"
	case DecryptionFailed:
		return "DecryptionFailed"
	case MalformedContainer:
		return "MalformedContainer"
	case UnrecognizedFormat:
		return "UnrecognizedFormat"
	case IntegrityViolation:
		return "IntegrityViolation"
	case KeyDerivationFailed:
		return "KeyDerivationFailed"
	case AuthenticationFailed:
		return "AuthenticationFailed"
	default:
		return "Unknown"
	}
}

// Sentinel returns the sentinel error matched by errors of this kind.
func (k Kind) Sentinel() error {
	switch k {
	case EncryptionFailed:
		return ErrEncryptionFailed
	case DecryptionFailed:
		return ErrDecryptionFailed
	case MalformedContainer:
		return ErrMalformedContainer
	case UnrecognizedFormat:
		return ErrUnrecognizedFormat
	case IntegrityViolation:
		return ErrIntegrityViolation
	case KeyDerivationFailed:
		return ErrKeyDerivationFailed
	case AuthenticationFailed:
		return ErrAuthenticationFailed
	default:
		return nil
	}
}

// Error is the tagged-variant error returned by every seedvault operation.
type Error struct {
	Kind   Kind
	Stage  string // one of the Stage* constants, may be empty
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := "crypto error"
	if s := e.Kind.Sentinel(); s != nil {
		msg = s.Error()
	}
	if e.Stage != "" {
		msg = fmt.Sprintf("%s at %s", msg, e.Stage)
	}
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for sentinel error matching.
func (e *Error) Is(target error) bool {
	if target == e.Kind.Sentinel() {
		return true
	}
	// A bad magic is still a malformed container from the caller's view.
	return e.Kind == UnrecognizedFormat && target == ErrMalformedContainer
}

// New creates an error of the given kind.
func New(kind Kind, stage, detail string) *Error {
	return &Error{Kind: kind, Stage: stage, Detail: detail}
}

// Wrap creates an error of the given kind around cause.
func Wrap(kind Kind, stage string, cause error, detail string) *Error {
	return &Error{Kind: kind, Stage: stage, Detail: detail, Err: cause}
}

// Wrapf is Wrap with a formatted detail.
func Wrapf(kind Kind, stage string, cause error, format string, args ...any) *Error {
	return Wrap(kind, stage, cause, fmt.Sprintf(format, args...))
}

// KindOf returns the kind of the outermost *Error in err's chain, or 0 when
// err carries no kind.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// RootKind returns the kind of the innermost *Error in err's chain. For a
// DecryptionFailed wrapping an AuthenticationFailed it returns
// AuthenticationFailed.
func RootKind(err error) Kind {
	kind := Kind(0)
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			break
		}
		kind = e.Kind
		err = e.Err
	}
	return kind
}

// StageOf returns the stage of the innermost *Error that recorded one.
func StageOf(err error) string {
	stage := ""
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			break
		}
		if e.Stage != "" {
			stage = e.Stage
		}
		err = e.Err
	}
	return stage
}
