package api

import (
	"github.com/dd0wney/seedvault/pkg/validation"
	"github.com/dd0wney/seedvault/pkg/wordlist"
)

// API Request/Response Types
//
// Request bodies are the validation package's request structs so that the
// JSON shape and its constraints live in one place.
type (
	EncryptRequest            = validation.EncryptRequest
	AdvancedEncryptRequest    = validation.AdvancedEncryptRequest
	DecryptRequest            = validation.DecryptRequest
	ContainerRequest          = validation.ContainerRequest
	PassphraseValidateRequest = validation.PassphraseValidateRequest
	PassphraseGenerateRequest = validation.PassphraseGenerateRequest
)

// ContainerResponse carries a freshly sealed legacy container
type ContainerResponse struct {
	Container string `json:"container"`
}

// ContentResponse carries recovered plaintext
type ContentResponse struct {
	Content string `json:"content"`
}

// ReportResponse carries the plain-text integrity report
type ReportResponse struct {
	Report string `json:"report"`
}

// PassphraseValidateResponse reports word-list validation of a passphrase
type PassphraseValidateResponse struct {
	wordlist.ValidationResult
	EntropyBits float64 `json:"entropy_bits"`
}

// PassphraseGenerateResponse carries a generated diceware passphrase
type PassphraseGenerateResponse struct {
	Passphrase  string  `json:"passphrase"`
	Words       int     `json:"words"`
	EntropyBits float64 `json:"entropy_bits"`
}

// ErrorResponse represents an error response. Kind is the error class, such
// as "IntegrityViolation" or "ValidationFailed".
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// Error kinds that do not come from the crypto core
const (
	KindValidation       = "ValidationFailed"
	KindWeakPassphrase   = "WeakPassphrase"
	KindNotFound         = "NotFound"
	KindMethodNotAllowed = "MethodNotAllowed"
	KindRateLimited      = "RateLimited"
	KindInternal         = "Internal"
)
