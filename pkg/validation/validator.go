package validation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Size limits are in bytes, the same unit the CLI applies to stdin.
const (
	MaxContentBytes   = 64 * 1024
	MaxSecretBytes    = 1024
	MaxContainerBytes = 512 * 1024
	MaxIterations     = 10_000_000
	MaxGeneratedWords = 20
)

// validate is a singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
	if err := validate.RegisterValidation("maxbytes", maxBytes); err != nil {
		panic(err)
	}
	validate.RegisterAlias("content_size", fmt.Sprintf("maxbytes=%d", MaxContentBytes))
	validate.RegisterAlias("secret_size", fmt.Sprintf("maxbytes=%d", MaxSecretBytes))
	validate.RegisterAlias("container_size", fmt.Sprintf("maxbytes=%d", MaxContainerBytes))
	validate.RegisterAlias("iteration_count", fmt.Sprintf("min=0,max=%d", MaxIterations))
	validate.RegisterAlias("word_count", fmt.Sprintf("min=1,max=%d", MaxGeneratedWords))
}

// maxBytes bounds the encoded length of a string field. The built-in max
// counts runes.
func maxBytes(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(fl.Field().String()) <= limit
}

// EncryptRequest is the body of a legacy or advanced encrypt call.
type EncryptRequest struct {
	Content    string `json:"content" validate:"content_size"`
	Passphrase string `json:"passphrase" validate:"required,secret_size"`
	Password   string `json:"password" validate:"secret_size"`
}

// AdvancedEncryptRequest adds key derivation selection. Empty Derivation and
// zero Iterations select the server defaults.
type AdvancedEncryptRequest struct {
	EncryptRequest
	Derivation string `json:"derivation" validate:"omitempty,oneof=pbkdf2 argon2"`
	Iterations int    `json:"iterations" validate:"iteration_count"`
}

// DecryptRequest is the body of a legacy or advanced decrypt call.
type DecryptRequest struct {
	Container  string `json:"container" validate:"required,container_size"`
	Passphrase string `json:"passphrase" validate:"required,secret_size"`
	Password   string `json:"password" validate:"secret_size"`
}

// ContainerRequest carries a container for the metadata-only operations.
type ContainerRequest struct {
	Container string `json:"container" validate:"required,container_size"`
}

// PassphraseValidateRequest asks for a passphrase to be checked against the word list.
type PassphraseValidateRequest struct {
	Passphrase string `json:"passphrase" validate:"required,secret_size"`
}

// PassphraseGenerateRequest asks for a random passphrase of Words words.
type PassphraseGenerateRequest struct {
	Words int `json:"words" validate:"word_count"`
}

// ValidateEncryptRequest validates a legacy encrypt request
func ValidateEncryptRequest(req *EncryptRequest) error {
	if req == nil {
		return errors.New("encrypt request cannot be nil")
	}
	if err := validate.Struct(req); err != nil {
		return formatValidationError(err)
	}
	return validatePassphrase(req.Passphrase)
}

// ValidateAdvancedEncryptRequest validates an advanced encrypt request
func ValidateAdvancedEncryptRequest(req *AdvancedEncryptRequest) error {
	if req == nil {
		return errors.New("encrypt request cannot be nil")
	}
	if err := validate.Struct(req); err != nil {
		return formatValidationError(err)
	}
	return validatePassphrase(req.Passphrase)
}

// ValidateDecryptRequest validates a decrypt request
func ValidateDecryptRequest(req *DecryptRequest) error {
	if req == nil {
		return errors.New("decrypt request cannot be nil")
	}
	if err := validate.Struct(req); err != nil {
		return formatValidationError(err)
	}
	return validateContainer(req.Container)
}

// ValidateContainerRequest validates a verify, info or export request
func ValidateContainerRequest(req *ContainerRequest) error {
	if req == nil {
		return errors.New("container request cannot be nil")
	}
	if err := validate.Struct(req); err != nil {
		return formatValidationError(err)
	}
	return validateContainer(req.Container)
}

// ValidatePassphraseValidateRequest validates a passphrase check request
func ValidatePassphraseValidateRequest(req *PassphraseValidateRequest) error {
	if req == nil {
		return errors.New("passphrase request cannot be nil")
	}
	if err := validate.Struct(req); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// ValidatePassphraseGenerateRequest validates a passphrase generation request
func ValidatePassphraseGenerateRequest(req *PassphraseGenerateRequest) error {
	if req == nil {
		return errors.New("passphrase request cannot be nil")
	}
	if err := validate.Struct(req); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// validatePassphrase rejects passphrases made only of whitespace, which the
// struct tags let through.
func validatePassphrase(p string) error {
	if strings.TrimSpace(p) == "" {
		return errors.New("Passphrase: must contain at least one non-space character")
	}
	return nil
}

func validateContainer(c string) error {
	if strings.ContainsAny(c, " \t\r\n") {
		return errors.New("Container: must not contain whitespace")
	}
	return nil
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	// Return the first validation error in a user-friendly format
	for _, e := range validationErrs {
		field := e.Field()
		tag := e.ActualTag()
		param := e.Param()

		switch tag {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "min":
			return fmt.Errorf("%s: must be at least %s", field, param)
		case "max":
			return fmt.Errorf("%s: must not exceed %s", field, param)
		case "maxbytes":
			return fmt.Errorf("%s: must not exceed %s bytes", field, param)
		case "oneof":
			return fmt.Errorf("%s: must be one of [%s]", field, param)
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, tag)
		}
	}

	return err
}
