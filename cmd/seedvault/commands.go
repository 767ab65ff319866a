package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/dd0wney/seedvault/pkg/container"
	"github.com/dd0wney/seedvault/pkg/kdf"
	"github.com/dd0wney/seedvault/pkg/logging"
	"github.com/dd0wney/seedvault/pkg/validation"
	"github.com/dd0wney/seedvault/pkg/vault"
	"github.com/dd0wney/seedvault/pkg/wordlist"
)

// errIntegrityFailed makes verify exit non-zero after printing its result.
var errIntegrityFailed = errors.New("integrity verification failed")

type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string
	prompt func(label string) (string, error)
	vault  *vault.Vault
}

// run dispatches a subcommand and returns the process exit code.
func (a *app) run(args []string) int {
	if len(args) == 0 {
		printUsage(a.stderr)
		return 1
	}

	level := logging.WarnLevel
	if v := a.getenv(EnvLogLevel); v != "" {
		level = logging.ParseLevel(v)
	}
	logger := logging.NewJSONLogger(a.stderr, level).With(logging.Component("cli"))
	if a.vault == nil {
		a.vault = vault.New(vault.WithLogger(logger))
	}

	var err error
	command, rest := args[0], args[1:]
	switch command {
	case "encrypt":
		err = a.encrypt(rest)
	case "decrypt":
		err = a.decrypt(rest)
	case "encrypt-advanced":
		err = a.encryptAdvanced(rest)
	case "decrypt-advanced":
		err = a.decryptAdvanced(rest)
	case "verify":
		err = a.verify(rest)
	case "info":
		err = a.info(rest)
	case "export":
		err = a.export(rest)
	case "passphrase":
		err = a.passphrase(rest)
	case "help", "--help", "-h":
		printUsage(a.stdout)
		return 0
	case "version", "--version", "-v":
		fmt.Fprintf(a.stdout, "seedvault %s\n", Version)
		return 0
	default:
		fmt.Fprintf(a.stderr, "Unknown command: %s\n\n", command)
		printUsage(a.stderr)
		return 1
	}

	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(a.stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func (a *app) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

// secrets resolves the passphrase and password from the environment or the
// terminal.
func (a *app) secrets(promptPassword bool) (passphrase, password string, err error) {
	passphrase = a.getenv(EnvPassphrase)
	if passphrase == "" {
		if passphrase, err = a.prompt("Passphrase"); err != nil {
			return "", "", err
		}
	}
	if strings.TrimSpace(passphrase) == "" {
		return "", "", errors.New("passphrase is required")
	}

	password = a.getenv(EnvPassword)
	if password == "" && promptPassword {
		if password, err = a.prompt("Password"); err != nil {
			return "", "", err
		}
	}
	return passphrase, password, nil
}

// readContent reads stdin, dropping one trailing newline so that
// "echo words | seedvault encrypt" seals exactly the words.
func (a *app) readContent() (string, error) {
	b, err := io.ReadAll(io.LimitReader(a.stdin, int64(validation.MaxContentBytes)+2))
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	s := strings.TrimSuffix(strings.TrimSuffix(string(b), "\n"), "\r")
	if len(s) > validation.MaxContentBytes {
		return "", fmt.Errorf("input exceeds %d bytes", validation.MaxContentBytes)
	}
	return s, nil
}

// readContainer reads a base64 container from stdin, ignoring surrounding
// whitespace.
func (a *app) readContainer() (string, error) {
	b, err := io.ReadAll(io.LimitReader(a.stdin, int64(validation.MaxContainerBytes)+1))
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	s := strings.TrimSpace(string(b))
	if s == "" {
		return "", errors.New("no container on stdin")
	}
	if len(s) > validation.MaxContainerBytes {
		return "", fmt.Errorf("input exceeds %d bytes", validation.MaxContainerBytes)
	}
	return s, nil
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) encrypt(args []string) error {
	fs := a.flagSet("encrypt")
	promptPassword := fs.Bool("password-prompt", false, "Prompt for the optional password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	content, err := a.readContent()
	if err != nil {
		return err
	}
	passphrase, password, err := a.secrets(*promptPassword)
	if err != nil {
		return err
	}

	encoded, err := a.vault.Encrypt(content, passphrase, password)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.stdout, encoded)
	return err
}

func (a *app) decrypt(args []string) error {
	fs := a.flagSet("decrypt")
	promptPassword := fs.Bool("password-prompt", false, "Prompt for the optional password")
	auto := fs.Bool("auto", false, "Detect legacy or advanced format")
	if err := fs.Parse(args); err != nil {
		return err
	}

	encoded, err := a.readContainer()
	if err != nil {
		return err
	}

	open := a.vault.Decrypt
	if *auto {
		format, err := container.Sniff(encoded)
		if err != nil {
			return err
		}
		if format == container.FormatAdvanced {
			open = a.vault.DecryptAdvanced
		}
	}

	passphrase, password, err := a.secrets(*promptPassword)
	if err != nil {
		return err
	}
	content, err := open(encoded, passphrase, password)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.stdout, content)
	return err
}

func (a *app) encryptAdvanced(args []string) error {
	fs := a.flagSet("encrypt-advanced")
	promptPassword := fs.Bool("password-prompt", false, "Prompt for the optional password")
	derivation := fs.String("derivation", string(kdf.DefaultAlgorithm), "Key derivation: pbkdf2 or argon2")
	iterations := fs.Int("iterations", kdf.DefaultIterations, "Key derivation iterations (recorded in the label)")
	asJSON := fs.Bool("json", false, "Print container, integrity metadata, salt and IV as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req := validation.AdvancedEncryptRequest{Derivation: *derivation, Iterations: *iterations}
	content, err := a.readContent()
	if err != nil {
		return err
	}
	req.Content = content
	if req.Passphrase, req.Password, err = a.secrets(*promptPassword); err != nil {
		return err
	}
	if err := validation.ValidateAdvancedEncryptRequest(&req); err != nil {
		return err
	}

	result, err := a.vault.EncryptAdvanced(vault.AdvancedRequest{
		Content:    req.Content,
		Passphrase: req.Passphrase,
		Password:   req.Password,
		Derivation: kdf.Algorithm(req.Derivation),
		Iterations: req.Iterations,
	})
	if err != nil {
		return err
	}
	if *asJSON {
		return a.printJSON(result)
	}
	_, err = fmt.Fprintln(a.stdout, result.Container)
	return err
}

func (a *app) decryptAdvanced(args []string) error {
	fs := a.flagSet("decrypt-advanced")
	promptPassword := fs.Bool("password-prompt", false, "Prompt for the optional password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	encoded, err := a.readContainer()
	if err != nil {
		return err
	}
	passphrase, password, err := a.secrets(*promptPassword)
	if err != nil {
		return err
	}

	content, err := a.vault.DecryptAdvanced(encoded, passphrase, password)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.stdout, content)
	return err
}

func (a *app) verify(args []string) error {
	if err := a.flagSet("verify").Parse(args); err != nil {
		return err
	}
	encoded, err := a.readContainer()
	if err != nil {
		return err
	}

	result, err := a.vault.VerifyIntegrity(encoded)
	if err != nil {
		return err
	}
	if err := a.printJSON(result); err != nil {
		return err
	}
	if !result.Valid {
		return errIntegrityFailed
	}
	return nil
}

func (a *app) info(args []string) error {
	if err := a.flagSet("info").Parse(args); err != nil {
		return err
	}
	encoded, err := a.readContainer()
	if err != nil {
		return err
	}

	info, err := a.vault.GetIntegrityInfo(encoded)
	if err != nil {
		return err
	}
	return a.printJSON(info)
}

func (a *app) export(args []string) error {
	if err := a.flagSet("export").Parse(args); err != nil {
		return err
	}
	encoded, err := a.readContainer()
	if err != nil {
		return err
	}

	report, err := a.vault.ExportIntegrityReport(encoded)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(a.stdout, report)
	return err
}

// passphrase generates a passphrase, or with -validate checks the one on
// stdin. Validation output lists the rejected words, so it is only ever
// written to the caller's own terminal.
func (a *app) passphrase(args []string) error {
	fs := a.flagSet("passphrase")
	words := fs.Int("words", 6, "Number of words to generate")
	path := fs.String("wordlist", a.getenv(EnvWordlist), "EFF-format word list file")
	check := fs.Bool("validate", false, "Validate the passphrase on stdin instead of generating")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" {
		return fmt.Errorf("a word list is required: pass -wordlist or set %s", EnvWordlist)
	}

	wl, err := wordlist.Load(*path)
	if err != nil {
		return err
	}

	if *check {
		phrase, err := a.readContent()
		if err != nil {
			return err
		}
		result := wl.Validate(phrase)
		if err := a.printJSON(result); err != nil {
			return err
		}
		if !result.Valid {
			return errors.New("passphrase failed word list validation")
		}
		return nil
	}

	if err := validation.ValidatePassphraseGenerateRequest(&validation.PassphraseGenerateRequest{Words: *words}); err != nil {
		return err
	}
	phrase, err := wl.Generate(*words)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, phrase)
	fmt.Fprintf(a.stderr, "%d words, %.1f bits of entropy\n", *words, wl.Entropy(*words))
	return nil
}
