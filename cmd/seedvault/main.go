package main

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

// Environment variables read for secrets. Flags never carry secrets so they
// stay out of shell history and process listings.
const (
	EnvPassphrase = "SEEDVAULT_PASSPHRASE"
	EnvPassword   = "SEEDVAULT_PASSWORD"
	EnvWordlist   = "SEEDVAULT_WORDLIST"
	EnvLogLevel   = "LOG_LEVEL"
)

func main() {
	a := &app{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		getenv: os.Getenv,
		prompt: promptTTY,
	}
	os.Exit(a.run(os.Args[1:]))
}

// promptTTY reads a line from the controlling terminal without echo. Stdin
// is left alone since it carries the content.
func promptTTY(label string) (string, error) {
	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return "", fmt.Errorf("no terminal for %s prompt: %w", label, err)
	}
	defer tty.Close()

	fmt.Fprintf(tty, "%s: ", label)
	b, err := term.ReadPassword(int(tty.Fd()))
	fmt.Fprintln(tty)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", label, err)
	}
	return string(b), nil
}

func printUsage(w io.Writer) {
	usage := `seedvault - encrypt seed phrases and short secrets

Usage:
  seedvault <command> [options] < input

Available Commands:
  encrypt            Seal stdin in a legacy container
  decrypt            Open a legacy container (-auto detects the format)
  encrypt-advanced   Seal stdin in an advanced container with integrity metadata
  decrypt-advanced   Open an advanced container
  verify             Check an advanced container's integrity without decrypting
  info               Print an advanced container's integrity metadata as JSON
  export             Print an advanced container's integrity report
  passphrase         Generate or validate a diceware passphrase
  help               Show this help message
  version            Show version information

Secrets:
  The passphrase is read from SEEDVAULT_PASSPHRASE or prompted for on the
  terminal. The optional password is read from SEEDVAULT_PASSWORD, or
  prompted for with -password-prompt.
`
	fmt.Fprint(w, usage)
}
