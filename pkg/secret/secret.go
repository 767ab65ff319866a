// Package secret merges the user's passphrase and optional password into the
// single secret fed to key derivation, and scrubs secret material afterwards.
package secret

import (
	"runtime"

	"github.com/awnumar/memguard"
)

// Separator joins passphrase and password. Changing it breaks every
// container encrypted with a password.
const Separator = ':'

// Combined holds the merged secret for the lifetime of one operation.
// Callers must Wipe it when done.
type Combined struct {
	buf []byte
}

// Combine returns passphrase verbatim when password is empty, otherwise
// passphrase + ":" + password.
func Combine(passphrase, password string) *Combined {
	if password == "" {
		buf := make([]byte, len(passphrase))
		copy(buf, passphrase)
		return &Combined{buf: buf}
	}

	buf := make([]byte, 0, len(passphrase)+1+len(password))
	buf = append(buf, passphrase...)
	buf = append(buf, Separator)
	buf = append(buf, password...)
	return &Combined{buf: buf}
}

// Bytes exposes the backing bytes. The slice is invalid after Wipe.
func (c *Combined) Bytes() []byte {
	if c == nil {
		return nil
	}
	return c.buf
}

// Len returns the length of the combined secret.
func (c *Combined) Len() int {
	if c == nil {
		return 0
	}
	return len(c.buf)
}

// Wipe zeroes the backing bytes and drops the reference. Safe to call twice.
func (c *Combined) Wipe() {
	if c == nil {
		return
	}
	WipeBytes(c.buf)
	c.buf = nil
}

// WipeBytes overwrites b with zeros.
func WipeBytes(b []byte) {
	if len(b) == 0 {
		return
	}
	memguard.WipeBytes(b)
	runtime.KeepAlive(b)
}

// WipeAll zeroes every slice given.
func WipeAll(slices ...[]byte) {
	for _, s := range slices {
		WipeBytes(s)
	}
}
