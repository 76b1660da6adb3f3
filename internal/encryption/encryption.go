// Package encryption protects catalog snapshots before they leave the
// catalog directory.
package encryption

import (
	"errors"
	"io"
)

// ErrKeysExist is returned by Setup when key files are already present.
var ErrKeysExist = errors.New("encryption keys already exist")

// Encryptor encrypts snapshot streams. Encryption only needs the public
// half of a key pair; decryption requires Unlock.
type Encryptor interface {
	// Setup creates the key material protected by passphrase.
	Setup(passphrase string) error

	// Encrypt reads plaintext from r and writes ciphertext to w.
	Encrypt(r io.Reader, w io.Writer) error

	// Unlock returns a context able to decrypt snapshots.
	Unlock(passphrase string) (DecryptionContext, error)

	// IsConfigured reports whether Setup has been run.
	IsConfigured() bool

	// Suffix is appended to the names of snapshots written by this encryptor.
	Suffix() string
}

// DecryptionContext decrypts snapshots with an unlocked key.
type DecryptionContext interface {
	Decrypt(r io.Reader, w io.Writer) error
}
